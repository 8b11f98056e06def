package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"portfolio-backend/internal/cache"
	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/prompts"
	"portfolio-backend/internal/services"
)

type stubCompleter struct{ reply string }

func (s stubCompleter) Model() string { return "stub" }

func (s stubCompleter) Complete(ctx context.Context, req services.CompletionRequest) (string, error) {
	return s.reply, nil
}

type emptySource struct{}

func (emptySource) ListProjects(ctx context.Context) ([]models.Project, error) { return nil, nil }

func (emptySource) ListFeaturedProjects(ctx context.Context) ([]models.Project, error) {
	return nil, nil
}

func (emptySource) GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error) {
	return nil, models.ErrProjectNotFound
}

type stubTools struct{ called string }

func (s *stubTools) ListTools(ctx context.Context) ([]models.Tool, error) {
	return []models.Tool{{Name: "execute_command"}}, nil
}

func (s *stubTools) CallTool(ctx context.Context, name string, args map[string]any) (*models.ToolResult, error) {
	s.called = name
	return &models.ToolResult{Content: []string{"ran"}}, nil
}

type testRouterOptions struct {
	jwtAuth    *middleware.JWTAuth
	tools      *stubTools
	trustProxy bool
}

func newTestRouter(t *testing.T, jwtAuth *middleware.JWTAuth) http.Handler {
	t.Helper()
	return newTestRouterWith(t, testRouterOptions{jwtAuth: jwtAuth})
}

func newTestRouterWith(t *testing.T, opts testRouterOptions) http.Handler {
	t.Helper()
	jwtAuth := opts.jwtAuth
	set, err := prompts.Default()
	if err != nil {
		t.Fatalf("load prompts: %v", err)
	}

	relay := services.NewChatRelay(stubCompleter{reply: "He built an AI portfolio."}, set, 1024, 256)
	projects := services.NewProjectService(emptySource{}, cache.NewMemory(), time.Minute)
	auth := services.NewAdminAuthService(jwtAuth, "")

	limiters := Limiters{
		Chat:  middleware.NewRateLimiter(2, time.Minute),
		Login: middleware.NewRateLimiter(5, time.Minute),
	}
	t.Cleanup(limiters.Chat.Stop)
	t.Cleanup(limiters.Login.Stop)

	adminHandler := handlers.NewAdminHandler(auth, nil)
	if opts.tools != nil {
		adminHandler = handlers.NewAdminHandler(auth, opts.tools)
	}

	return New(
		jwtAuth,
		limiters,
		handlers.NewChatHandler(relay, projects, set.ContextHeading()),
		handlers.NewProjectHandler(projects),
		adminHandler,
		[]string{"https://ramien.dev"},
		"https://ramien.dev",
		opts.trustProxy,
	)
}

func TestRouter_Health(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK || rr.Body.String() != `{"status":"ok"}` {
		t.Fatalf("unexpected health response %d %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a request id on every response")
	}
}

func TestRouter_ChatScenario(t *testing.T) {
	h := newTestRouter(t, nil)

	body := `{"messages":[{"role":"user","content":"What has Ramien built?"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "He built an AI portfolio.") {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestRouter_ChatRateLimited(t *testing.T) {
	h := newTestRouter(t, nil)

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(`{"messages":[{"role":"user","content":"Hi"}]}`))
		req.RemoteAddr = "203.0.113.7:4000"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected third request to be rate limited, got %d", last)
	}
}

func TestRouter_ProjectNotFound(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/projects/missing", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestRouter_AdminRoutesRequireToken(t *testing.T) {
	jwtAuth := middleware.NewJWTAuth("test-secret")
	h := newTestRouter(t, jwtAuth)

	body := `{"title":"Dash","technologies":["Go"]}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/ai/generate-description", strings.NewReader(body)))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	token, err := jwtAuth.GenerateAccessToken(middleware.AdminSubject, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/ai/generate-description", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/mcp/tools", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when MCP is not configured, got %d", rr.Code)
	}
}

func TestRouter_Robots(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/robots.txt", nil))

	if !strings.Contains(rr.Body.String(), "Disallow: /api/") {
		t.Fatalf("unexpected robots.txt %s", rr.Body.String())
	}
}

func TestRouter_MCPToolsNotMountedWithoutAdminAuth(t *testing.T) {
	tools := &stubTools{}
	h := newTestRouterWith(t, testRouterOptions{tools: tools})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/admin/mcp/tools/execute_command", strings.NewReader(`{}`)))
	if rr.Code == http.StatusOK {
		t.Fatalf("expected tool call to be unreachable without admin auth, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admin/mcp/tools", nil))
	if rr.Code == http.StatusOK {
		t.Fatalf("expected tool list to be unreachable without admin auth, got %d", rr.Code)
	}

	if tools.called != "" {
		t.Fatalf("tool %q ran without authentication", tools.called)
	}
}

func TestRouter_MCPToolsRequireToken(t *testing.T) {
	jwtAuth := middleware.NewJWTAuth("test-secret")
	tools := &stubTools{}
	h := newTestRouterWith(t, testRouterOptions{jwtAuth: jwtAuth, tools: tools})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/admin/mcp/tools/execute_command", strings.NewReader(`{}`)))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}
	if tools.called != "" {
		t.Fatalf("tool %q ran without a token", tools.called)
	}

	token, err := jwtAuth.GenerateAccessToken(middleware.AdminSubject, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/mcp/tools/execute_command", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || tools.called != "execute_command" {
		t.Fatalf("expected authorized tool call, got %d called=%q", rr.Code, tools.called)
	}
}

func TestRouter_ForwardedForIgnoredByDefault(t *testing.T) {
	h := newTestRouter(t, nil)

	var last int
	for i, fwd := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
		req := httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(`{"messages":[{"role":"user","content":"Hi"}]}`))
		req.RemoteAddr = "203.0.113.7:" + strconv.Itoa(40000+i)
		req.Header.Set("X-Forwarded-For", fwd)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected spoofed X-Forwarded-For to share the caller's limit, got %d", last)
	}
}

func TestRouter_ForwardedForTrustedWhenConfigured(t *testing.T) {
	h := newTestRouterWith(t, testRouterOptions{trustProxy: true})

	for _, fwd := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
		req := httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(`{"messages":[{"role":"user","content":"Hi"}]}`))
		req.RemoteAddr = "10.0.0.2:443"
		req.Header.Set("X-Forwarded-For", fwd)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected each forwarded client to get its own limit, got %d for %s", rr.Code, fwd)
		}
	}
}
