package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/services"
)

// ─── Stubs ───

type stubRelay struct {
	reply       string
	err         error
	gotMessages []models.Turn
	gotContext  string
	calls       int
}

func (s *stubRelay) CompleteChat(ctx context.Context, messages []models.Turn, portfolioContext string) (string, error) {
	s.calls++
	s.gotMessages = messages
	s.gotContext = portfolioContext
	return s.reply, s.err
}

func (s *stubRelay) GenerateDescription(ctx context.Context, title string, technologies []string) (string, error) {
	s.calls++
	if title == "" || technologies == nil {
		return "", &services.ValidationError{Message: "Title and technologies are required"}
	}
	return s.reply, s.err
}

type stubProjects struct {
	projects []models.Project
	context  string
	err      error
}

func (s *stubProjects) List(ctx context.Context) ([]models.Project, error) {
	return s.projects, s.err
}

func (s *stubProjects) Featured(ctx context.Context) ([]models.Project, error) {
	return s.projects, s.err
}

func (s *stubProjects) BySlug(ctx context.Context, slug string) (*models.Project, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.projects {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, &services.NotFoundError{Message: "Project not found"}
}

func (s *stubProjects) PortfolioContext(ctx context.Context, heading string) (string, error) {
	return s.context, s.err
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not an error body: %v (%s)", err, rr.Body.String())
	}
	return body.Error
}

// ─── Chat Handler Tests ───

func TestChat_Success(t *testing.T) {
	relay := &stubRelay{reply: "He built an AI portfolio."}
	h := NewChatHandler(relay, &stubProjects{}, "heading")

	body := `{"messages":[{"role":"user","content":"What has Ramien built?"}],"portfolioContext":"ctx"}`
	req := httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Chat(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp models.ChatResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Response != "He built an AI portfolio." {
		t.Fatalf("unexpected response %q", resp.Response)
	}
	if relay.gotContext != "ctx" || len(relay.gotMessages) != 1 {
		t.Fatalf("unexpected relay input: %+v / %q", relay.gotMessages, relay.gotContext)
	}
}

func TestChat_MessagesRequired(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing messages", `{}`},
		{"null messages", `{"messages":null}`},
		{"not an array", `{"messages":"hello"}`},
		{"object instead of array", `{"messages":{"role":"user"}}`},
		{"empty array", `{"messages":[]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			relay := &stubRelay{reply: "unused"}
			h := NewChatHandler(relay, &stubProjects{}, "heading")

			req := httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			h.Chat(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			if msg := decodeError(t, rr); msg != "Messages are required" {
				t.Fatalf("unexpected error %q", msg)
			}
			if relay.calls != 0 {
				t.Fatal("relay must not be called for invalid input")
			}
		})
	}
}

func TestChat_InvalidBody(t *testing.T) {
	h := NewChatHandler(&stubRelay{}, &stubProjects{}, "heading")

	req := httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(`{not json`))
	rr := httptest.NewRecorder()
	h.Chat(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestChat_UpstreamErrorVerbatim(t *testing.T) {
	relay := &stubRelay{err: &services.UpstreamError{Message: "insufficient_quota"}}
	h := NewChatHandler(relay, &stubProjects{}, "heading")

	body := `{"messages":[{"role":"user","content":"Hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Chat(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); msg != "insufficient_quota" {
		t.Fatalf("expected upstream message verbatim, got %q", msg)
	}
}

func TestChat_InvalidRole(t *testing.T) {
	relay := &stubRelay{err: &services.ValidationError{Message: "Invalid message role"}}
	h := NewChatHandler(relay, &stubProjects{}, "heading")

	body := `{"messages":[{"role":"system","content":"Hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Chat(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestContext(t *testing.T) {
	h := NewChatHandler(&stubRelay{}, &stubProjects{context: "Here are Ramien's current projects:\n- Portfolio"}, "heading")

	rr := httptest.NewRecorder()
	h.Context(rr, httptest.NewRequest(http.MethodGet, "/api/ai/context", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp models.ContextResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.PortfolioContext != "Here are Ramien's current projects:\n- Portfolio" {
		t.Fatalf("unexpected context %q", resp.PortfolioContext)
	}
}

func TestGenerateDescription(t *testing.T) {
	tests := []struct {
		name       string
		relay      *stubRelay
		body       string
		wantStatus int
		wantError  string
	}{
		{"success", &stubRelay{reply: "A sleek dashboard."}, `{"title":"Dash","technologies":["Go"]}`, http.StatusOK, ""},
		{"empty technologies", &stubRelay{reply: "desc"}, `{"title":"Dash","technologies":[]}`, http.StatusOK, ""},
		{"missing title", &stubRelay{}, `{"technologies":["Go"]}`, http.StatusBadRequest, "Title and technologies are required"},
		{"missing technologies", &stubRelay{}, `{"title":"Dash"}`, http.StatusBadRequest, "Title and technologies are required"},
		{"upstream failure", &stubRelay{err: &services.UpstreamError{Message: "overloaded_error"}}, `{"title":"Dash","technologies":["Go"]}`, http.StatusInternalServerError, "overloaded_error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewChatHandler(tc.relay, &stubProjects{}, "heading")

			req := httptest.NewRequest(http.MethodPost, "/api/ai/generate-description", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			h.GenerateDescription(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, rr.Code, rr.Body.String())
			}
			if tc.wantError != "" {
				if msg := decodeError(t, rr); msg != tc.wantError {
					t.Fatalf("expected error %q, got %q", tc.wantError, msg)
				}
			}
		})
	}
}

// ─── Project Handler Tests ───

func TestProjects_List(t *testing.T) {
	h := NewProjectHandler(&stubProjects{})

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/projects", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty JSON array, got %s", rr.Body.String())
	}
}

func TestProjects_GetBySlug(t *testing.T) {
	h := NewProjectHandler(&stubProjects{projects: []models.Project{
		{ID: "1", Title: "AI Portfolio", Slug: "ai-portfolio", Technologies: []string{"Go"}},
	}})

	r := chi.NewRouter()
	r.Get("/api/projects/{slug}", h.GetBySlug)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/projects/ai-portfolio", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var p models.Project
	json.Unmarshal(rr.Body.Bytes(), &p)
	if p.Title != "AI Portfolio" {
		t.Fatalf("unexpected project %+v", p)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/projects/missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); msg != "Project not found" {
		t.Fatalf("unexpected error %q", msg)
	}
}

func TestProjects_SourceErrorIsGeneric(t *testing.T) {
	h := NewProjectHandler(&stubProjects{err: errors.New("dial tcp: connection refused")})

	rr := httptest.NewRecorder()
	h.Featured(rr, httptest.NewRequest(http.MethodGet, "/api/projects/featured", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); msg != "An unexpected error occurred" {
		t.Fatalf("infrastructure errors must not leak, got %q", msg)
	}
}

// ─── Admin Handler Tests ───

type stubAuth struct {
	err error
}

func (s *stubAuth) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.AuthTokens{AccessToken: "token", ExpiresIn: 3600}, nil
}

type stubTools struct {
	gotName string
	gotArgs map[string]any
}

func (s *stubTools) ListTools(ctx context.Context) ([]models.Tool, error) {
	return []models.Tool{{Name: "search", Description: "Search projects"}}, nil
}

func (s *stubTools) CallTool(ctx context.Context, name string, args map[string]any) (*models.ToolResult, error) {
	s.gotName = name
	s.gotArgs = args
	return &models.ToolResult{Content: []string{"found 2"}}, nil
}

func TestAdminLogin(t *testing.T) {
	tests := []struct {
		name       string
		auth       *stubAuth
		wantStatus int
	}{
		{"success", &stubAuth{}, http.StatusOK},
		{"bad password", &stubAuth{err: &services.UnauthorizedError{Message: "Invalid credentials"}}, http.StatusUnauthorized},
		{"not configured", &stubAuth{err: &services.UnavailableError{Message: "Admin login is not configured"}}, http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAdminHandler(tc.auth, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{"password":"pw"}`))
			rr := httptest.NewRecorder()
			h.Login(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rr.Code)
			}
		})
	}
}

func TestAdminTools_NotConfigured(t *testing.T) {
	h := NewAdminHandler(&stubAuth{}, nil)

	rr := httptest.NewRecorder()
	h.ListTools(rr, httptest.NewRequest(http.MethodGet, "/api/admin/mcp/tools", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestAdminTools_Call(t *testing.T) {
	tools := &stubTools{}
	h := NewAdminHandler(&stubAuth{}, tools)

	r := chi.NewRouter()
	r.Get("/api/admin/mcp/tools", h.ListTools)
	r.Post("/api/admin/mcp/tools/{name}", h.CallTool)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admin/mcp/tools", nil))
	var listed []models.Tool
	json.Unmarshal(rr.Body.Bytes(), &listed)
	if diff := cmp.Diff([]models.Tool{{Name: "search", Description: "Search projects"}}, listed); diff != "" {
		t.Fatalf("unexpected tools (-want +got):\n%s", diff)
	}

	body := bytes.NewBufferString(`{"arguments":{"q":"go"}}`)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/admin/mcp/tools/search", body))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if tools.gotName != "search" || tools.gotArgs["q"] != "go" {
		t.Fatalf("unexpected call %q %v", tools.gotName, tools.gotArgs)
	}
}

// ─── robots.txt ───

func TestRobots(t *testing.T) {
	rr := httptest.NewRecorder()
	Robots("https://ramien.dev/")(rr, httptest.NewRequest(http.MethodGet, "/robots.txt", nil))

	want := "User-Agent: *\nAllow: /\nDisallow: /api/\nDisallow: /studio/\n\nHost: https://ramien.dev\n"
	if rr.Body.String() != want {
		t.Fatalf("unexpected robots.txt:\n%s", rr.Body.String())
	}
}
