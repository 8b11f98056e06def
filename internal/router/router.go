package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/middleware"
)

// Limiters are owned by the caller, which stops them on shutdown.
type Limiters struct {
	Chat  *middleware.RateLimiter
	Login *middleware.RateLimiter
}

// New builds the HTTP API. A nil jwtAuth leaves generate-description open and
// does not mount the MCP tool routes. Forwarded client addresses are honoured
// only when trustProxyHeaders is set.
func New(
	jwtAuth *middleware.JWTAuth,
	limiters Limiters,
	chatHandler *handlers.ChatHandler,
	projectHandler *handlers.ProjectHandler,
	adminHandler *handlers.AdminHandler,
	allowedOrigins []string,
	appURL string,
	trustProxyHeaders bool,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	if trustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	adminOnly := func(next http.Handler) http.Handler { return next }
	if jwtAuth != nil {
		adminOnly = jwtAuth.Middleware
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/robots.txt", handlers.Robots(appURL))

	r.Route("/api", func(r chi.Router) {

		// ──── AI Routes ────
		r.Route("/ai", func(r chi.Router) {
			r.With(limiters.Chat.Middleware).Post("/chat", chatHandler.Chat)
			r.Get("/context", chatHandler.Context)
			r.With(adminOnly).Post("/generate-description", chatHandler.GenerateDescription)
		})

		// ──── Project Routes (public, read-only) ────
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projectHandler.List)
			r.Get("/featured", projectHandler.Featured)
			r.Get("/{slug}", projectHandler.GetBySlug)
		})

		// ──── Admin Routes ────
		r.Route("/admin", func(r chi.Router) {
			r.With(limiters.Login.Middleware).Post("/login", adminHandler.Login)

			// MCP tool routes exist only behind admin auth.
			if jwtAuth != nil {
				r.Group(func(r chi.Router) {
					r.Use(jwtAuth.Middleware)
					r.Get("/mcp/tools", adminHandler.ListTools)
					r.Post("/mcp/tools/{name}", adminHandler.CallTool)
				})
			}
		})
	})

	return r
}
