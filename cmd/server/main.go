package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-backend/internal/cache"
	"portfolio-backend/internal/cms"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/database"
	"portfolio-backend/internal/database/migrations"
	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/mcptools"
	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/prompts"
	"portfolio-backend/internal/repository"
	"portfolio-backend/internal/router"
	"portfolio-backend/internal/services"
	"portfolio-backend/internal/tracing"
	"portfolio-backend/pkg/logger"
)

const loginRateLimit = 10

func main() {
	ctx := context.Background()

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	logger.Info("Starting portfolio backend...")

	// ──── Step 2: Tracing ────
	shutdownTracing, err := tracing.Setup(ctx, "portfolio-backend", cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatalf("Tracing setup failed: %v", err)
	}
	if cfg.OTLPEndpoint != "" {
		logger.Infof("Tracing to %s", cfg.OTLPEndpoint)
	}

	// ──── Step 3: Prompts ────
	promptSet, err := prompts.Load(cfg.PromptsFile)
	if err != nil {
		logger.Fatalf("Prompt loading failed: %v", err)
	}

	// ──── Step 4: Language Model Client ────
	var completer services.Completer
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		completer = services.NewAnthropicCompleter(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL, cfg.LLMModel)
	case config.ProviderOpenAI:
		completer = services.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.LLMModel)
	case config.ProviderGemini:
		gemini, err := services.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			logger.Fatalf("Gemini client initialization failed: %v", err)
		}
		defer gemini.Close()
		completer = gemini
	}
	logger.Infof("Language model: %s (%s)", completer.Model(), cfg.LLMProvider)

	// ──── Step 5: Content Source ────
	var source services.ProjectSource
	switch cfg.ContentProvider {
	case config.ContentPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("PostgreSQL connection failed: %v", err)
		}
		defer pool.Close()

		if err := database.RunMigrations(ctx, pool, migrations.FS); err != nil {
			logger.Fatalf("Database migration failed: %v", err)
		}
		source = repository.NewProjectRepo(pool)
		logger.Info("Content source: PostgreSQL")
	default:
		source = cms.NewClient(cms.Options{
			ProjectID:  cfg.SanityProjectID,
			Dataset:    cfg.SanityDataset,
			APIVersion: cfg.SanityAPIVersion,
			Token:      cfg.SanityAPIToken,
			UseCDN:     cfg.SanityUseCDN,
		})
		logger.Infof("Content source: Sanity project %s/%s", cfg.SanityProjectID, cfg.SanityDataset)
	}

	// ──── Step 6: Project Cache ────
	var projectCache services.Cache = cache.NewMemory()
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatalf("Redis connection failed: %v", err)
		}
		defer redisClient.Close()
		projectCache = cache.NewRedis(redisClient, "portfolio:")
		logger.Info("Project cache: Redis")
	}

	// ──── Step 7: MCP Bridge (optional) ────
	var adminTools *mcptools.Client
	if cfg.MCPServerCommand != "" && !cfg.AdminAuthEnabled() {
		logger.Warnf("MCP bridge skipped: JWT_SECRET is required to expose MCP tools")
	} else if cfg.MCPServerCommand != "" {
		adminTools, err = mcptools.Connect(ctx, cfg.MCPServerCommand, cfg.MCPServerArgs)
		if err != nil {
			logger.Warnf("MCP bridge disabled: %v", err)
		} else {
			defer adminTools.Close()
		}
	}

	// ──── Initialize Services ────
	var jwtAuth *middleware.JWTAuth
	if cfg.AdminAuthEnabled() {
		jwtAuth = middleware.NewJWTAuth(cfg.JWTSecret)
	} else {
		logger.Warnf("JWT_SECRET is not set; generate-description is unauthenticated")
	}
	relay := services.NewChatRelay(completer, promptSet, cfg.ChatMaxTokens, cfg.DescriptionMaxTokens)
	projectService := services.NewProjectService(source, projectCache, cfg.ProjectCacheTTL)
	adminAuth := services.NewAdminAuthService(jwtAuth, cfg.AdminPasswordHash)

	// ──── Initialize Handlers ────
	chatHandler := handlers.NewChatHandler(relay, projectService, promptSet.ContextHeading())
	projectHandler := handlers.NewProjectHandler(projectService)
	adminHandler := handlers.NewAdminHandler(adminAuth, nil)
	if adminTools != nil {
		adminHandler = handlers.NewAdminHandler(adminAuth, adminTools)
	}

	limiters := router.Limiters{
		Chat:  middleware.NewRateLimiter(cfg.ChatRateLimit, cfg.ChatRateWindow),
		Login: middleware.NewRateLimiter(loginRateLimit, time.Minute),
	}

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		limiters,
		chatHandler,
		projectHandler,
		adminHandler,
		cfg.AllowedOrigins,
		cfg.AppURL,
		cfg.TrustProxyHeaders,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")
		limiters.Chat.Stop()
		limiters.Login.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Errorf("HTTP shutdown: %v", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			logger.Errorf("Tracing shutdown: %v", err)
		}
	}()

	logger.Infof("Portfolio backend ready on http://localhost:%s", cfg.Port)
	logger.Infof("  API: http://localhost:%s/api", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatalf("Server error: %v", err)
	}
	<-done
}
