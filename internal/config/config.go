package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"

	ContentSanity   = "sanity"
	ContentPostgres = "postgres"
)

var defaultModels = map[string]string{
	ProviderAnthropic: "claude-sonnet-4-6",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderGemini:    "gemini-2.0-flash",
}

type Config struct {
	// Server
	Port           string
	Env            string
	AllowedOrigins []string
	AppURL         string

	// Logging
	LogLevel  string
	LogFormat string

	// Language model
	LLMProvider          string
	LLMModel             string
	AnthropicAPIKey      string
	AnthropicBaseURL     string
	OpenAIAPIKey         string
	OpenAIBaseURL        string
	GeminiAPIKey         string
	ChatMaxTokens        int
	DescriptionMaxTokens int
	PromptsFile          string

	// Content
	ContentProvider  string
	SanityProjectID  string
	SanityDataset    string
	SanityAPIVersion string
	SanityUseCDN     bool
	SanityAPIToken   string
	DatabaseURL      string
	RedisURL         string
	ProjectCacheTTL  time.Duration

	// Rate limiting
	ChatRateLimit  int
	ChatRateWindow time.Duration

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool

	// Admin
	JWTSecret         string
	AdminPasswordHash string

	// MCP
	MCPServerCommand string
	MCPServerArgs    []string

	// Tracing
	OTLPEndpoint string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	provider := strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderAnthropic))
	contentProvider := strings.ToLower(getEnvOrDefault("CONTENT_PROVIDER", ContentSanity))

	cfg := &Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		Env:            getEnvOrDefault("ENV", "development"),
		AllowedOrigins: getEnvListOrDefault("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		AppURL:         getEnvOrDefault("APP_URL", ""),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),

		LLMProvider:          provider,
		LLMModel:             getEnvOrDefault("LLM_MODEL", defaultModels[provider]),
		AnthropicBaseURL:     getEnvOrDefault("ANTHROPIC_BASE_URL", ""),
		OpenAIBaseURL:        getEnvOrDefault("OPENAI_BASE_URL", ""),
		ChatMaxTokens:        getEnvAsIntOrDefault("CHAT_MAX_TOKENS", 1024),
		DescriptionMaxTokens: getEnvAsIntOrDefault("DESCRIPTION_MAX_TOKENS", 256),
		PromptsFile:          getEnvOrDefault("PROMPTS_FILE", ""),

		ContentProvider:  contentProvider,
		SanityDataset:    getEnvOrDefault("SANITY_DATASET", "production"),
		SanityAPIVersion: getEnvOrDefault("SANITY_API_VERSION", "2024-01-01"),
		SanityUseCDN:     getEnvAsBoolOrDefault("SANITY_USE_CDN", true),
		SanityAPIToken:   getEnvOrDefault("SANITY_API_TOKEN", ""),
		RedisURL:         getEnvOrDefault("REDIS_URL", ""),
		ProjectCacheTTL:  time.Duration(getEnvAsIntOrDefault("PROJECT_CACHE_TTL", 60)) * time.Second,

		ChatRateLimit:     getEnvAsIntOrDefault("CHAT_RATE_LIMIT", 20),
		ChatRateWindow:    time.Duration(getEnvAsIntOrDefault("CHAT_RATE_WINDOW", 60)) * time.Second,
		TrustProxyHeaders: getEnvAsBoolOrDefault("TRUST_PROXY_HEADERS", false),

		JWTSecret:         getEnvOrDefault("JWT_SECRET", ""),
		AdminPasswordHash: getEnvOrDefault("ADMIN_PASSWORD_HASH", ""),

		MCPServerCommand: getEnvOrDefault("MCP_SERVER_COMMAND", ""),
		MCPServerArgs:    getEnvListOrDefault("MCP_SERVER_ARGS", nil),

		OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	switch provider {
	case ProviderAnthropic:
		cfg.AnthropicAPIKey = mustGetEnv("ANTHROPIC_API_KEY")
	case ProviderOpenAI:
		cfg.OpenAIAPIKey = mustGetEnv("OPENAI_API_KEY")
	case ProviderGemini:
		cfg.GeminiAPIKey = mustGetEnv("GEMINI_API_KEY")
	default:
		panic(fmt.Sprintf("unsupported LLM_PROVIDER %q", provider))
	}

	switch contentProvider {
	case ContentSanity:
		cfg.SanityProjectID = mustGetEnv("SANITY_PROJECT_ID")
	case ContentPostgres:
		cfg.DatabaseURL = mustGetEnv("DATABASE_URL")
	default:
		panic(fmt.Sprintf("unsupported CONTENT_PROVIDER %q", contentProvider))
	}

	return cfg
}

// AdminAuthEnabled reports whether admin routes are protected by bearer tokens.
func (c *Config) AdminAuthEnabled() bool {
	return c.JWTSecret != ""
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return defaultVal
}

func getEnvListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
