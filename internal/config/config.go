package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const requestHeadroom = 15 * time.Second

// Config holds application configuration
type Config struct {
	ServerPort      string
	BaseURL         string
	FrontendURL     string
	EnableHSTS      bool
	ServerDebugMode bool
	WorkerDebugMode bool

	CompletionAPIKey  string
	CompletionBaseURL string
	CompletionModel   string
	CompletionReferer string
	CompletionTimeout time.Duration

	ProfileAPIToken string
	ProfileBaseURL  string
	ProfileTimeout  time.Duration

	PersistenceURL string
	PersistenceKey string

	AuthJWKSURL   string
	AuthJWTSecret string
	AuthIssuer    string
	AuthAudience  string

	RedisURL         string
	RateLimit        string
	RabbitMQURL      string
	RabbitMQPrefetch int

	OTELEnabled  bool
	OTELEndpoint string

	PromptTemplatesPath string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		BaseURL:         getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:      getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		WorkerDebugMode: getEnvBool("WORKER_DEBUG_MODE", false),

		CompletionAPIKey:  getEnv("COMPLETION_API_KEY", ""),
		CompletionBaseURL: getEnv("COMPLETION_BASE_URL", "https://openrouter.ai/api/v1"),
		CompletionModel:   getEnv("COMPLETION_MODEL", "meta-llama/llama-3.2-3b-instruct:free"),
		CompletionReferer: getEnv("COMPLETION_REFERER", ""),
		CompletionTimeout: getEnvDuration("COMPLETION_TIMEOUT", 45*time.Second),

		ProfileAPIToken: getEnv("PROFILE_API_TOKEN", ""),
		ProfileBaseURL:  getEnv("PROFILE_BASE_URL", "https://api.twitter.com"),
		ProfileTimeout:  getEnvDuration("PROFILE_TIMEOUT", 10*time.Second),

		PersistenceURL: getEnv("PERSISTENCE_URL", ""),
		PersistenceKey: getEnv("PERSISTENCE_KEY", ""),

		AuthJWKSURL:   getEnv("AUTH_JWKS_URL", ""),
		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		AuthIssuer:    getEnv("AUTH_ISSUER", ""),
		AuthAudience:  getEnv("AUTH_AUDIENCE", ""),

		RedisURL:         getEnv("REDIS_URL", ""),
		RateLimit:        getEnv("RATE_LIMIT", "20-M"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),

		OTELEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		PromptTemplatesPath: getEnv("PROMPT_TEMPLATES_PATH", ""),
	}

	if cfg.AuthJWKSURL == "" && cfg.AuthJWTSecret == "" {
		return nil, fmt.Errorf("AUTH_JWKS_URL or AUTH_JWT_SECRET is required")
	}

	if cfg.PersistenceKey != "" && cfg.PersistenceURL == "" {
		return nil, fmt.Errorf("PERSISTENCE_KEY is set but PERSISTENCE_URL is empty")
	}

	return cfg, nil
}

// LoadWorker loads the subset of configuration the persistence worker needs.
func LoadWorker() (*Config, error) {
	cfg := &Config{
		WorkerDebugMode:  getEnvBool("WORKER_DEBUG_MODE", false),
		PersistenceURL:   getEnv("PERSISTENCE_URL", ""),
		PersistenceKey:   getEnv("PERSISTENCE_KEY", ""),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
	}

	if cfg.PersistenceURL == "" {
		return nil, fmt.Errorf("PERSISTENCE_URL is required")
	}

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required for the persistence worker")
	}

	return cfg, nil
}

// LoadPersistence loads only the database settings, for schema migrations.
func LoadPersistence() (*Config, error) {
	cfg := &Config{
		PersistenceURL: getEnv("PERSISTENCE_URL", ""),
		PersistenceKey: getEnv("PERSISTENCE_KEY", ""),
	}

	if cfg.PersistenceURL == "" {
		return nil, fmt.Errorf("PERSISTENCE_URL is required")
	}

	return cfg, nil
}

// PersistenceEnabled reports whether history features are available
func (c *Config) PersistenceEnabled() bool {
	return c.PersistenceURL != ""
}

// PersistenceDSN returns PERSISTENCE_URL with PERSISTENCE_KEY injected as the password.
// A password already present in the URL is kept unless a key is configured.
func (c *Config) PersistenceDSN() (string, error) {
	if c.PersistenceURL == "" {
		return "", fmt.Errorf("PERSISTENCE_URL is not configured")
	}
	if c.PersistenceKey == "" {
		return c.PersistenceURL, nil
	}

	u, err := url.Parse(c.PersistenceURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse PERSISTENCE_URL: %w", err)
	}
	username := ""
	if u.User != nil {
		username = u.User.Username()
	}
	u.User = url.UserPassword(username, c.PersistenceKey)
	return u.String(), nil
}

// RequestTimeout is the budget for one API request: the profile lookup, the
// completion call and some headroom for persistence and encoding.
func (c *Config) RequestTimeout() time.Duration {
	profile, completion := c.ProfileTimeout, c.CompletionTimeout
	if profile <= 0 {
		profile = 10 * time.Second
	}
	if completion <= 0 {
		completion = 45 * time.Second
	}
	return profile + completion + requestHeadroom
}

// AllowedOrigins splits FRONTEND_URL on commas
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.FrontendURL, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("30s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
