package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	LLM       LLMConfig
	Auth      AuthConfig
	Quota     QuotaConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// StoreConfig holds document-store configuration
type StoreConfig struct {
	Path        string
	OpTimeout   time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	OpenTimeout time.Duration
}

// LLMConfig holds generation-provider configuration
type LLMConfig struct {
	Provider    string // "openai" or "gemini"
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// AuthConfig holds token-verification configuration
type AuthConfig struct {
	JWTSecret string
}

// QuotaConfig holds per-user usage limits
type QuotaConfig struct {
	FreeMonthlyLimit int
}

// RateLimitConfig holds the fixed-window limiter settings for /api routes
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	provider := getEnv("LLM_PROVIDER", "openai")

	apiKeyVar := "OPENAI_API_KEY"
	defaultModel := "gpt-4o-mini"
	if provider == "gemini" {
		apiKeyVar = "GEMINI_API_KEY"
		defaultModel = "gemini-2.0-flash-001"
	}

	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  []string{getEnv("CORS_ORIGIN", "*")},
		},
		Store: StoreConfig{
			Path:        getEnv("STORE_PATH", "budgy.db"),
			OpTimeout:   getEnvAsDuration("STORE_OP_TIMEOUT", 5*time.Second),
			MaxRetries:  getEnvAsInt("STORE_MAX_RETRIES", 3),
			RetryDelay:  getEnvAsDuration("STORE_RETRY_DELAY", 1*time.Second),
			OpenTimeout: getEnvAsDuration("STORE_OPEN_TIMEOUT", 1*time.Second),
		},
		LLM: LLMConfig{
			Provider:    provider,
			Model:       getEnv("LLM_MODEL", defaultModel),
			APIKey:      getEnv(apiKeyVar, ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.1),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 1024),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Quota: QuotaConfig{
			FreeMonthlyLimit: getEnvAsInt("FREE_MONTHLY_LIMIT", 10),
		},
		RateLimit: RateLimitConfig{
			Window:      getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
			MaxRequests: getEnvAsInt("RATE_LIMIT_MAX", 50),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration. A missing provider key or JWT
// secret fails startup rather than defaulting to a placeholder.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError(KindInvalidInput, "generation provider API key is required", nil)
	}
	if c.Auth.JWTSecret == "" {
		return NewAppError(KindUnauthenticated, "JWT_SECRET is required", nil)
	}
	if c.Store.Path == "" {
		return NewAppError(KindInvalidInput, "STORE_PATH is required", nil)
	}
	return nil
}
