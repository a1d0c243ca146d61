package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// insecureJWTSecret is the placeholder secret older deployments shipped with.
const insecureJWTSecret = "your_secret_key"

// MinJWTSecretLength is the minimum accepted HS256 signing key length in bytes.
const MinJWTSecretLength = 32

var (
	ErrMissingJWTSecret  = errors.New("JWT_SECRET_KEY is not set")
	ErrInsecureJWTSecret = errors.New("JWT_SECRET_KEY is insecure")
)

// Config holds the application configuration.
type Config struct {
	Host      string
	Port      int
	HostURL   string // allowed CORS origin
	AppEnv    string
	LogLevel  string
	JWTSecret []byte

	DatabasePath string
	StoreTimeout time.Duration
	BcryptCost   int

	LLMAPIKey    string
	LLMBaseURL   string
	LLMModel     string
	LLMMaxTokens int
	LLMTimeout   time.Duration

	ChatRetentionDays     int
	ChatRetentionSchedule string
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load loads configuration from an optional .env file and environment variables,
// applying defaults where a variable is unset.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	port, err := strconv.Atoi(getEnv("PORT", "8000"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	storeTimeout, err := time.ParseDuration(getEnv("STORE_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_TIMEOUT: %w", err)
	}
	if storeTimeout <= 0 {
		return nil, fmt.Errorf("invalid STORE_TIMEOUT: must be positive")
	}

	bcryptCost, err := strconv.Atoi(getEnv("BCRYPT_COST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	if bcryptCost < 4 || bcryptCost > 31 {
		return nil, fmt.Errorf("invalid BCRYPT_COST: must be between 4 and 31 (got %d)", bcryptCost)
	}

	maxTokens, err := strconv.Atoi(getEnv("LLM_MAX_TOKENS", "500"))
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_TOKENS: %w", err)
	}
	if maxTokens <= 0 {
		return nil, fmt.Errorf("invalid LLM_MAX_TOKENS: must be positive (got %d)", maxTokens)
	}

	llmTimeout, err := time.ParseDuration(getEnv("LLM_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_TIMEOUT: %w", err)
	}
	if llmTimeout <= 0 {
		return nil, fmt.Errorf("invalid LLM_TIMEOUT: must be positive")
	}

	retentionDays, err := strconv.Atoi(getEnv("CHAT_RETENTION_DAYS", "0"))
	if err != nil || retentionDays < 0 {
		return nil, fmt.Errorf("invalid CHAT_RETENTION_DAYS: %q", os.Getenv("CHAT_RETENTION_DAYS"))
	}

	secret, err := loadJWTSecret()
	if err != nil {
		return nil, err
	}

	return &Config{
		Host:                  getEnv("HOST", "0.0.0.0"),
		Port:                  port,
		HostURL:               getEnv("HOST_URL", "http://localhost:3000"),
		AppEnv:                getEnv("APP_ENV", "development"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		JWTSecret:             secret,
		DatabasePath:          getEnv("DATABASE_PATH", "./edgefit.db"),
		StoreTimeout:          storeTimeout,
		BcryptCost:            bcryptCost,
		LLMAPIKey:             getEnv("GROQ_API_KEY", ""),
		LLMBaseURL:            getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMModel:              getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
		LLMMaxTokens:          maxTokens,
		LLMTimeout:            llmTimeout,
		ChatRetentionDays:     retentionDays,
		ChatRetentionSchedule: getEnv("CHAT_RETENTION_SCHEDULE", "@daily"),
	}, nil
}

// loadJWTSecret reads the signing key. There is no fallback value.
func loadJWTSecret() ([]byte, error) {
	secret, ok := os.LookupEnv("JWT_SECRET_KEY")
	if !ok || secret == "" {
		return nil, ErrMissingJWTSecret
	}
	if secret == insecureJWTSecret {
		return nil, fmt.Errorf("%w: placeholder value", ErrInsecureJWTSecret)
	}
	if len(secret) < MinJWTSecretLength {
		return nil, fmt.Errorf("%w: must be at least %d bytes", ErrInsecureJWTSecret, MinJWTSecretLength)
	}
	return []byte(secret), nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
