package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// app config, read from the environment (and .env when present)
type Config struct {
	Port    string
	Env     string
	SiteURL string

	StoreBackend string
	DatabaseURL  string
	Postgres     PostgresConfig

	SupabaseURL       string
	SupabaseKey       string
	SupabaseJWTSecret string

	Provider string

	VapiPublicKey   string
	VapiAssistantID string

	ProtectedPrefixes []string
	SignInPath        string
	AuthCookieName    string

	RedisAddr     string
	EventsBackend string
	NATSURL       string
	OTLPEndpoint  string

	ReaperSchedule   string
	SessionRetention time.Duration

	AllowedOrigins []string
}

type PostgresConfig struct {
	Host     string
	User     string
	Password string
	DB       string
	Port     string
	SSLMode  string
}

const (
	StoreBackendPostgres = "postgres"
	StoreBackendSupabase = "supabase"

	EventsBackendRedis = "redis"
	EventsBackendNATS  = "nats"
	EventsBackendNone  = "none"
)

// loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// a missing .env is fine, real deployments set the environment directly
	_ = godotenv.Load()

	config := &Config{
		Port:         getEnv("PORT", "8080"),
		Env:          getEnv("APP_ENV", "production"),
		SiteURL:      strings.TrimRight(getEnv("SITE_URL", "http://localhost:8080"), "/"),
		StoreBackend: getEnv("STORE_BACKEND", StoreBackendPostgres),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			DB:       getEnv("POSTGRES_DB", "postgres"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		SupabaseURL:       os.Getenv("SUPABASE_URL"),
		SupabaseKey:       os.Getenv("SUPABASE_KEY"),
		SupabaseJWTSecret: os.Getenv("SUPABASE_JWT_SECRET"),
		Provider:          getEnv("AI_PROVIDER", "openrouter"),
		VapiPublicKey:     os.Getenv("VAPI_PUBLIC_KEY"),
		VapiAssistantID:   os.Getenv("VAPI_ASSISTANT_ID"),
		ProtectedPrefixes: getEnvList("PROTECTED_PREFIXES", []string{"/dashboard"}),
		SignInPath:        getEnv("SIGN_IN_PATH", "/auth"),
		AuthCookieName:    getEnv("AUTH_COOKIE_NAME", "sb-access-token"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		EventsBackend:     getEnv("EVENTS_BACKEND", EventsBackendNone),
		NATSURL:           getEnv("NATS_URL", "nats://localhost:4222"),
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ReaperSchedule:    getEnv("SESSION_REAPER_SCHEDULE", "@every 1m"),
		SessionRetention:  getEnvDuration("SESSION_RETENTION", 10*time.Minute),
		AllowedOrigins:    getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:8080"}),
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *Config) error {
	switch config.StoreBackend {
	case StoreBackendPostgres:
	case StoreBackendSupabase:
		if config.SupabaseURL == "" || config.SupabaseKey == "" {
			return errors.New("STORE_BACKEND=supabase requires SUPABASE_URL and SUPABASE_KEY")
		}
	default:
		return errors.New("unsupported store backend: " + config.StoreBackend + ". Supported: postgres, supabase")
	}

	switch config.EventsBackend {
	case EventsBackendNone, EventsBackendNATS:
	case EventsBackendRedis:
		if config.RedisAddr == "" {
			return errors.New("EVENTS_BACKEND=redis requires REDIS_ADDR")
		}
	default:
		return errors.New("unsupported events backend: " + config.EventsBackend + ". Supported: redis, nats, none")
	}

	if !strings.HasPrefix(config.SignInPath, "/") {
		return fmt.Errorf("SIGN_IN_PATH must be an absolute path, got %q", config.SignInPath)
	}
	// provider credentials are validated by the provider packages
	return nil
}

// PostgresDSN prefers DATABASE_URL and falls back to the discrete POSTGRES_* settings.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	p := c.Postgres
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		p.Host, p.User, p.Password, p.DB, p.Port, p.SSLMode)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Helper functions for environment variables
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
