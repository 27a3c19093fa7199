package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSupabase = "supabase"
	BackendMongo    = "mongo"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Document store
	StoreBackend string

	MongoURI      string
	MongoDatabase string

	SupabaseURL          string
	SupabaseAnonKey      string
	SupabaseServiceKey   string
	SupabasePollInterval time.Duration

	// Cache and alert fan-out
	RedisURL string
	CacheTTL time.Duration

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Observability
	OTLPEndpoint string

	// JWT / Auth
	JWTSecret    string
	JWTAccessTTL time.Duration

	// Data layer limits
	UserScanLimit     int
	OptimisticRetries int
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend: getEnv("STORE_BACKEND", BackendMemory),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDatabase: getEnv("MONGO_DATABASE", "coffee"),

		SupabaseURL:          getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:      getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey:   getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabasePollInterval: getEnvDuration("SUPABASE_POLL_INTERVAL", 2*time.Second),

		RedisURL: getEnv("REDIS_URL", ""),
		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		JWTSecret:    getEnv("JWT_SECRET", "coffee-admin-dev-secret-change-me"),
		JWTAccessTTL: getEnvDuration("JWT_ACCESS_TTL", 8*time.Hour),

		UserScanLimit:     getEnvInt("USER_SCAN_LIMIT", 1000),
		OptimisticRetries: getEnvInt("OPTIMISTIC_RETRIES", 5),
	}
}

// Validate reports settings the selected backend cannot run without.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			return fmt.Errorf("config: %s backend needs SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY", c.StoreBackend)
		}
	case BackendMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return fmt.Errorf("config: %s backend needs MONGO_URI and MONGO_DATABASE", c.StoreBackend)
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("config: CACHE_TTL must be positive, got %s", c.CacheTTL)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
