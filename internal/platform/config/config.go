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
	AggregationPreAggregated = "preaggregated"
	AggregationScan          = "scan"
)

type Config struct {
	Addr                   string
	Environment            string
	BackendURL             string
	BackendAPIKey          string
	BackendAPISecret       string
	BackendTimeout         time.Duration
	BackendRPS             float64
	BackendBurst           int
	ListMethodPrefix       string
	JobsMethod             string
	JobAggregationMode     string
	AggregationConcurrency int
	JobPageSize            int
	SearchDebounce         time.Duration
	UploadSessionTTL       time.Duration
	MaxBodyBytes           int64
	JWTSecret              string
	DatabaseURL            string
	DatabaseMaxConns       int
	RunMigrations          bool
	MigrationsDir          string
	MetricsEnabled         bool
	RateLimit              int
	RateLimitWindow        time.Duration
	MaintenanceInterval    time.Duration
	IdempotencyRetention   time.Duration
	DevTrustUserHeader     bool
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	if err := godotenv.Load(getEnv("ENV_FILE", ".env")); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "config: ignoring env file: %v\n", err)
	}
	return Config{
		Addr:                   getEnv("APP_ADDR", ":8080"),
		Environment:            getEnv("APP_ENV", "development"),
		BackendURL:             strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8000"), "/"),
		BackendAPIKey:          getEnv("BACKEND_API_KEY", ""),
		BackendAPISecret:       getEnv("BACKEND_API_SECRET", ""),
		BackendTimeout:         getEnvDuration("BACKEND_TIMEOUT", 30*time.Second),
		BackendRPS:             getEnvFloat("BACKEND_RPS", 20),
		BackendBurst:           getEnvInt("BACKEND_BURST", 10),
		ListMethodPrefix:       getEnv("LIST_METHOD_PREFIX", "careverse_hq.api"),
		JobsMethod:             getEnv("JOBS_METHOD", "careverse_hq.api.bulk_upload.get_bulk_upload_jobs"),
		JobAggregationMode:     strings.ToLower(getEnv("JOB_AGGREGATION_MODE", AggregationPreAggregated)),
		AggregationConcurrency: getEnvInt("AGGREGATION_CONCURRENCY", 8),
		JobPageSize:            getEnvInt("JOB_PAGE_SIZE", 100),
		SearchDebounce:         getEnvDuration("SEARCH_DEBOUNCE", 300*time.Millisecond),
		UploadSessionTTL:       getEnvDuration("UPLOAD_SESSION_TTL", 2*time.Hour),
		MaxBodyBytes:           int64(getEnvInt("MAX_BODY_BYTES", 5*1024*1024)),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		DatabaseMaxConns:       getEnvInt("DATABASE_MAX_CONNS", 5),
		RunMigrations:          getEnvBool("RUN_MIGRATIONS", true),
		MigrationsDir:          getEnv("MIGRATIONS_DIR", "migrations"),
		MetricsEnabled:         getEnvBool("METRICS_ENABLED", true),
		RateLimit:              getEnvInt("RATE_LIMIT", 300),
		RateLimitWindow:        getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		MaintenanceInterval:    getEnvDuration("MAINTENANCE_INTERVAL", 5*time.Minute),
		IdempotencyRetention:   getEnvDuration("IDEMPOTENCY_RETENTION", 24*time.Hour),
		DevTrustUserHeader:     getEnvBool("DEV_TRUST_USER_HEADER", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BackendURL) == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if !strings.HasPrefix(c.BackendURL, "http://") && !strings.HasPrefix(c.BackendURL, "https://") {
		return fmt.Errorf("BACKEND_URL must be an http(s) URL")
	}
	if c.IsProduction() && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	switch c.JobAggregationMode {
	case AggregationPreAggregated, AggregationScan:
	default:
		return fmt.Errorf("JOB_AGGREGATION_MODE must be %q or %q", AggregationPreAggregated, AggregationScan)
	}
	if c.AggregationConcurrency <= 0 {
		return fmt.Errorf("AGGREGATION_CONCURRENCY must be positive")
	}
	if c.JobPageSize <= 0 || c.JobPageSize > 500 {
		return fmt.Errorf("JOB_PAGE_SIZE must be between 1 and 500")
	}
	if c.BackendRPS <= 0 {
		return fmt.Errorf("BACKEND_RPS must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("RATE_LIMIT must not be negative")
	}
	if c.RateLimit > 0 && c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("SEARCH_DEBOUNCE must not be negative")
	}
	return nil
}
