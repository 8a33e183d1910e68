package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	OTEL      OTELConfig
	S3        S3Config
	Gym       GymConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port          string
	MaxBodySizeMB int64
	// StorageDriver is "mongo" or "memory"; memory keeps everything in process
	StorageDriver string
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis connection and cache TTL configuration
type RedisConfig struct {
	Addr              string
	Password          string
	DashboardCacheTTL time.Duration
	IdempotencyTTL    time.Duration
}

// JWTConfig holds the shared secret used to verify staff tokens
type JWTConfig struct {
	Secret string
}

// OTELConfig holds OpenTelemetry exporter configuration
type OTELConfig struct {
	Enabled           bool
	Endpoint          string
	InstanceID        string
	Token             string
	ServiceName       string
	ServiceVersion    string
	Environment       string
	PrometheusEnabled bool
}

// S3Config holds S3-compatible storage configuration for billing archives.
// Archiving is disabled when Endpoint or Bucket is empty.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
}

// Enabled reports whether an archive target is configured
func (c S3Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// GymConfig holds business constants
type GymConfig struct {
	Timezone            string
	BasePrice           int64
	PromotionPrice      int64
	ExpiryLookAheadDays int
}

// SchedulerConfig controls the daily notification job
type SchedulerConfig struct {
	Enabled          bool
	NotificationCron string
}

// Load reads configuration from environment variables
// It attempts to load from .env file first, then falls back to system env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:          getEnv("PORT", "8080"),
			MaxBodySizeMB: getEnvAsInt64("MAX_BODY_SIZE_MB", 4),
			StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", "mongo")),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "gymledger"),
		},
		Redis: RedisConfig{
			Addr:              getEnv("REDIS_ADDR", "localhost:6379"),
			Password:          getEnv("REDIS_PASSWORD", ""),
			DashboardCacheTTL: time.Duration(getEnvAsInt64("DASHBOARD_CACHE_TTL_SECONDS", 60)) * time.Second,
			IdempotencyTTL:    time.Duration(getEnvAsInt64("IDEMPOTENCY_TTL_SECONDS", 86400)) * time.Second,
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		OTEL: OTELConfig{
			Enabled:           getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:          getEnv("OTEL_ENDPOINT", ""),
			InstanceID:        getEnv("OTEL_INSTANCE_ID", ""),
			Token:             getEnv("OTEL_TOKEN", ""),
			ServiceName:       getEnv("OTEL_SERVICE_NAME", "gymledger"),
			ServiceVersion:    getEnv("OTEL_SERVICE_VERSION", "dev"),
			Environment:       getEnv("OTEL_ENVIRONMENT", "development"),
			PrometheusEnabled: getEnvAsBool("METRICS_PROMETHEUS_ENABLED", false),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Bucket:    getEnv("S3_BUCKET", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			PublicURL: getEnv("S3_PUBLIC_URL", ""),
		},
		Gym: GymConfig{
			Timezone:            getEnv("APP_TIMEZONE", "America/Argentina/Cordoba"),
			BasePrice:           getEnvAsInt64("PLAN_PRICE_BASE", 17000),
			PromotionPrice:      getEnvAsInt64("PLAN_PRICE_PROMOTION", 25000),
			ExpiryLookAheadDays: int(getEnvAsInt64("EXPIRY_LOOKAHEAD_DAYS", 7)),
		},
		Scheduler: SchedulerConfig{
			Enabled:          getEnvAsBool("SCHEDULER_ENABLED", true),
			NotificationCron: getEnv("NOTIFICATION_CRON", "0 0 * * *"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Server.StorageDriver != "mongo" && c.Server.StorageDriver != "memory" {
		return fmt.Errorf("STORAGE_DRIVER must be mongo or memory, got %q", c.Server.StorageDriver)
	}
	if _, err := time.LoadLocation(c.Gym.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE is invalid: %w", err)
	}
	if c.Gym.BasePrice <= 0 || c.Gym.PromotionPrice <= 0 {
		return fmt.Errorf("plan prices must be positive")
	}
	if c.Gym.ExpiryLookAheadDays <= 0 {
		return fmt.Errorf("EXPIRY_LOOKAHEAD_DAYS must be positive")
	}
	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.NotificationCron); err != nil {
			return fmt.Errorf("NOTIFICATION_CRON is invalid: %w", err)
		}
	}
	if c.OTEL.Enabled && c.OTEL.Endpoint == "" {
		return fmt.Errorf("OTEL_ENDPOINT is required when OTEL_ENABLED is set")
	}
	return nil
}

// Location resolves the gym's configured time zone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Gym.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LookAhead is the expiry reminder window
func (c *Config) LookAhead() time.Duration {
	return time.Duration(c.Gym.ExpiryLookAheadDays) * 24 * time.Hour
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 retrieves an environment variable as int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
