package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/warden/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Database      DatabaseConfig
	Cache         CacheConfig
	Notifications NotificationConfig
	Reconcile     ReconcileConfig
	Observability ObservabilityConfig
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// CacheConfig holds the optional permission cache settings
type CacheConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	Size          int
	TTL           time.Duration
}

// NotificationConfig holds the membership notification sink settings.
// An empty WebhookURL selects the log-only sink.
type NotificationConfig struct {
	WebhookURL    string
	WebhookSecret string
}

// ReconcileConfig controls system role reconciliation in the ops binary
type ReconcileConfig struct {
	// Schedule is a cron expression for periodic re-reconciliation;
	// empty disables the schedule (reconcile still runs at startup).
	Schedule string
}

// ObservabilityConfig holds logging and ops endpoint settings
type ObservabilityConfig struct {
	LogLevel   observability.LogLevel
	HealthPort string
}

// LoadConfig loads configuration from WARDEN_* environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL:             getEnv("WARDEN_DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("WARDEN_DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("WARDEN_DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("WARDEN_DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Cache: CacheConfig{
			Enabled:       getEnvBool("WARDEN_CACHE_ENABLED", false),
			RedisAddr:     getEnv("WARDEN_CACHE_REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("WARDEN_CACHE_REDIS_PASSWORD", ""),
			Size:          getEnvInt("WARDEN_CACHE_SIZE", 4096),
			TTL:           getEnvDuration("WARDEN_CACHE_TTL", 30*time.Second),
		},
		Notifications: NotificationConfig{
			WebhookURL:    getEnv("WARDEN_NOTIFY_WEBHOOK_URL", ""),
			WebhookSecret: getEnv("WARDEN_NOTIFY_WEBHOOK_SECRET", ""),
		},
		Reconcile: ReconcileConfig{
			Schedule: getEnv("WARDEN_RECONCILE_SCHEDULE", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:   parseLogLevel(getEnv("WARDEN_LOG_LEVEL", "info")),
			HealthPort: getEnv("WARDEN_HEALTH_PORT", "8081"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("WARDEN_DATABASE_URL is required")
	}
	if c.Cache.Enabled && c.Cache.Size <= 0 {
		return fmt.Errorf("WARDEN_CACHE_SIZE must be positive")
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("WARDEN_CACHE_TTL must be positive")
	}
	if c.Notifications.WebhookSecret != "" && c.Notifications.WebhookURL == "" {
		return fmt.Errorf("WARDEN_NOTIFY_WEBHOOK_SECRET set without WARDEN_NOTIFY_WEBHOOK_URL")
	}
	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
