// Package config loads service configuration from CONTRACTGUARD_ prefixed
// environment variables and validates it at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/contractguard/contractguard/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxRequestBytes int64
	AllowedOrigins  []string

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrateOnStart  bool
}

// RedisConfig holds report cache configuration
type RedisConfig struct {
	Enabled    bool
	URL        string
	Password   string
	DB         int
	MaxRetries int
	PoolSize   int
	ReportTTL  time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("CONTRACTGUARD_HOST", "0.0.0.0"),
		Port:            getEnv("CONTRACTGUARD_PORT", "8080"),
		ReadTimeout:     getEnvDuration("CONTRACTGUARD_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("CONTRACTGUARD_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("CONTRACTGUARD_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("CONTRACTGUARD_SHUTDOWN_TIMEOUT", 30*time.Second),
		MaxRequestBytes: getEnvInt64("CONTRACTGUARD_MAX_REQUEST_BYTES", 10*1024*1024),
		AllowedOrigins:  splitNonEmpty(getEnv("CONTRACTGUARD_ALLOWED_ORIGINS", "*")),
		HealthPort:      getEnv("CONTRACTGUARD_HEALTH_PORT", "9090"),
	}
}

// loadDatabaseConfig loads PostgreSQL configuration from environment
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:             getEnv("CONTRACTGUARD_POSTGRES_URL", ""),
		MaxOpenConns:    getEnvInt("CONTRACTGUARD_POSTGRES_MAX_CONNS", 25),
		MaxIdleConns:    getEnvInt("CONTRACTGUARD_POSTGRES_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("CONTRACTGUARD_POSTGRES_CONN_LIFETIME", 5*time.Minute),
		MigrateOnStart:  getEnvBool("CONTRACTGUARD_MIGRATE_ON_START", true),
	}
}

// loadRedisConfig loads report cache configuration from environment
func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:    getEnvBool("CONTRACTGUARD_CACHE_ENABLED", true),
		URL:        getEnv("CONTRACTGUARD_REDIS_URL", "redis://localhost:6379/0"),
		Password:   getEnv("CONTRACTGUARD_REDIS_PASSWORD", ""),
		DB:         getEnvInt("CONTRACTGUARD_REDIS_DB", 0),
		MaxRetries: getEnvInt("CONTRACTGUARD_REDIS_MAX_RETRIES", 3),
		PoolSize:   getEnvInt("CONTRACTGUARD_REDIS_POOL_SIZE", 10),
		ReportTTL:  getEnvDuration("CONTRACTGUARD_REPORT_TTL", 15*time.Minute),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       parseLogLevel(getEnv("CONTRACTGUARD_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("CONTRACTGUARD_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	if c.Redis.Enabled && c.Redis.URL == "" {
		return fmt.Errorf("redis URL is required when caching is enabled")
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

// splitNonEmpty splits a comma-separated list dropping empty entries
func splitNonEmpty(s string) []string {
	parts := []string{}
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
