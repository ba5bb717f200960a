package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"scoregaps/internal/errors"
)

// Source kinds for the fact table
const (
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Database  DatabaseConfig
	Dashboard DashboardConfig
	LogLevel  string
	Metrics   MetricsConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	APIPort string
	GinMode string
}

// DataConfig describes where the fact table comes from and how hard to try
type DataConfig struct {
	Source     string
	File       string
	Sheet      string // xlsx worksheet; first sheet when empty
	URL        string
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// DashboardConfig holds presentation settings
type DashboardConfig struct {
	RegistryFile   string
	EmptySelection string
	SessionTTL     time.Duration
}

// MetricsConfig toggles the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:    *loadServerConfig(),
		Data:      *loadDataConfig(),
		Database:  DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Dashboard: *loadDashboardConfig(),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "INFO"),
		Metrics:   MetricsConfig{Enabled: getEnvBoolOrDefault("METRICS_ENABLED", true)},
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		APIPort: getEnvOrDefault("API_PORT", "8081"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		Source:     strings.ToLower(getEnvOrDefault("DATA_SOURCE", SourceFile)),
		File:       getEnvOrDefault("DATA_FILE", "merged_data.csv"),
		Sheet:      getEnvOrDefault("DATA_SHEET", ""),
		URL:        getEnvOrDefault("DATA_URL", ""),
		MaxRetries: getEnvIntOrDefault("FETCH_MAX_RETRIES", 5),
		RetryDelay: getEnvDurationOrDefault("FETCH_RETRY_DELAY", 60*time.Second),
		Timeout:    getEnvDurationOrDefault("FETCH_TIMEOUT", 30*time.Second),
	}
}

func loadDashboardConfig() *DashboardConfig {
	return &DashboardConfig{
		RegistryFile:   getEnvOrDefault("REGISTRY_FILE", ""),
		EmptySelection: strings.ToLower(getEnvOrDefault("EMPTY_SELECTION", "strict")),
		SessionTTL:     getEnvDurationOrDefault("SESSION_TTL", 2*time.Hour),
	}
}

// Validate checks cross-field requirements
func (c *Config) Validate() error {
	switch c.Data.Source {
	case SourceFile:
		if c.Data.File == "" {
			return errors.ConfigInvalid("DATA_FILE is required for the file source")
		}
	case SourceHTTP:
		if c.Data.URL == "" {
			return errors.ConfigInvalid("DATA_URL is required for the http source")
		}
	case SourcePostgres:
		if c.Database.URL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required for the postgres source")
		}
	default:
		return errors.ConfigInvalid("DATA_SOURCE must be one of file, http, postgres")
	}
	if c.Data.MaxRetries < 1 {
		return errors.ConfigInvalid("FETCH_MAX_RETRIES must be at least 1")
	}
	if c.Dashboard.EmptySelection != "strict" && c.Dashboard.EmptySelection != "inclusive" {
		return errors.ConfigInvalid("EMPTY_SELECTION must be strict or inclusive")
	}
	if c.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
