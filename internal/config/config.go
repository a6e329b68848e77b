package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"resultsdash/internal/errors"
)

// Filter store backends
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Store     StoreConfig
	Tabs      TabsConfig
	Profiling ProfilingConfig
	LogLevel  string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port          string
	GinMode       string
	SessionCookie string
}

// DataConfig holds the results API settings
type DataConfig struct {
	APIBaseURL   string
	FetchTimeout time.Duration
	// DataPath is a gjson path to the payload when the API wraps it in an envelope
	DataPath string
	APIKey   string
}

// StoreConfig selects where sticky filters are persisted
type StoreConfig struct {
	Backend     string
	DatabaseURL string
	SQLitePath  string
}

// TabsConfig points at an optional YAML tab tree; empty means the built-in tree
type TabsConfig struct {
	File string
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:    *loadServerConfig(),
		Data:      *loadDataConfig(),
		Store:     *loadStoreConfig(),
		Tabs:      TabsConfig{File: getEnvOrDefault("TABS_FILE", "")},
		Profiling: *loadProfilingConfig(),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:          getEnvOrDefault("PORT", "8080"),
		GinMode:       getEnvOrDefault("GIN_MODE", "release"),
		SessionCookie: getEnvOrDefault("SESSION_COOKIE", "resultsdash_session"),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		APIBaseURL:   strings.TrimRight(getEnvOrDefault("DATA_API_BASE_URL", "http://localhost:9000/api"), "/"),
		FetchTimeout: getEnvDurationOrDefault("FETCH_TIMEOUT", 10*time.Second),
		DataPath:     getEnvOrDefault("DATA_JSON_PATH", ""),
		APIKey:       getEnvOrDefault("DATA_API_KEY", ""),
	}
}

func loadStoreConfig() *StoreConfig {
	return &StoreConfig{
		Backend:     strings.ToLower(getEnvOrDefault("FILTER_STORE", StoreMemory)),
		DatabaseURL: getEnvOrDefault("DATABASE_URL", ""),
		SQLitePath:  getEnvOrDefault("SQLITE_PATH", "resultsdash.db"),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	u, err := url.Parse(config.Data.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.ConfigInvalid("DATA_API_BASE_URL must be an absolute URL")
	}
	if config.Data.FetchTimeout <= 0 {
		return errors.ConfigInvalid("FETCH_TIMEOUT must be positive")
	}
	switch config.Store.Backend {
	case StoreMemory:
	case StorePostgres:
		if config.Store.DatabaseURL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required when FILTER_STORE=postgres")
		}
	case StoreSQLite:
		if config.Store.SQLitePath == "" {
			return errors.ConfigInvalid("SQLITE_PATH is required when FILTER_STORE=sqlite")
		}
	default:
		return errors.ConfigInvalid("FILTER_STORE must be one of memory, postgres, sqlite")
	}
	if config.Server.SessionCookie == "" {
		return errors.ConfigInvalid("SESSION_COOKIE cannot be empty")
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
