package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/raw-labs/machine-prediction-demo/internal/errors"
)

// Gateway backends
const (
	GatewayRaw      = "raw"
	GatewayPostgres = "postgres"
)

// Feature store backends
const (
	StoreFile   = "file"
	StoreBadger = "badger"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Gateway   GatewayConfig
	Store     StoreConfig
	Profiling ProfilingConfig
	Log       LogConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	GinMode         string
	ShutdownTimeout time.Duration
}

// GatewayConfig selects and configures the analytics engine client
type GatewayConfig struct {
	Backend     string
	ExecutorURL string
	Token       string
	DatabaseURL string
	Timeout     time.Duration
}

// StoreConfig configures the feature store
type StoreConfig struct {
	Backend   string
	DirPrefix string
}

// ProfilingConfig holds admin server settings (health, metrics, pprof)
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:    *loadServerConfig(),
		Gateway:   *loadGatewayConfig(),
		Store:     *loadStoreConfig(),
		Profiling: *loadProfilingConfig(),
		Log:       LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "INFO")},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "5000"),
		GinMode:         getEnvOrDefault("GIN_MODE", "release"),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadGatewayConfig() *GatewayConfig {
	return &GatewayConfig{
		Backend:     strings.ToLower(getEnvOrDefault("GATEWAY", GatewayRaw)),
		ExecutorURL: strings.TrimRight(getEnvOrDefault("EXECUTOR_URL", "https://eu-just-ask.raw-labs.com/executor"), "/"),
		Token:       os.Getenv("RAW_TOKEN"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		// Zero means no client-side timeout; callers bound requests with their context.
		Timeout: getEnvDurationOrDefault("GATEWAY_TIMEOUT", 0),
	}
}

func loadStoreConfig() *StoreConfig {
	return &StoreConfig{
		Backend:   strings.ToLower(getEnvOrDefault("FEATURE_STORE", StoreFile)),
		DirPrefix: getEnvOrDefault("FEATURES_DIR_PREFIX", "raw-app-features"),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("ADMIN_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("ADMIN_ENABLED", true),
	}
}

func validateConfig(config *Config) error {
	switch config.Gateway.Backend {
	case GatewayRaw:
		if config.Gateway.ExecutorURL == "" {
			return errors.ConfigInvalid("EXECUTOR_URL is required for the raw gateway")
		}
	case GatewayPostgres:
		if config.Gateway.DatabaseURL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required for the postgres gateway")
		}
	default:
		return errors.ConfigInvalid("GATEWAY must be one of raw, postgres; got " + config.Gateway.Backend)
	}

	switch config.Store.Backend {
	case StoreFile, StoreBadger:
	default:
		return errors.ConfigInvalid("FEATURE_STORE must be one of file, badger; got " + config.Store.Backend)
	}

	if config.Server.Port == "" {
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
