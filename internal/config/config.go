// Package config provides configuration for the gateway admin backend.
package config

import (
	"os"
	"strconv"
	"time"
)

// Mode selection, mirrored by the adapter factories.
const (
	EnvGatewayMode = "GATEWAY_MODE"
	ModeMock       = "MOCK"
)

// Config holds the backend configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Lab orchestrator
	LabMaxConcurrency int

	// Timeouts
	LLMTimeout   time.Duration
	ImageTimeout time.Duration

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:          getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:       getEnv("DATABASE_URL", "file:gateway-admin.db?cache=shared&mode=rwc"),
		LabMaxConcurrency: getEnvInt("LAB_MAX_CONCURRENCY", 4),
		LLMTimeout:        time.Duration(getEnvInt("LLM_TIMEOUT_MS", 300000)) * time.Millisecond,
		ImageTimeout:      time.Duration(getEnvInt("IMAGE_TIMEOUT_MS", 120000)) * time.Millisecond,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

// MockMode reports whether mock adapters should be used instead of real
// upstream calls.
func MockMode() bool {
	return os.Getenv(EnvGatewayMode) == ModeMock
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
