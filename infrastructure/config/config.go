// Package config loads process configuration from the environment and the
// domain configuration from an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string
	ServiceName   string

	// Lambda configuration
	IsLambda bool

	// Logging
	LogLevel string

	// Observability
	EnableMetrics bool
	EnableTracing bool
	OTLPEndpoint  string

	// CORS
	EnableCORS         bool
	CORSAllowedOrigins []string

	// Domain configuration overlay, hot reloaded when set
	DomainConfigFile string

	// Request limits
	MaxImportBytes int64

	// Session housekeeping
	SessionTTLMinutes int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		ServiceName:   getEnv("SERVICE_NAME", "questionnaire-builder"),

		IsLambda: getEnvBool("IS_LAMBDA", false),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		OTLPEndpoint:  getEnv("OTLP_ENDPOINT", ""),

		EnableCORS:         getEnvBool("ENABLE_CORS", true),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		DomainConfigFile: getEnv("DOMAIN_CONFIG_FILE", ""),
		MaxImportBytes:   int64(getEnvInt("MAX_IMPORT_BYTES", 10<<20)),

		SessionTTLMinutes: getEnvInt("SESSION_TTL_MINUTES", 24*60),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the settings are consistent
func (c *Config) Validate() error {
	if c.ServerAddress == "" && !c.IsLambda {
		return fmt.Errorf("SERVER_ADDRESS is required")
	}
	if c.MaxImportBytes <= 0 {
		return fmt.Errorf("MAX_IMPORT_BYTES must be positive")
	}
	if c.SessionTTLMinutes < 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES cannot be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel)
	}
	if c.IsProduction() && c.EnableTracing && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP_ENDPOINT is required when tracing is enabled in production")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
