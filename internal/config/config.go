/**
 * Configuration for the signup service.
 *
 * Loads configuration from environment variables (a local .env file is
 * loaded by main before this runs).
 */

package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds service configuration.
type Config struct {
	// HTTP server
	Port string

	// PostgreSQL configuration
	DatabaseURL string

	// Redis configuration (task queue + extraction status cache)
	RedisURL string

	// OCR configuration
	OCRLanguages  string // "+"-separated tesseract language codes, e.g. "heb+eng"
	MinImageWidth int    // preprocessor upscales narrower images to this width

	// Upload constraints
	MaxUploadBytes int64

	// Worker configuration
	WorkerConcurrency int

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnvOrDefault("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		OCRLanguages:      getEnvOrDefault("OCR_LANGUAGES", "heb+eng"),
		MinImageWidth:     getEnvAsIntOrDefault("MIN_IMAGE_WIDTH", 3000),
		MaxUploadBytes:    getEnvAsInt64OrDefault("MAX_UPLOAD_BYTES", 5*1024*1024),
		WorkerConcurrency: getEnvAsIntOrDefault("WORKER_CONCURRENCY", 1),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.OCRLanguages == "" {
		return fmt.Errorf("OCR_LANGUAGES must not be empty")
	}

	if c.MinImageWidth < 100 || c.MinImageWidth > 10000 {
		return fmt.Errorf("MIN_IMAGE_WIDTH must be between 100 and 10000, got %d", c.MinImageWidth)
	}

	if c.MaxUploadBytes < 1024 || c.MaxUploadBytes > 64*1024*1024 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be between 1KB and 64MB, got %d", c.MaxUploadBytes)
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 32 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 32, got %d", c.WorkerConcurrency)
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default.
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsInt64OrDefault gets environment variable as int64 or returns default.
func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
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
