package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the render host
type Config struct {
	Environment string `validate:"required,oneof=development staging production"`
	Port        string `validate:"required"`
	Site        SiteConfig
	Host        HostConfig
	Content     ContentConfig
	RateLimit   RateLimitConfig
}

// SiteConfig holds built-site configuration
type SiteConfig struct {
	// OutputName selects which build artifact directory the server expects,
	// matching the name the client build was invoked with.
	OutputName string `validate:"required"`
	Root       string `validate:"required"`
	Title      string
}

// HostConfig holds serverless host integration configuration
type HostConfig struct {
	// MaxResponseBytes is the host's buffered response payload limit.
	MaxResponseBytes int `validate:"gt=0"`
	// ResponseStreaming enables streamed responses where the integration
	// supports them. Negotiated at startup, never per request.
	ResponseStreaming bool
}

// ContentConfig holds content database configuration
type ContentConfig struct {
	DatabasePath   string `validate:"required"`
	MigrationsPath string
	MaxOpenConns   int `validate:"gt=0"`
	MaxIdleConns   int `validate:"gte=0"`
}

// RateLimitConfig holds dev-server rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64 `validate:"gt=0"`
	Burst             int     `validate:"gt=0"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Set up Viper
	viper.AutomaticEnv()
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("OUTPUT_NAME", "site")
	viper.SetDefault("SITE_ROOT", "./site")
	viper.SetDefault("SITE_TITLE", "Render Host")
	viper.SetDefault("MAX_RESPONSE_BYTES", 6*1024*1024)
	viper.SetDefault("RESPONSE_STREAMING", false)
	viper.SetDefault("CONTENT_DB_PATH", "./data/content.db")
	viper.SetDefault("CONTENT_MIGRATIONS_PATH", "./migrations")
	viper.SetDefault("CONTENT_MAX_OPEN_CONNS", 4)
	viper.SetDefault("CONTENT_MAX_IDLE_CONNS", 2)
	viper.SetDefault("RATE_LIMIT_RPS", 50.0)
	viper.SetDefault("RATE_LIMIT_BURST", 100)

	config := &Config{
		Environment: viper.GetString("ENVIRONMENT"),
		Port:        viper.GetString("PORT"),
		Site: SiteConfig{
			OutputName: viper.GetString("OUTPUT_NAME"),
			Root:       viper.GetString("SITE_ROOT"),
			Title:      viper.GetString("SITE_TITLE"),
		},
		Host: HostConfig{
			MaxResponseBytes:  viper.GetInt("MAX_RESPONSE_BYTES"),
			ResponseStreaming: viper.GetBool("RESPONSE_STREAMING"),
		},
		Content: ContentConfig{
			DatabasePath:   viper.GetString("CONTENT_DB_PATH"),
			MigrationsPath: viper.GetString("CONTENT_MIGRATIONS_PATH"),
			MaxOpenConns:   viper.GetInt("CONTENT_MAX_OPEN_CONNS"),
			MaxIdleConns:   viper.GetInt("CONTENT_MAX_IDLE_CONNS"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             viper.GetInt("RATE_LIMIT_BURST"),
		},
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvAsInt gets an environment variable as integer with a fallback value
func GetEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

