// Package config manages environment variables.
//
// It reads variables from the environment (and a `.env` file when present),
// loads them into structured Go types and validates that required values are
// present so the service fails fast on bad or missing configuration.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values.
//   - Provide defaults for optional blocks (images, rate limit, observability).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads `.env` into the process environment before
	// anything reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix every variable read by Load must carry.
//
// Nesting levels are separated by a double underscore:
//
//	TOURS_SERVER__PORT            -> server.port
//	TOURS_DATABASE__URI           -> database.uri
//	TOURS_OBSERVABILITY__LOGGING__LEVEL -> observability.logging.level
const EnvPrefix = "TOURS_"

// Config is the root configuration object for the application.
//
// Images, RateLimit and Observability are optional; Load seeds them with
// defaults before reading the environment.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Images        *ImagesConfig        `koanf:"images"`
	RateLimit     *RateLimitConfig     `koanf:"rate_limit"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are expressed in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
}

// DatabaseConfig contains the MongoDB connection string and pool tuning.
type DatabaseConfig struct {
	URI             string        `koanf:"uri" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	MaxPoolSize     uint64        `koanf:"max_pool_size"`
	MinPoolSize     uint64        `koanf:"min_pool_size"`
	MaxConnIdleTime time.Duration `koanf:"max_conn_idle_time"`
}

// RedisConfig contains Redis connection details.
// Address is "host:port".
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// AuthConfig stores the Clerk secret key.
type AuthConfig struct {
	SecretKey string `koanf:"secret_key" validate:"required"`
}

// ImagesConfig controls where uploaded tour images go and how they are resized.
type ImagesConfig struct {
	Dir           string `koanf:"dir" validate:"required"`
	Width         int    `koanf:"width" validate:"min=1"`
	Height        int    `koanf:"height" validate:"min=1"`
	Quality       int    `koanf:"quality" validate:"min=1,max=100"`
	MaxUploadSize string `koanf:"max_upload_size" validate:"required"`
}

// DefaultImagesConfig returns the public images directory and the 3:2
// 2000x1333 JPEG q90 output used for every tour image.
func DefaultImagesConfig() *ImagesConfig {
	return &ImagesConfig{
		Dir:           "public/img/tours",
		Width:         2000,
		Height:        1333,
		Quality:       90,
		MaxUploadSize: "10M",
	}
}

// RateLimitConfig is a fixed window limit per client IP.
type RateLimitConfig struct {
	Requests int           `koanf:"requests" validate:"min=1"`
	Window   time.Duration `koanf:"window" validate:"min=1s"`
}

// DefaultRateLimitConfig allows 100 requests per hour.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Requests: 100,
		Window:   time.Hour,
	}
}

// IsLocal reports whether the service runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.Primary.Env == "local"
}

// keyFromEnv turns TOURS_SERVER__READ_TIMEOUT into server.read_timeout.
func keyFromEnv(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Load reads the environment, unmarshals it into Config, validates it and
// fills in defaults for the optional blocks.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider(EnvPrefix, ".", keyFromEnv), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	// Optional blocks start from their defaults; variables that are present
	// override single fields.
	cfg := &Config{
		Images:        DefaultImagesConfig(),
		RateLimit:     DefaultRateLimitConfig(),
		Observability: DefaultObservabilityConfig(),
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	// Service name and environment always follow the primary config so logs
	// and traces are tagged consistently.
	cfg.Observability.ServiceName = "tours"
	cfg.Observability.Environment = cfg.Primary.Env

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := cfg.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return cfg, nil
}
