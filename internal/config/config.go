// Package config loads the relay's runtime settings from the environment and
// an optional dotenv file, applying defaults for anything unset or invalid.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// DefaultFile is the dotenv file read when CONFIG_FILE is not set.
const DefaultFile = "config.env"

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int           `env:"RATE_LIMIT_BURST" default:"5"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" default:"1s"`
}

// Config holds the server configuration settings.
type Config struct {
	Port            string        `env:"PORT" default:"8000"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" default:"*"`
	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE" default:"512"`
	SendBufferSize  int           `env:"SEND_BUFFER_SIZE" default:"256"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
	LogLevel        string        `env:"LOG_LEVEL" default:"info"`
	LogFormat       string        `env:"LOG_FORMAT" default:"console"`
	RateLimit       RateLimitConfig
}

func defaultConfig() Config {
	return Config{
		Port:            "8000",
		AllowedOrigins:  []string{"*"},
		MaxMessageSize:  512,
		SendBufferSize:  256,
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
		LogFormat:       "console",
		RateLimit: RateLimitConfig{
			Burst:          5,
			RefillInterval: time.Second,
		},
	}
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// Load reads the dotenv file at path (DefaultFile when empty) into the
// process environment and decodes the environment into a Config. A missing
// file is not an error; variables already set in the environment win.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return NewConfigFromEnv()
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Non-positive numeric values fall back to their defaults.
func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := env.Load(&cfg, &env.Options{SliceSep: ","}); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	sanitized := Sanitize(cfg)
	return &sanitized, nil
}

// FileFromEnv returns the dotenv path named by CONFIG_FILE, if any.
func FileFromEnv() string {
	return os.Getenv("CONFIG_FILE")
}

// Sanitize replaces unusable values with defaults and trims origin entries.
func Sanitize(cfg Config) Config {
	defaults := defaultConfig()

	cfg.Port = strings.TrimPrefix(strings.TrimSpace(cfg.Port), ":")
	if cfg.Port == "" {
		cfg.Port = defaults.Port
	}

	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaults.MaxMessageSize
	}

	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = defaults.SendBufferSize
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}

	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = defaults.RateLimit.Burst
	}

	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = defaults.RateLimit.RefillInterval
	}

	cfg.AllowedOrigins = parseOrigins(cfg.AllowedOrigins)
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = defaults.AllowedOrigins
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	return cfg
}

// Addr returns the listen address for the configured port.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func parseOrigins(origins []string) []string {
	parsed := make([]string, 0, len(origins))
	for _, origin := range origins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			parsed = append(parsed, trimmed)
		}
	}
	return parsed
}
