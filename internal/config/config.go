// Package config loads runtime configuration from the environment,
// with optional .env file support.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults for optional settings.
const (
	DefaultRateLimit = 8
	DefaultPerPage   = 100
)

// Config holds all startup configuration. Values are fixed for the
// lifetime of a run; there is no mid-run reconfiguration.
type Config struct {
	// Endpoint is the API base URL, e.g. "https://api.intra.42.fr/v2".
	Endpoint string

	// TokenURL is the OAuth2 token endpoint.
	TokenURL string

	// ClientID / ClientSecret / Scope are the client-credentials grant
	// parameters.
	ClientID     string
	ClientSecret string
	Scope        string

	// RateLimit is the maximum number of requests per second.
	RateLimit int

	// PerPage is the page size for paginated requests.
	PerPage int

	// RedisURL enables the page cache when set, e.g. "localhost:6379".
	RedisURL string

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in first when present; real environment
// variables win over file values.
func Load() (Config, error) {
	// Missing .env is fine; the environment alone may be complete.
	_ = godotenv.Load()

	cfg := Config{
		Endpoint:     os.Getenv("ENDPOINT"),
		TokenURL:     os.Getenv("TOKEN_URL"),
		ClientID:     os.Getenv("INTRA_UID"),
		ClientSecret: os.Getenv("INTRA_SECRET"),
		Scope:        os.Getenv("INTRA_SCOPE"),
		RedisURL:     os.Getenv("REDIS_URL"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	var err error
	cfg.RateLimit, err = getEnvInt("RATE_LIMIT", DefaultRateLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.PerPage, err = getEnvInt("PER_PAGE", DefaultPerPage)
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that everything a fetch run needs is present.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("ENDPOINT is required")
	}
	if c.TokenURL == "" {
		return fmt.Errorf("TOKEN_URL is required")
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("INTRA_UID and INTRA_SECRET are required")
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT must be positive (got %d)", c.RateLimit)
	}
	if c.PerPage <= 0 {
		return fmt.Errorf("PER_PAGE must be positive (got %d)", c.PerPage)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
