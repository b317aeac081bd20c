package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Supported session backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port           string        `env:"PORT" envDefault:"3000"`
	DatabaseDriver string        `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	SessionSecret  string        `env:"SESSION_SECRET"`
	SessionIssuer  string        `env:"SESSION_ISSUER" envDefault:"herodex"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionBackend string        `env:"SESSION_BACKEND" envDefault:"memory"`
	RedisURL       string        `env:"REDIS_URL"`
	CookieSecure   bool          `env:"COOKIE_SECURE" envDefault:"false"`

	SuperheroAPIKey     string        `env:"SUPERHERO_API_KEY"`
	SuperheroBaseURL    string        `env:"SUPERHERO_API_BASE_URL" envDefault:"https://superheroapi.com/api"`
	SuperheroTimeout    time.Duration `env:"SUPERHERO_TIMEOUT" envDefault:"10s"`
	SuperheroMaxRetries int           `env:"SUPERHERO_MAX_RETRIES" envDefault:"2"`

	PageSize     int    `env:"PAGE_SIZE" envDefault:"20"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"text"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads configuration from the environment and validates it for the server.
func Load() (Config, error) {
	cfg, err := Parse()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse reads configuration from the environment without validating it.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.Port = strings.TrimSpace(c.Port)
	c.DatabaseDriver = strings.ToLower(strings.TrimSpace(c.DatabaseDriver))
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.SessionSecret = strings.TrimSpace(c.SessionSecret)
	c.SessionBackend = strings.ToLower(strings.TrimSpace(c.SessionBackend))
	c.RedisURL = strings.TrimSpace(c.RedisURL)
	c.SuperheroAPIKey = strings.TrimSpace(c.SuperheroAPIKey)
	c.SuperheroBaseURL = strings.TrimRight(strings.TrimSpace(c.SuperheroBaseURL), "/")
}

// ValidateStorage checks only what the seeding command needs: a database and a
// provider key.
func (c Config) ValidateStorage() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s driver", c.DatabaseDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.SuperheroAPIKey == "" {
		return errors.New("SUPERHERO_API_KEY is required")
	}
	if c.SuperheroMaxRetries < 0 {
		return errors.New("SUPERHERO_MAX_RETRIES must not be negative")
	}
	return nil
}

// Validate reports the first missing or inconsistent setting.
func (c Config) Validate() error {
	if err := c.ValidateStorage(); err != nil {
		return err
	}
	switch c.SessionBackend {
	case SessionRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis session backend")
		}
	case SessionMemory:
	default:
		return fmt.Errorf("unsupported SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.PageSize <= 0 {
		return errors.New("PAGE_SIZE must be positive")
	}
	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}
