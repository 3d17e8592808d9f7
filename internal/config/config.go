package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the persona service.
// Environment variables are parsed from the PERSONA_BACKEND_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Persistence. DBDriver selects postgres or sqlite; sqlite is the
	// local/dev default and needs no DSN.
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"persona.db"`

	// Trait extraction scorer. Empty URL disables extraction; interviews
	// still run but produce no traits.
	ExtractorURL            string  `envconfig:"EXTRACTOR_URL" default:""`
	ExtractorTimeoutSeconds int     `envconfig:"EXTRACTOR_TIMEOUT_SECONDS" default:"10"`
	TraitAcceptThreshold    float64 `envconfig:"TRAIT_ACCEPT_THRESHOLD" default:"0.5"`

	// Context assembly
	ContextMaxEntries int `envconfig:"CONTEXT_MAX_ENTRIES" default:"50"`

	// Health checking
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"5"`
}

// Validate checks cross-field constraints that envconfig cannot express.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN required when DB_DRIVER=postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH required when DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.TraitAcceptThreshold < 0 || c.TraitAcceptThreshold > 1 {
		return fmt.Errorf("TRAIT_ACCEPT_THRESHOLD must be in [0,1], got %g", c.TraitAcceptThreshold)
	}
	if c.ContextMaxEntries <= 0 {
		return fmt.Errorf("CONTEXT_MAX_ENTRIES must be positive")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Example: PERSONA_BACKEND_HTTP_PORT, PERSONA_BACKEND_DB_DRIVER
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("PERSONA_BACKEND", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Bool("extractor_configured", cfg.ExtractorURL != "").
		Float64("trait_accept_threshold", cfg.TraitAcceptThreshold).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing: in-memory sqlite,
// no extractor.
func NewForTesting() *Config {
	return &Config{
		Environment:               EnvTesting,
		HTTPPort:                  8080,
		DBDriver:                  "sqlite",
		SQLitePath:                ":memory:",
		TraitAcceptThreshold:      0.5,
		ContextMaxEntries:         50,
		HealthIntervalSeconds:     30,
		HealthProbeTimeoutSeconds: 5,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// ExtractorTimeout returns the scorer call timeout as a duration.
func (c *Config) ExtractorTimeout() time.Duration {
	return time.Duration(c.ExtractorTimeoutSeconds) * time.Second
}
