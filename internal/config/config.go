// Package config provides configuration handling for the fundsim binaries.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the server and market-data configuration, loaded from
// FUNDSIM_* environment variables.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"FUNDSIM_ADDR" envDefault:":8080"`

	// LogLevel sets the zap logging level (debug, info, warn, error).
	LogLevel string `env:"FUNDSIM_LOG_LEVEL" envDefault:"info"`

	// AllowedOrigins lists CORS origins, comma separated.
	AllowedOrigins []string `env:"FUNDSIM_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Workers is the goroutine fan-out for simulation trials.
	Workers int `env:"FUNDSIM_WORKERS" envDefault:"4"`

	// MaxTrials caps the trial count a single request may ask for.
	// Simulation cost is linear in trials, so this bounds request work.
	MaxTrials int `env:"FUNDSIM_MAX_TRIALS" envDefault:"100000"`

	// MaxTargets caps the target list length for sensitivity analysis;
	// every target fans out into hundreds of full re-simulations.
	MaxTargets int `env:"FUNDSIM_MAX_TARGETS" envDefault:"16"`

	// RateRPS and RateBurst throttle requests per client IP.
	RateRPS   float64 `env:"FUNDSIM_RATE_RPS" envDefault:"5"`
	RateBurst int     `env:"FUNDSIM_RATE_BURST" envDefault:"10"`

	// ShutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `env:"FUNDSIM_SHUTDOWN_TIMEOUT" envDefault:"5s"`

	// MarketDataURL overrides the macro indicator service base URL.
	MarketDataURL string `env:"FUNDSIM_MARKETDATA_URL"`

	// MarketDataTTL is how long fetched indicators stay cached.
	MarketDataTTL time.Duration `env:"FUNDSIM_MARKETDATA_TTL" envDefault:"15m"`

	// RedisAddr switches the indicator cache to Redis when set;
	// empty keeps the in-process cache.
	RedisAddr string `env:"FUNDSIM_REDIS_ADDR"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("config: FUNDSIM_ADDR must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: FUNDSIM_WORKERS must be at least 1, got %d", c.Workers)
	}
	if c.MaxTrials < 1 {
		return fmt.Errorf("config: FUNDSIM_MAX_TRIALS must be at least 1, got %d", c.MaxTrials)
	}
	if c.MaxTargets < 1 {
		return fmt.Errorf("config: FUNDSIM_MAX_TARGETS must be at least 1, got %d", c.MaxTargets)
	}
	if c.RateRPS <= 0 {
		return fmt.Errorf("config: FUNDSIM_RATE_RPS must be positive, got %g", c.RateRPS)
	}
	if c.RateBurst < 1 {
		return fmt.Errorf("config: FUNDSIM_RATE_BURST must be at least 1, got %d", c.RateBurst)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("config: FUNDSIM_SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}
	if c.MarketDataTTL <= 0 {
		return fmt.Errorf("config: FUNDSIM_MARKETDATA_TTL must be positive, got %s", c.MarketDataTTL)
	}
	return nil
}

// String returns a safe single-line representation for startup logs.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Addr:%s, LogLevel:%s, Origins:%s, Workers:%d, MaxTrials:%d, MaxTargets:%d, Rate:%g/%d, Redis:%t}",
		c.Addr, c.LogLevel, strings.Join(c.AllowedOrigins, "|"),
		c.Workers, c.MaxTrials, c.MaxTargets,
		c.RateRPS, c.RateBurst, c.RedisAddr != "",
	)
}
