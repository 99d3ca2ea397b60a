// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package config

import (
	"time"

	"github.com/tomtom215/tunegate/internal/acquisition"
	"github.com/tomtom215/tunegate/internal/limiter"
	"github.com/tomtom215/tunegate/internal/logging"
	"github.com/tomtom215/tunegate/internal/quality"
	"github.com/tomtom215/tunegate/internal/store"
)

// Config is the complete process configuration.
type Config struct {
	Logging  LoggingConfig            `koanf:"logging"`
	Server   ServerConfig             `koanf:"server"`
	Store    StoreConfig              `koanf:"store"`
	Services map[string]ServiceConfig `koanf:"services" validate:"required,min=1,dive,keys,service_id,endkeys"`
	Breaker  BreakerConfig            `koanf:"breaker"`
	Events   EventsConfig             `koanf:"events"`
	Profiles ProfilesConfig           `koanf:"profiles"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"required"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// ServerConfig holds the diagnostics HTTP server settings.
type ServerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`

	// RateLimitRequests per RateLimitWindow per client IP; zero disables.
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gte=0"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// StoreConfig selects the profile store backend.
type StoreConfig struct {
	Type     string `koanf:"type" validate:"oneof=memory badger"`
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// ServiceConfig holds the limiter parameters of one external service.
type ServiceConfig struct {
	Capacity        int     `koanf:"capacity" validate:"gte=1"`
	RefillPerSecond float64 `koanf:"refill_per_second" validate:"gt=0"`

	MaxRetries        int           `koanf:"max_retries" validate:"gte=0,lte=20"`
	BaseDelay         time.Duration `koanf:"base_delay" validate:"gte=0"`
	MaxDelay          time.Duration `koanf:"max_delay" validate:"gte=0"`
	BackendRetryDelay time.Duration `koanf:"backend_retry_delay" validate:"gte=0"`

	// AcquireTimeout bounds each token wait; zero waits until the caller's
	// context ends.
	AcquireTimeout time.Duration `koanf:"acquire_timeout" validate:"gte=0"`
}

// BreakerConfig configures the per-service circuit breakers.
type BreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MaxRequests  uint32        `koanf:"max_requests" validate:"gte=1"`
	Interval     time.Duration `koanf:"interval" validate:"gte=0"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio" validate:"gt=0,lte=1"`
}

// EventsConfig configures in-process result events.
type EventsConfig struct {
	Enabled bool  `koanf:"enabled"`
	Buffer  int64 `koanf:"buffer" validate:"gte=0"`
}

// ProfilesConfig controls which quality profiles exist at startup.
type ProfilesConfig struct {
	// SeedPresets stores the named presets that are not in the store yet.
	SeedPresets bool     `koanf:"seed_presets"`
	Presets     []string `koanf:"presets"`

	// Definitions are upserted into the store on every start.
	Definitions []quality.ProfileDocument `koanf:"definitions"`
}

func defaultService(capacity int, refill float64) ServiceConfig {
	p := limiter.DefaultRetryPolicy()
	return ServiceConfig{
		Capacity:          capacity,
		RefillPerSecond:   refill,
		MaxRetries:        p.MaxRetries,
		BaseDelay:         p.BaseDelay,
		MaxDelay:          p.MaxDelay,
		BackendRetryDelay: p.BackendRetryDelay,
	}
}

// defaultConfig returns the built-in defaults, overridden by file and env.
func defaultConfig() *Config {
	breaker := acquisition.DefaultBreakerConfig()
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Enabled:           true,
			Host:              "0.0.0.0",
			Port:              8686,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Store: StoreConfig{
			Type: string(store.TypeBadger),
			Path: "/data/tunegate",
		},
		Services: map[string]ServiceConfig{
			"spotify":     defaultService(10, 2),
			"deezer":      defaultService(10, 2),
			"musicbrainz": defaultService(1, 1),
		},
		Breaker: BreakerConfig{
			Enabled:      true,
			MaxRequests:  breaker.MaxRequests,
			Interval:     breaker.Interval,
			Timeout:      breaker.Timeout,
			MinRequests:  breaker.MinRequests,
			FailureRatio: breaker.FailureRatio,
		},
		Events: EventsConfig{
			Enabled: true,
			Buffer:  256,
		},
		Profiles: ProfilesConfig{
			SeedPresets: true,
			Presets:     quality.PresetNames(),
		},
	}
}

// LimiterConfigs converts the services section for limiter.NewRegistry.
func (c *Config) LimiterConfigs() map[string]limiter.Config {
	out := make(map[string]limiter.Config, len(c.Services))
	for name, s := range c.Services {
		out[name] = limiter.Config{
			Capacity:        s.Capacity,
			RefillPerSecond: s.RefillPerSecond,
			Retry: limiter.RetryPolicy{
				MaxRetries:        s.MaxRetries,
				BaseDelay:         s.BaseDelay,
				MaxDelay:          s.MaxDelay,
				BackendRetryDelay: s.BackendRetryDelay,
				AcquireTimeout:    s.AcquireTimeout,
			},
		}
	}
	return out
}

// BreakerSettings converts the breaker section.
func (c *Config) BreakerSettings() acquisition.BreakerConfig {
	return acquisition.BreakerConfig{
		MaxRequests:  c.Breaker.MaxRequests,
		Interval:     c.Breaker.Interval,
		Timeout:      c.Breaker.Timeout,
		MinRequests:  c.Breaker.MinRequests,
		FailureRatio: c.Breaker.FailureRatio,
	}
}

// StoreOptions converts the store section.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Type:     store.Type(c.Store.Type),
		Path:     c.Store.Path,
		InMemory: c.Store.InMemory,
	}
}

// LoggingOptions converts the logging section. Output stays at its default.
func (c *Config) LoggingOptions() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.Format = c.Logging.Format
	cfg.Caller = c.Logging.Caller
	return cfg
}
