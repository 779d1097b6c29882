// Package config defines service configuration and its loading.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Dedupe backends.
const (
	DedupeMemory = "memory"
	DedupeRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DatabaseDriver is "sqlite" or "postgres"; DatabaseDSN is passed to it.
	DatabaseDriver string `koanf:"database_driver"`
	DatabaseDSN    string `koanf:"database_dsn"`

	// QueueSize bounds the in-memory recompute queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of recompute workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize caps the in-memory set of pending recompute keys.
	DedupeSize int `koanf:"dedupe_size"`

	// DedupeBackend selects "memory" or "redis" for pending-request coalescing.
	DedupeBackend string `koanf:"dedupe_backend"`
	RedisAddr     string `koanf:"redis_addr"`
	DedupeTTLSec  int    `koanf:"dedupe_ttl_sec"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// RecomputeIntervalSec schedules a recompute of every athlete; 0 disables it.
	RecomputeIntervalSec int `koanf:"recompute_interval_sec"`

	// ShutdownTimeoutSec bounds graceful shutdown.
	ShutdownTimeoutSec int `koanf:"shutdown_timeout_sec"`

	// Weight overrides merged over the compiled-in tables.
	TierWeights      map[string]float64 `koanf:"tier_weights"`
	PositionWeights  map[string]float64 `koanf:"position_weights"`
	PitchTypeWeights map[string]float64 `koanf:"pitch_type_weights"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		DatabaseDriver:       DriverSQLite,
		DatabaseDSN:          "prospect.db",
		QueueSize:            10_000,
		WorkerCount:          runtime.NumCPU() * 2,
		DedupeSize:           50_000,
		DedupeBackend:        DedupeMemory,
		RedisAddr:            "localhost:6379",
		DedupeTTLSec:         600,
		MaxLeaderboardLimit:  100,
		RecomputeIntervalSec: 3600,
		ShutdownTimeoutSec:   30,
	}
}

// RecomputeInterval returns the sweep interval; zero disables the sweep.
func (c *Config) RecomputeInterval() time.Duration {
	return time.Duration(c.RecomputeIntervalSec) * time.Second
}

// DedupeTTL returns how long a Redis dedupe key may outlive its request.
func (c *Config) DedupeTTL() time.Duration {
	return time.Duration(c.DedupeTTLSec) * time.Second
}

// ShutdownTimeout returns the graceful shutdown bound.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSec) * time.Second
}

// Validate normalizes enumerated fields and rejects unusable values.
func (c *Config) Validate() error {
	c.DatabaseDriver = strings.ToLower(strings.TrimSpace(c.DatabaseDriver))
	c.DedupeBackend = strings.ToLower(strings.TrimSpace(c.DedupeBackend))

	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DatabaseDriver != DriverSQLite && c.DatabaseDriver != DriverPostgres:
		return fmt.Errorf("%w: unknown database_driver %q", ErrInvalidConfig, c.DatabaseDriver)
	case strings.TrimSpace(c.DatabaseDSN) == "":
		return fmt.Errorf("%w: database_dsn must not be empty", ErrInvalidConfig)
	case c.DedupeBackend != DedupeMemory && c.DedupeBackend != DedupeRedis:
		return fmt.Errorf("%w: unknown dedupe_backend %q", ErrInvalidConfig, c.DedupeBackend)
	case c.DedupeBackend == DedupeRedis && strings.TrimSpace(c.RedisAddr) == "":
		return fmt.Errorf("%w: redis_addr is required for the redis dedupe backend", ErrInvalidConfig)
	case c.QueueSize < 1, c.WorkerCount < 1, c.DedupeSize < 1, c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: queue_size, worker_count, dedupe_size and max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.RecomputeIntervalSec < 0:
		return fmt.Errorf("%w: recompute_interval_sec must not be negative", ErrInvalidConfig)
	}
	return nil
}
