// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from defaults, an optional
// YAML file and environment variables (in that order of precedence, lowest first).
//
// Configuration Categories:
//
//  1. Infrastructure:
//     - Database: DuckDB file, memory and thread limits
//     - Server: HTTP listener
//
//  2. Visit inference:
//     - Visits: radii, tier multiplier, hit thresholds, chunking and worker pool
//     - PingStore: circuit breaker around ping range queries
//     - Jobs: asynchronous preview runner and its BadgerDB result store
//
//  3. API & Observability:
//     - Security: CORS and rate limiting
//     - Logging: levels and output formats
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	Visits    VisitsConfig    `koanf:"visits"`
	PingStore PingStoreConfig `koanf:"ping_store"`
	Jobs      JobsConfig      `koanf:"jobs"`
	Audit     AuditConfig     `koanf:"audit"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`          // read timeout
	PreviewTimeout  time.Duration `koanf:"preview_timeout"`  // write timeout; previews can scan for minutes
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"` // graceful shutdown budget
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// VisitsConfig tunes the visit inference engine.
type VisitsConfig struct {
	// StrictRadiusMeters is the tier-1 radius around a place.
	StrictRadiusMeters float64 `koanf:"strict_radius_meters"`

	// TierMultiplier scales the strict radius into the outer evidence radius.
	// Valid range 2-100, default 50.
	TierMultiplier float64 `koanf:"tier_multiplier"`

	MinConfirmedHits         int `koanf:"min_confirmed_hits"`
	MinSuggestedHits         int `koanf:"min_suggested_hits"`
	ConfidenceSaturationHits int `koanf:"confidence_saturation_hits"`

	// ChunkSize caps places per chunk; MaxQueryParams caps bound parameters
	// per range query and may shrink the effective chunk size further.
	ChunkSize      int `koanf:"chunk_size"`
	MaxQueryParams int `koanf:"max_query_params"`
	Workers        int `koanf:"workers"`

	// QueriesPerSecond throttles ping store range queries (0 = unlimited).
	QueriesPerSecond float64 `koanf:"queries_per_second"`

	// MaxAccuracyMeters discards pings with a worse reported accuracy (0 = keep all).
	MaxAccuracyMeters float64 `koanf:"max_accuracy_meters"`

	EstimatePlacesPerSecond float64 `koanf:"estimate_places_per_second"`
	EstimatePingsPerSecond  float64 `koanf:"estimate_pings_per_second"`

	// InfoCacheTTL bounds how long an info/estimate response is reused.
	InfoCacheTTL time.Duration `koanf:"info_cache_ttl"`
}

// PingStoreConfig configures the circuit breaker around ping range queries.
type PingStoreConfig struct {
	BreakerEnabled          bool          `koanf:"breaker_enabled"`
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
	BreakerInterval         time.Duration `koanf:"breaker_interval"`
}

// JobsConfig configures asynchronous preview jobs.
type JobsConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Path      string        `koanf:"path"` // BadgerDB directory; empty = in-memory
	Workers   int           `koanf:"workers"`
	QueueSize int           `koanf:"queue_size"`
	ResultTTL time.Duration `koanf:"result_ttl"`
}

// AuditConfig configures the backfill apply history.
type AuditConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Retention       time.Duration `koanf:"retention"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// PreviewRateLimitReqs applies to preview and job submission, which are
	// far more expensive than the rest of the API.
	PreviewRateLimitReqs int `koanf:"preview_rate_limit_reqs"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json (production) or console (development).
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// Load loads configuration using Koanf: defaults, then config file, then env vars.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
