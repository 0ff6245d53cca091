// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/footprint/config.yaml",
	"/etc/footprint/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvPathEnvVar overrides the .env file read before the environment layer.
const DotEnvPathEnvVar = "DOTENV_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "/data/footprint.duckdb",
			MaxMemory: "2GB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Server: ServerConfig{
			Port:            3857,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			PreviewTimeout:  5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Visits: VisitsConfig{
			StrictRadiusMeters:       50,
			TierMultiplier:           50,
			MinConfirmedHits:         3,
			MinSuggestedHits:         5,
			ConfidenceSaturationHits: 10,
			ChunkSize:                500,
			MaxQueryParams:           65535,
			Workers:                  4,
			QueriesPerSecond:         0, // Unlimited
			MaxAccuracyMeters:        0, // Keep all pings
			EstimatePlacesPerSecond:  25,
			EstimatePingsPerSecond:   50000,
			InfoCacheTTL:             30 * time.Second,
		},
		PingStore: PingStoreConfig{
			BreakerEnabled:          true,
			BreakerFailureThreshold: 5,
			BreakerTimeout:          30 * time.Second,
			BreakerInterval:         time.Minute,
		},
		Jobs: JobsConfig{
			Enabled:   true,
			Path:      "", // In-memory unless configured
			Workers:   2,
			QueueSize: 16,
			ResultTTL: time.Hour,
		},
		Audit: AuditConfig{
			Enabled:         true,
			Retention:       90 * 24 * time.Hour,
			CleanupInterval: 24 * time.Hour,
		},
		Security: SecurityConfig{
			CORSOrigins:          []string{"*"},
			RateLimitReqs:        100,
			RateLimitWindow:      time.Minute,
			RateLimitDisabled:    false,
			PreviewRateLimitReqs: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// A .env file, when present, is merged into the process environment first.
// Variables already set in the environment win over the file.
func LoadWithKoanf() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// VISITS_TIER_MULTIPLIER -> visits.tier_multiplier
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads $DOTENV_PATH or ./.env. A missing default file is not an
// error; a missing explicit one is.
func loadDotEnv() error {
	path := os.Getenv(DotEnvPathEnvVar)
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return fmt.Errorf("dotenv file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load dotenv file %s: %w", path, err)
	}
	return nil
}

// findConfigFile returns the first config file found, or "" if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML file or defaults)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Database mappings
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	// Server mappings
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_timeout":          "server.timeout",
	"http_preview_timeout":  "server.preview_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	// Visit inference mappings
	"visits_strict_radius_meters":       "visits.strict_radius_meters",
	"visits_tier_multiplier":            "visits.tier_multiplier",
	"visits_min_confirmed_hits":         "visits.min_confirmed_hits",
	"visits_min_suggested_hits":         "visits.min_suggested_hits",
	"visits_confidence_saturation_hits": "visits.confidence_saturation_hits",
	"visits_chunk_size":                 "visits.chunk_size",
	"visits_max_query_params":           "visits.max_query_params",
	"visits_workers":                    "visits.workers",
	"visits_queries_per_second":         "visits.queries_per_second",
	"visits_max_accuracy_meters":        "visits.max_accuracy_meters",
	"visits_estimate_places_per_second": "visits.estimate_places_per_second",
	"visits_estimate_pings_per_second":  "visits.estimate_pings_per_second",
	"visits_info_cache_ttl":             "visits.info_cache_ttl",

	// Ping store circuit breaker
	"ping_store_breaker_enabled":   "ping_store.breaker_enabled",
	"ping_store_breaker_threshold": "ping_store.breaker_failure_threshold",
	"ping_store_breaker_timeout":   "ping_store.breaker_timeout",
	"ping_store_breaker_interval":  "ping_store.breaker_interval",

	// Async preview jobs
	"jobs_enabled":    "jobs.enabled",
	"jobs_path":       "jobs.path",
	"jobs_workers":    "jobs.workers",
	"jobs_queue_size": "jobs.queue_size",
	"jobs_result_ttl": "jobs.result_ttl",

	// Apply history
	"audit_enabled":          "audit.enabled",
	"audit_retention":        "audit.retention",
	"audit_cleanup_interval": "audit.cleanup_interval",

	// Security mappings
	"cors_origins":                "security.cors_origins",
	"rate_limit_requests":         "security.rate_limit_reqs",
	"rate_limit_window":           "security.rate_limit_window",
	"disable_rate_limit":          "security.rate_limit_disabled",
	"preview_rate_limit_requests": "security.preview_rate_limit_reqs",

	// Logging mappings
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
//   - VISITS_TIER_MULTIPLIER -> visits.tier_multiplier
//   - JOBS_RESULT_TTL -> jobs.result_ttl
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// Unmapped keys are skipped so random environment variables
	// cannot pollute the config.
	return ""
}
