// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package config

import (
	"fmt"
	"time"
)

// Tier multiplier bounds. The outer evidence radius is StrictRadius * multiplier.
const (
	MinTierMultiplier = 2
	MaxTierMultiplier = 100
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateVisits(); err != nil {
		return err
	}

	if err := c.validatePingStore(); err != nil {
		return err
	}

	if err := c.validateJobs(); err != nil {
		return err
	}

	if err := c.validateAudit(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be non-negative")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.PreviewTimeout < c.Server.Timeout {
		return fmt.Errorf("HTTP_PREVIEW_TIMEOUT must be at least HTTP_TIMEOUT")
	}
	return nil
}

// validateVisits validates the inference tuning. Radii and thresholds that
// would make every ping (or no ping) count are rejected up front.
func (c *Config) validateVisits() error {
	v := c.Visits
	if v.StrictRadiusMeters <= 0 {
		return fmt.Errorf("VISITS_STRICT_RADIUS_METERS must be positive")
	}
	if v.TierMultiplier < MinTierMultiplier || v.TierMultiplier > MaxTierMultiplier {
		return fmt.Errorf("VISITS_TIER_MULTIPLIER must be between %d and %d", MinTierMultiplier, MaxTierMultiplier)
	}
	if v.MinConfirmedHits < 1 {
		return fmt.Errorf("VISITS_MIN_CONFIRMED_HITS must be at least 1")
	}
	if v.MinSuggestedHits < 1 {
		return fmt.Errorf("VISITS_MIN_SUGGESTED_HITS must be at least 1")
	}
	if v.ConfidenceSaturationHits < 1 {
		return fmt.Errorf("VISITS_CONFIDENCE_SATURATION_HITS must be at least 1")
	}
	if err := c.validateVisitsChunking(); err != nil {
		return err
	}
	if v.QueriesPerSecond < 0 {
		return fmt.Errorf("VISITS_QUERIES_PER_SECOND must be non-negative")
	}
	if v.MaxAccuracyMeters < 0 {
		return fmt.Errorf("VISITS_MAX_ACCURACY_METERS must be non-negative")
	}
	if v.EstimatePlacesPerSecond <= 0 || v.EstimatePingsPerSecond <= 0 {
		return fmt.Errorf("VISITS_ESTIMATE_PLACES_PER_SECOND and VISITS_ESTIMATE_PINGS_PER_SECOND must be positive")
	}
	if v.InfoCacheTTL < 0 {
		return fmt.Errorf("VISITS_INFO_CACHE_TTL must be non-negative")
	}
	return nil
}

func (c *Config) validateVisitsChunking() error {
	if c.Visits.ChunkSize < 1 || c.Visits.ChunkSize > 10000 {
		return fmt.Errorf("VISITS_CHUNK_SIZE must be between 1 and 10000")
	}
	// Each place binds a handful of parameters; fewer than one place per
	// query cannot make progress.
	if c.Visits.MaxQueryParams < 16 {
		return fmt.Errorf("VISITS_MAX_QUERY_PARAMS must be at least 16")
	}
	if c.Visits.Workers < 1 || c.Visits.Workers > 64 {
		return fmt.Errorf("VISITS_WORKERS must be between 1 and 64")
	}
	return nil
}

func (c *Config) validatePingStore() error {
	if !c.PingStore.BreakerEnabled {
		return nil
	}
	if c.PingStore.BreakerFailureThreshold < 1 {
		return fmt.Errorf("PING_STORE_BREAKER_THRESHOLD must be at least 1")
	}
	if c.PingStore.BreakerTimeout <= 0 {
		return fmt.Errorf("PING_STORE_BREAKER_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateJobs() error {
	if !c.Jobs.Enabled {
		return nil
	}
	if c.Jobs.Workers < 1 || c.Jobs.Workers > 32 {
		return fmt.Errorf("JOBS_WORKERS must be between 1 and 32")
	}
	if c.Jobs.QueueSize < 1 {
		return fmt.Errorf("JOBS_QUEUE_SIZE must be at least 1")
	}
	if c.Jobs.ResultTTL < time.Minute {
		return fmt.Errorf("JOBS_RESULT_TTL must be at least 1m")
	}
	return nil
}

func (c *Config) validateAudit() error {
	if !c.Audit.Enabled {
		return nil
	}
	if c.Audit.Retention < time.Hour {
		return fmt.Errorf("AUDIT_RETENTION must be at least 1h")
	}
	if c.Audit.CleanupInterval < time.Minute {
		return fmt.Errorf("AUDIT_CLEANUP_INTERVAL must be at least 1m")
	}
	return nil
}

// Rate limit bounds
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 1000000
	minRateLimitWindow   = time.Second // Minimum 1 second window
	maxRateLimitWindow   = time.Hour   // Maximum 1 hour window
)

// validateSecurity validates rate limiting configuration bounds.
func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}

	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.PreviewRateLimitReqs < minRateLimitRequests || c.Security.PreviewRateLimitReqs > c.Security.RateLimitReqs {
		return fmt.Errorf("PREVIEW_RATE_LIMIT_REQUESTS must be between %d and RATE_LIMIT_REQUESTS", minRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format == "" {
		return nil
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
