// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

// Package app builds the visit engine and HTTP stack from configuration.
// Both binaries use it so the server and the CLI infer the same visits.
package app

import (
	"context"
	"fmt"

	"github.com/tomtom215/footprint/internal/api"
	"github.com/tomtom215/footprint/internal/audit"
	"github.com/tomtom215/footprint/internal/config"
	"github.com/tomtom215/footprint/internal/database"
	"github.com/tomtom215/footprint/internal/logging"
	"github.com/tomtom215/footprint/internal/visits"
)

// pingStoreBreakerName labels the breaker in metrics and logs.
const pingStoreBreakerName = "ping-store"

// EngineConfig converts the visits section into engine tuning.
func EngineConfig(c *config.VisitsConfig) visits.Config {
	return visits.Config{
		StrictRadiusMeters:       c.StrictRadiusMeters,
		TierMultiplier:           c.TierMultiplier,
		MinConfirmedHits:         c.MinConfirmedHits,
		MinSuggestedHits:         c.MinSuggestedHits,
		ConfidenceSaturationHits: c.ConfidenceSaturationHits,
		ChunkSize:                c.ChunkSize,
		MaxQueryParams:           c.MaxQueryParams,
		Workers:                  c.Workers,
		QueriesPerSecond:         c.QueriesPerSecond,
		EstimatePlacesPerSecond:  c.EstimatePlacesPerSecond,
		EstimatePingsPerSecond:   c.EstimatePingsPerSecond,
	}
}

// BreakerConfig converts the ping_store section into breaker settings.
func BreakerConfig(c *config.PingStoreConfig) visits.BreakerConfig {
	return visits.BreakerConfig{
		Name:             pingStoreBreakerName,
		FailureThreshold: c.BreakerFailureThreshold,
		Timeout:          c.BreakerTimeout,
		Interval:         c.BreakerInterval,
	}
}

// PingStore returns the DuckDB ping store, behind a circuit breaker unless
// the breaker is disabled.
func PingStore(cfg *config.Config, db *database.DB) visits.PingStore {
	store := db.Pings(cfg.Visits.MaxAccuracyMeters)
	if !cfg.PingStore.BreakerEnabled {
		return store
	}
	return visits.NewResilientPingStore(store, BreakerConfig(&cfg.PingStore))
}

// NewEngine builds the visit engine over db. The database is both the place
// catalog and the visit store.
func NewEngine(cfg *config.Config, db *database.DB, opts ...visits.Option) (*visits.Engine, error) {
	engine, err := visits.NewEngine(EngineConfig(&cfg.Visits), PingStore(cfg, db), db, db, opts...)
	if err != nil {
		return nil, err
	}
	logging.Info().
		Float64("strict_radius_m", cfg.Visits.StrictRadiusMeters).
		Float64("tier_multiplier", cfg.Visits.TierMultiplier).
		Int("workers", cfg.Visits.Workers).
		Bool("breaker", cfg.PingStore.BreakerEnabled).
		Msg("Visit engine configured")
	return engine, nil
}

// MiddlewareConfig converts the security section into router middleware
// settings.
func MiddlewareConfig(c *config.SecurityConfig) *api.ChiMiddlewareConfig {
	mw := api.DefaultChiMiddlewareConfig()
	mw.CORSAllowedOrigins = append([]string(nil), c.CORSOrigins...)
	mw.RateLimitRequests = c.RateLimitReqs
	mw.RateLimitWindow = c.RateLimitWindow
	mw.RateLimitDisabled = c.RateLimitDisabled
	mw.PreviewRateLimitRequests = c.PreviewRateLimitReqs
	return mw
}

// AuditStore returns the apply history store of db, creating its table.
func AuditStore(ctx context.Context, db *database.DB) (*audit.DuckDBStore, error) {
	store := audit.NewDuckDBStore(db.Conn())
	if err := store.CreateTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare apply history: %w", err)
	}
	return store, nil
}
