// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package app

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/footprint/internal/audit"
	"github.com/tomtom215/footprint/internal/config"
	"github.com/tomtom215/footprint/internal/database"
	"github.com/tomtom215/footprint/internal/visits"
)

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2},
		Visits: config.VisitsConfig{
			StrictRadiusMeters:       40,
			TierMultiplier:           20,
			MinConfirmedHits:         2,
			MinSuggestedHits:         4,
			ConfidenceSaturationHits: 8,
			ChunkSize:                100,
			MaxQueryParams:           700,
			Workers:                  3,
			QueriesPerSecond:         12.5,
			MaxAccuracyMeters:        100,
			EstimatePlacesPerSecond:  20,
			EstimatePingsPerSecond:   1000,
		},
		PingStore: config.PingStoreConfig{
			BreakerEnabled:          true,
			BreakerFailureThreshold: 7,
			BreakerTimeout:          20 * time.Second,
			BreakerInterval:         time.Minute,
		},
		Security: config.SecurityConfig{
			CORSOrigins:          []string{"https://app.example"},
			RateLimitReqs:        50,
			RateLimitWindow:      30 * time.Second,
			PreviewRateLimitReqs: 3,
		},
	}
}

func TestEngineConfig(t *testing.T) {
	cfg := testConfig()
	got := EngineConfig(&cfg.Visits)

	want := visits.Config{
		StrictRadiusMeters:       40,
		TierMultiplier:           20,
		MinConfirmedHits:         2,
		MinSuggestedHits:         4,
		ConfidenceSaturationHits: 8,
		ChunkSize:                100,
		MaxQueryParams:           700,
		Workers:                  3,
		QueriesPerSecond:         12.5,
		EstimatePlacesPerSecond:  20,
		EstimatePingsPerSecond:   1000,
	}
	if got != want {
		t.Errorf("EngineConfig() = %+v, want %+v", got, want)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("converted config is invalid: %v", err)
	}
}

func TestBreakerConfig(t *testing.T) {
	cfg := testConfig()
	got := BreakerConfig(&cfg.PingStore)
	if got.Name != "ping-store" || got.FailureThreshold != 7 || got.Timeout != 20*time.Second || got.Interval != time.Minute {
		t.Errorf("BreakerConfig() = %+v", got)
	}
}

func TestMiddlewareConfig(t *testing.T) {
	cfg := testConfig()
	mw := MiddlewareConfig(&cfg.Security)

	if len(mw.CORSAllowedOrigins) != 1 || mw.CORSAllowedOrigins[0] != "https://app.example" {
		t.Errorf("CORSAllowedOrigins = %v", mw.CORSAllowedOrigins)
	}
	if mw.RateLimitRequests != 50 || mw.RateLimitWindow != 30*time.Second || mw.PreviewRateLimitRequests != 3 {
		t.Errorf("rate limits = %d/%v preview %d", mw.RateLimitRequests, mw.RateLimitWindow, mw.PreviewRateLimitRequests)
	}
	if mw.RateLimitDisabled {
		t.Error("RateLimitDisabled = true")
	}

	// The middleware config owns its slice.
	cfg.Security.CORSOrigins[0] = "https://changed.example"
	if mw.CORSAllowedOrigins[0] != "https://app.example" {
		t.Error("MiddlewareConfig shares the origins slice with the config")
	}
}

func TestPingStore_Breaker(t *testing.T) {
	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := testConfig()
	if _, ok := PingStore(cfg, db).(*visits.ResilientPingStore); !ok {
		t.Error("PingStore() with breaker enabled is not resilient")
	}

	cfg.PingStore.BreakerEnabled = false
	if _, ok := PingStore(cfg, db).(*database.PingStore); !ok {
		t.Error("PingStore() with breaker disabled should be the plain DuckDB store")
	}
}

func TestNewEngine_OverSeededDatabase(t *testing.T) {
	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	summary, err := db.SeedDemoData(ctx, "user-1", 1)
	if err != nil {
		t.Fatalf("SeedDemoData() error = %v", err)
	}

	cfg := testConfig()
	cfg.Visits = config.VisitsConfig{
		StrictRadiusMeters:       50,
		TierMultiplier:           50,
		MinConfirmedHits:         3,
		MinSuggestedHits:         5,
		ConfidenceSaturationHits: 10,
		ChunkSize:                500,
		MaxQueryParams:           65535,
		Workers:                  2,
		EstimatePlacesPerSecond:  25,
		EstimatePingsPerSecond:   50000,
	}
	engine, err := NewEngine(cfg, db)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	info, err := engine.Info(ctx, summary.TripID)
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if info.PingStoreState != "closed" {
		t.Errorf("PingStoreState = %q, want closed", info.PingStoreState)
	}
	if info.TotalPlaces != summary.Places || info.EstimatedPings != int64(summary.Pings) {
		t.Errorf("Info() = %+v, seeded %+v", info, summary)
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := testConfig()
	cfg.Visits.TierMultiplier = 1
	if _, err := NewEngine(cfg, db); err == nil {
		t.Error("NewEngine() error = nil for tier multiplier 1")
	}
}

func TestAuditStore(t *testing.T) {
	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	store, err := AuditStore(ctx, db)
	if err != nil {
		t.Fatalf("AuditStore() error = %v", err)
	}
	// Opening again reuses the table.
	if _, err := AuditStore(ctx, db); err != nil {
		t.Fatalf("second AuditStore() error = %v", err)
	}

	entry := &audit.Entry{ID: "e1", Timestamp: time.Now(), TripID: "trip-1", UserID: "user-1", Created: 1}
	if err := store.Save(ctx, entry); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := store.Query(ctx, audit.Filter{TripID: "trip-1"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "e1" {
		t.Errorf("Query() = %+v, want entry e1", got)
	}
}
