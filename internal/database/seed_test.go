// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package database

import (
	"context"
	"testing"

	"github.com/tomtom215/footprint/internal/visits"
)

func TestSeedDemoData(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	summary, err := db.SeedDemoData(ctx, testUser, 42)
	if err != nil {
		t.Fatalf("SeedDemoData() error = %v", err)
	}
	if summary.Places != len(demoPlaces) {
		t.Errorf("Places = %d, want %d", summary.Places, len(demoPlaces))
	}
	wantPings := 0
	for _, dp := range demoPlaces {
		if dp.pinned {
			wantPings += dp.dwell
		}
	}
	if summary.Pings != wantPings {
		t.Errorf("Pings = %d, want %d", summary.Pings, wantPings)
	}
	if summary.Visits != 1 {
		t.Errorf("Visits = %d, want 1", summary.Visits)
	}

	counts, err := db.GetRecordCounts(ctx)
	if err != nil {
		t.Fatalf("GetRecordCounts() error = %v", err)
	}
	if counts.Pings != int64(wantPings) || counts.Places != int64(len(demoPlaces)) {
		t.Errorf("GetRecordCounts() = %+v", *counts)
	}
}

// TestEngineOverSeededData runs the preview/apply cycle against DuckDB.
func TestEngineOverSeededData(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	summary, err := db.SeedDemoData(ctx, testUser, 7)
	if err != nil {
		t.Fatalf("SeedDemoData() error = %v", err)
	}

	engine, err := visits.NewEngine(visits.DefaultConfig(), db.Pings(0), db, db)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	preview, err := engine.Preview(ctx, visits.PreviewRequest{TripID: summary.TripID})
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if preview.Truncated || len(preview.Warnings) != 0 {
		t.Fatalf("Preview() truncated=%v warnings=%v", preview.Truncated, preview.Warnings)
	}

	newKeys := make(map[string]bool)
	for _, nv := range preview.NewVisits {
		newKeys[nv.PlaceName+"|"+string(nv.Date)] = true
	}
	for _, want := range []string{
		"Belém Tower|2024-05-10",
		"Jerónimos Monastery|2024-05-11",
		"Miradouro da Senhora do Monte|2024-05-12",
	} {
		if !newKeys[want] {
			t.Errorf("NewVisits missing %s; got %v", want, newKeys)
		}
	}
	if newKeys["Time Out Market|2024-05-10"] {
		t.Error("an already recorded visit was proposed again")
	}

	suggested := false
	for _, sv := range preview.SuggestedVisits {
		if sv.PlaceName == "LX Factory" && sv.Date == "2024-05-11" {
			suggested = true
		}
	}
	if !suggested {
		t.Errorf("LX Factory should be suggested on 2024-05-11; got %+v", preview.SuggestedVisits)
	}

	if len(preview.ExistingVisits) != 1 || preview.ExistingVisits[0].PlaceName != "Time Out Market" {
		t.Errorf("ExistingVisits = %+v, want the seeded Time Out Market visit", preview.ExistingVisits)
	}

	req := &visits.ApplyRequest{TripID: summary.TripID}
	for _, nv := range preview.NewVisits {
		req.CreateVisits = append(req.CreateVisits, visits.ApplyItem{
			PlaceID: nv.PlaceID, Date: nv.Date, FirstSeenUTC: nv.FirstSeenUTC, LastSeenUTC: nv.LastSeenUTC,
		})
	}

	applied, err := engine.Apply(ctx, req)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if applied.Created != len(preview.NewVisits) || applied.Skipped != 0 {
		t.Errorf("Apply() = %+v, want %d created", applied, len(preview.NewVisits))
	}

	again, err := engine.Preview(ctx, visits.PreviewRequest{TripID: summary.TripID})
	if err != nil {
		t.Fatalf("second Preview() error = %v", err)
	}
	if len(again.NewVisits) != 0 {
		t.Errorf("second Preview() proposed %d new visits, want 0", len(again.NewVisits))
	}

	replay, err := engine.Apply(ctx, req)
	if err != nil {
		t.Fatalf("replayed Apply() error = %v", err)
	}
	if replay.Created != 0 || replay.Skipped != len(req.CreateVisits) {
		t.Errorf("replayed Apply() = %+v, want everything skipped", replay)
	}

	n, err := db.CountVisits(ctx, summary.TripID)
	if err != nil {
		t.Fatalf("CountVisits() error = %v", err)
	}
	if n != 1+applied.Created {
		t.Errorf("CountVisits() = %d, want %d", n, 1+applied.Created)
	}
}
