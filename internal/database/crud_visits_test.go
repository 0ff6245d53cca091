// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/footprint/internal/geo"
	"github.com/tomtom215/footprint/internal/visits"
)

func newTestVisit(id, tripID, placeID string, date visits.LocalDate) *visits.Visit {
	pid := placeID
	ended := date.Time().Add(3 * time.Hour)
	return &visits.Visit{
		ID:         id,
		UserID:     testUser,
		TripID:     tripID,
		TripName:   "Trip " + tripID,
		PlaceID:    &pid,
		PlaceName:  "Place " + placeID,
		Region:     "Lisbon",
		LocalDate:  date,
		ArrivedAt:  date.Time().Add(time.Hour),
		EndedAt:    &ended,
		Coordinate: &geo.Point{Latitude: lisbon.Latitude, Longitude: lisbon.Longitude},
		Icon:       "museum",
		Color:      "#00ff00",
		Origin:     visits.OriginBackfill,
		CreatedAt:  time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestInsertAndListVisits(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	want := newTestVisit("v1", "trip-1", "p1", "2024-05-10")
	if err := db.InsertVisit(ctx, want); err != nil {
		t.Fatalf("InsertVisit() error = %v", err)
	}
	noPlace := newTestVisit("v0", "trip-1", "", "2024-05-09")
	noPlace.PlaceID = nil
	noPlace.EndedAt = nil
	noPlace.Coordinate = nil
	if err := db.InsertVisit(ctx, noPlace); err != nil {
		t.Fatalf("InsertVisit(no place) error = %v", err)
	}
	// Same user, place and date on another trip is still one visit.
	if err := db.InsertVisit(ctx, newTestVisit("v9", "trip-2", "p1", "2024-05-10")); !errors.Is(err, visits.ErrDuplicateVisit) {
		t.Errorf("InsertVisit(duplicate) error = %v, want ErrDuplicateVisit", err)
	}

	got, err := db.ListVisits(ctx, "trip-1")
	if err != nil {
		t.Fatalf("ListVisits() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListVisits() = %d visits, want 2", len(got))
	}
	if got[0].ID != "v0" || got[1].ID != "v1" {
		t.Errorf("ListVisits() order = %s, %s; want v0, v1 (by date)", got[0].ID, got[1].ID)
	}
	if got[0].PlaceID != nil || got[0].Coordinate != nil || got[0].EndedAt != nil {
		t.Errorf("nullable fields not preserved: %+v", got[0])
	}

	v := got[1]
	if v.PlaceID == nil || *v.PlaceID != "p1" {
		t.Errorf("PlaceID = %v, want p1", v.PlaceID)
	}
	if v.LocalDate != want.LocalDate || v.Origin != want.Origin || v.Icon != want.Icon || v.Color != want.Color {
		t.Errorf("visit = %+v, want %+v", v, *want)
	}
	if !v.ArrivedAt.Equal(want.ArrivedAt) || v.EndedAt == nil || !v.EndedAt.Equal(*want.EndedAt) {
		t.Errorf("times = %v / %v, want %v / %v", v.ArrivedAt, v.EndedAt, want.ArrivedAt, *want.EndedAt)
	}
	if !v.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", v.CreatedAt, want.CreatedAt)
	}
	if v.Coordinate == nil || *v.Coordinate != *want.Coordinate {
		t.Errorf("Coordinate = %v, want %v", v.Coordinate, want.Coordinate)
	}

	n, err := db.CountVisits(ctx, "trip-1")
	if err != nil {
		t.Fatalf("CountVisits() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountVisits() = %d, want 2", n)
	}
}

func TestVisitTx_DuplicateIsReported(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.InsertVisit(ctx, newTestVisit("v1", "trip-1", "p1", "2024-05-10")); err != nil {
		t.Fatalf("InsertVisit() error = %v", err)
	}

	err := db.WithTx(ctx, func(tx visits.VisitTx) error {
		exists, err := tx.Exists(ctx, testUser, "p1", "2024-05-10")
		if err != nil {
			return err
		}
		if !exists {
			t.Error("Exists() = false for a recorded visit")
		}
		if exists, _ := tx.Exists(ctx, testUser, "p1", "2024-05-11"); exists {
			t.Error("Exists() = true for another date")
		}
		if exists, _ := tx.Exists(ctx, "other-user", "p1", "2024-05-10"); exists {
			t.Error("Exists() = true for another user")
		}

		if err := tx.Insert(ctx, newTestVisit("v2", "trip-1", "p1", "2024-05-10")); !errors.Is(err, visits.ErrDuplicateVisit) {
			t.Errorf("Insert(duplicate) error = %v, want ErrDuplicateVisit", err)
		}
		// The transaction stays usable after a skipped duplicate.
		return tx.Insert(ctx, newTestVisit("v3", "trip-1", "p1", "2024-05-11"))
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	n, _ := db.CountVisits(ctx, "trip-1")
	if n != 2 {
		t.Errorf("CountVisits() = %d, want 2", n)
	}
}

func TestApply_ConcurrentCreatesWriteOneVisit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	mustCreateTrip(t, db, "trip-1", testUser)
	mustCreatePlace(t, db, "trip-1", "p1", &lisbon)

	engine, err := visits.NewEngine(visits.DefaultConfig(), db.Pings(0), db, db)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		skipped  int
		applyErr []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := engine.Apply(ctx, &visits.ApplyRequest{
				TripID:       "trip-1",
				CreateVisits: []visits.ApplyItem{{PlaceID: "p1", Date: "2024-05-10"}},
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				applyErr = append(applyErr, err)
				return
			}
			created += resp.Created
			skipped += resp.Skipped
		}()
	}
	wg.Wait()

	if len(applyErr) > 0 {
		t.Fatalf("Apply() errors = %v", applyErr)
	}
	if created != 1 || skipped != workers-1 {
		t.Errorf("created/skipped = %d/%d, want 1/%d", created, skipped, workers-1)
	}
	n, err := db.CountVisits(ctx, "trip-1")
	if err != nil {
		t.Fatalf("CountVisits() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountVisits() = %d, want 1", n)
	}
}

func TestVisitTx_Delete(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.InsertVisit(ctx, newTestVisit("v1", "trip-1", "p1", "2024-05-10")); err != nil {
		t.Fatalf("InsertVisit() error = %v", err)
	}

	tests := []struct {
		name    string
		userID  string
		visitID string
		wantErr error
	}{
		{"other user's visit", "intruder", "v1", visits.ErrVisitNotFound},
		{"unknown id", testUser, "nope", visits.ErrVisitNotFound},
		{"own visit", testUser, "v1", nil},
		{"already deleted", testUser, "v1", visits.ErrVisitNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.WithTx(ctx, func(tx visits.VisitTx) error {
				return tx.Delete(ctx, tt.userID, tt.visitID)
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Delete() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.InsertVisit(ctx, newTestVisit("keep", "trip-1", "p0", "2024-05-01")); err != nil {
		t.Fatalf("InsertVisit() error = %v", err)
	}

	boom := errors.New("boom")
	calls := 0
	err := db.WithTx(ctx, func(tx visits.VisitTx) error {
		calls++
		if err := tx.Delete(ctx, testUser, "keep"); err != nil {
			return err
		}
		if err := tx.Insert(ctx, newTestVisit("v1", "trip-1", "p1", "2024-05-10")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times; non-conflict errors must not retry", calls)
	}

	got, err := db.ListVisits(ctx, "trip-1")
	if err != nil {
		t.Fatalf("ListVisits() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "keep" {
		t.Errorf("after rollback visits = %+v, want only keep", got)
	}
}

func TestWithTx_Cancelled(t *testing.T) {
	db := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := db.WithTx(ctx, func(tx visits.VisitTx) error {
		if err := tx.Insert(ctx, newTestVisit("v1", "trip-1", "p1", "2024-05-10")); err != nil {
			return err
		}
		cancel()
		return visits.ErrCancelled
	})
	if !errors.Is(err, visits.ErrCancelled) {
		t.Fatalf("WithTx() error = %v, want ErrCancelled", err)
	}

	n, err := db.CountVisits(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("CountVisits() error = %v", err)
	}
	if n != 0 {
		t.Errorf("cancelled transaction left %d visits", n)
	}
}
