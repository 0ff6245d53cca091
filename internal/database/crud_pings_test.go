// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package database

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/tomtom215/footprint/internal/geo"
	"github.com/tomtom215/footprint/internal/visits"
)

func ptr[T any](v T) *T { return &v }

func TestRangeQuery_Distance(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	mustInsertPings(t, db,
		visits.Ping{UserID: testUser, Coordinate: north(lisbon, 40), RecordedAt: at},
		visits.Ping{UserID: testUser, Coordinate: north(lisbon, 800), RecordedAt: at.Add(time.Minute), UserInvoked: true},
		visits.Ping{UserID: testUser, Coordinate: north(lisbon, 3000), RecordedAt: at.Add(2 * time.Minute)},
		visits.Ping{UserID: "someone-else", Coordinate: lisbon, RecordedAt: at},
	)

	hits, err := db.Pings(0).RangeQuery(ctx, testUser, lisbon, 2500, visits.DateWindow{})
	if err != nil {
		t.Fatalf("RangeQuery() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("RangeQuery() = %d hits, want 2", len(hits))
	}

	if math.Abs(hits[0].DistanceMeters-40) > 1 {
		t.Errorf("hits[0].DistanceMeters = %.2f, want ~40", hits[0].DistanceMeters)
	}
	if math.Abs(hits[1].DistanceMeters-800) > 1 {
		t.Errorf("hits[1].DistanceMeters = %.2f, want ~800", hits[1].DistanceMeters)
	}
	if hits[0].UserInvoked || !hits[1].UserInvoked {
		t.Errorf("UserInvoked = %v/%v, want false/true", hits[0].UserInvoked, hits[1].UserInvoked)
	}
	if !hits[0].Timestamp.Equal(at) || hits[0].Timestamp.Location() != time.UTC {
		t.Errorf("hits[0].Timestamp = %v, want %v in UTC", hits[0].Timestamp, at)
	}
	if hits[0].LocalDate != "2024-05-10" {
		t.Errorf("hits[0].LocalDate = %s, want 2024-05-10", hits[0].LocalDate)
	}
}

func TestRangeQuery_RadiusEdges(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	fiji := geo.Point{Latitude: -16.8, Longitude: 179.9993}
	acrossLine := geo.Point{Latitude: -16.8, Longitude: -179.9993}
	berlin := geo.Point{Latitude: 52.52, Longitude: 13.405}

	pings := []visits.Ping{{UserID: testUser, Coordinate: acrossLine, RecordedAt: at}}
	for i, bearing := range []float64{0, math.Pi / 4, math.Pi / 2, math.Pi, 3 * math.Pi / 2} {
		p := offsetPoint(berlin, 2499, bearing)
		if d := geo.Distance(berlin, p); d > 2500 {
			t.Fatalf("fixture %d is %.2f m from berlin, beyond the radius", i, d)
		}
		pings = append(pings, visits.Ping{UserID: testUser, Coordinate: p, RecordedAt: at.Add(time.Duration(i+1) * time.Minute)})
	}
	mustInsertPings(t, db, pings...)
	store := db.Pings(0)

	hits, err := store.RangeQuery(ctx, testUser, fiji, 200, visits.DateWindow{})
	if err != nil {
		t.Fatalf("RangeQuery(fiji) error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("RangeQuery(fiji) = %d hits, want the ping across the antimeridian", len(hits))
	}
	if math.Abs(hits[0].DistanceMeters-149) > 1 {
		t.Errorf("fiji hit DistanceMeters = %.2f, want ~149", hits[0].DistanceMeters)
	}

	hits, err = store.RangeQuery(ctx, testUser, berlin, 2500, visits.DateWindow{})
	if err != nil {
		t.Fatalf("RangeQuery(berlin) error = %v", err)
	}
	if len(hits) != 5 {
		t.Errorf("RangeQuery(berlin) = %d hits, want 5 pings just inside the radius", len(hits))
	}
}

func TestRangeQuery_LocalDateAndWindow(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	nyc := geo.Point{Latitude: 40.7128, Longitude: -74.0060}

	// 03:30Z on the 10th is 23:30 on the 9th in New York.
	mustInsertPings(t, db,
		visits.Ping{UserID: testUser, Coordinate: nyc, RecordedAt: time.Date(2024, 5, 10, 3, 30, 0, 0, time.UTC), TimeZone: "America/New_York"},
		visits.Ping{UserID: testUser, Coordinate: nyc, RecordedAt: time.Date(2024, 5, 10, 4, 30, 0, 0, time.UTC), TimeZone: "America/New_York"},
		// No zone; the device wall clock decides.
		visits.Ping{
			UserID: testUser, Coordinate: nyc,
			RecordedAt:     time.Date(2024, 5, 12, 2, 0, 0, 0, time.UTC),
			LocalTimestamp: ptr(time.Date(2024, 5, 11, 22, 0, 0, 0, time.UTC)),
		},
	)
	store := db.Pings(0)

	tests := []struct {
		name   string
		window visits.DateWindow
		want   []visits.LocalDate
	}{
		{"open", visits.DateWindow{}, []visits.LocalDate{"2024-05-09", "2024-05-10", "2024-05-11"}},
		{"single local day", visits.DateWindow{From: "2024-05-10", To: "2024-05-10"}, []visits.LocalDate{"2024-05-10"}},
		{"previous local day", visits.DateWindow{From: "2024-05-09", To: "2024-05-09"}, []visits.LocalDate{"2024-05-09"}},
		{"from only", visits.DateWindow{From: "2024-05-11"}, []visits.LocalDate{"2024-05-11"}},
		{"to only", visits.DateWindow{To: "2024-05-09"}, []visits.LocalDate{"2024-05-09"}},
		{"outside", visits.DateWindow{From: "2024-06-01", To: "2024-06-30"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := store.RangeQuery(ctx, testUser, nyc, 50, tt.window)
			if err != nil {
				t.Fatalf("RangeQuery() error = %v", err)
			}
			got := make([]visits.LocalDate, len(hits))
			for i := range hits {
				got[i] = hits[i].LocalDate
			}
			if len(got) != len(tt.want) {
				t.Fatalf("RangeQuery() dates = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("RangeQuery() dates = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestRangeQuery_AccuracyFilter(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	mustInsertPings(t, db,
		visits.Ping{UserID: testUser, Coordinate: lisbon, RecordedAt: at, AccuracyMeters: ptr(10.0)},
		visits.Ping{UserID: testUser, Coordinate: lisbon, RecordedAt: at.Add(time.Minute), AccuracyMeters: ptr(150.0)},
		visits.Ping{UserID: testUser, Coordinate: lisbon, RecordedAt: at.Add(2 * time.Minute)},
	)

	tests := []struct {
		maxAccuracy float64
		wantHits    int
		wantCount   int64
	}{
		{0, 3, 3},
		{100, 2, 2},
		{5, 1, 1}, // unknown accuracy is kept
	}
	for _, tt := range tests {
		store := db.Pings(tt.maxAccuracy)
		hits, err := store.RangeQuery(ctx, testUser, lisbon, 50, visits.DateWindow{})
		if err != nil {
			t.Fatalf("RangeQuery() error = %v", err)
		}
		if len(hits) != tt.wantHits {
			t.Errorf("max accuracy %v: RangeQuery() = %d hits, want %d", tt.maxAccuracy, len(hits), tt.wantHits)
		}
		n, err := store.CountPings(ctx, testUser, visits.DateWindow{})
		if err != nil {
			t.Fatalf("CountPings() error = %v", err)
		}
		if n != tt.wantCount {
			t.Errorf("max accuracy %v: CountPings() = %d, want %d", tt.maxAccuracy, n, tt.wantCount)
		}
	}
}

func TestRangeQuery_Cancelled(t *testing.T) {
	db := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := db.Pings(0).RangeQuery(ctx, testUser, lisbon, 50, visits.DateWindow{}); err == nil {
		t.Error("RangeQuery() with cancelled context should fail")
	}
}

func TestCountPings_Window(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	var pings []visits.Ping
	for day := 1; day <= 10; day++ {
		pings = append(pings, visits.Ping{
			UserID: testUser, Coordinate: lisbon,
			RecordedAt: time.Date(2024, 5, day, 12, 0, 0, 0, time.UTC),
		})
	}
	mustInsertPings(t, db, pings...)

	store := db.Pings(0)
	total, err := store.CountPings(ctx, testUser, visits.DateWindow{})
	if err != nil {
		t.Fatalf("CountPings() error = %v", err)
	}
	if total != 10 {
		t.Errorf("CountPings(open) = %d, want 10", total)
	}

	// The padded scan range is [May 4, May 7): one day before, two after.
	n, err := store.CountPings(ctx, testUser, visits.DateWindow{From: "2024-05-05", To: "2024-05-05"})
	if err != nil {
		t.Fatalf("CountPings() error = %v", err)
	}
	if n != 3 {
		t.Errorf("CountPings(May 5) = %d, want 3 (padded estimate)", n)
	}

	other, err := store.CountPings(ctx, "nobody", visits.DateWindow{})
	if err != nil {
		t.Fatalf("CountPings() error = %v", err)
	}
	if other != 0 {
		t.Errorf("CountPings(nobody) = %d, want 0", other)
	}
}

func TestInsertPings_Validation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ping visits.Ping
	}{
		{"latitude out of range", visits.Ping{UserID: testUser, Coordinate: geo.Point{Latitude: 95}, RecordedAt: at}},
		{"NaN longitude", visits.Ping{UserID: testUser, Coordinate: geo.Point{Longitude: math.NaN()}, RecordedAt: at}},
		{"missing user", visits.Ping{Coordinate: lisbon, RecordedAt: at}},
		{"missing time", visits.Ping{UserID: testUser, Coordinate: lisbon}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			good := visits.Ping{UserID: testUser, Coordinate: lisbon, RecordedAt: at}
			n, err := db.Pings(0).InsertPings(ctx, []visits.Ping{good, tt.ping})
			if err == nil {
				t.Fatal("InsertPings() expected error")
			}
			if n != 0 {
				t.Errorf("InsertPings() = %d, want 0", n)
			}
		})
	}

	count, err := db.Pings(0).CountPings(ctx, testUser, visits.DateWindow{})
	if err != nil {
		t.Fatalf("CountPings() error = %v", err)
	}
	if count != 0 {
		t.Errorf("rejected batches wrote %d pings", count)
	}

	if n, err := db.Pings(0).InsertPings(ctx, nil); err != nil || n != 0 {
		t.Errorf("InsertPings(nil) = %d, %v", n, err)
	}
}

func TestUTCRange(t *testing.T) {
	from, to := utcRange(visits.DateWindow{})
	if !from.Equal(minPingTime) || !to.Equal(maxPingTime) {
		t.Errorf("utcRange(open) = %v, %v", from, to)
	}

	from, to = utcRange(visits.DateWindow{From: "2024-03-01", To: "2024-03-03"})
	if want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC); !from.Equal(want) {
		t.Errorf("from = %v, want %v", from, want)
	}
	if want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC); !to.Equal(want) {
		t.Errorf("to = %v, want %v", to, want)
	}
}
