// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package visits

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/footprint/internal/geo"
)

var metersPerDegree = geo.EarthRadiusMeters * math.Pi / 180

// north returns the point metersNorth meters due north of p.
func north(p geo.Point, metersNorth float64) geo.Point {
	return geo.Point{Latitude: p.Latitude + metersNorth/metersPerDegree, Longitude: p.Longitude}
}

func ptr[T any](v T) *T { return &v }

// mockPingStore filters an in-memory ping slice the way a real store would.
type mockPingStore struct {
	mu      sync.Mutex
	pings   []Ping
	failFor map[geo.Point]error
	onQuery func(n int64) // called before every RangeQuery with the 1-based call number
	calls   atomic.Int64
}

func (m *mockPingStore) RangeQuery(ctx context.Context, userID string, center geo.Point, radiusMeters float64, window DateWindow) ([]PingHit, error) {
	n := m.calls.Add(1)
	if m.onQuery != nil {
		m.onQuery(n)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.failFor[center]; ok {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var hits []PingHit
	for i := range m.pings {
		p := &m.pings[i]
		if p.UserID != userID {
			continue
		}
		d := geo.Distance(center, p.Coordinate)
		date := p.LocalDate()
		if d > radiusMeters || !window.Contains(date) {
			continue
		}
		hits = append(hits, PingHit{
			Timestamp:      p.RecordedAt,
			LocalDate:      date,
			DistanceMeters: d,
			UserInvoked:    p.UserInvoked,
		})
	}
	return hits, nil
}

func (m *mockPingStore) CountPings(ctx context.Context, userID string, window DateWindow) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.pings {
		if m.pings[i].UserID == userID && window.Contains(m.pings[i].LocalDate()) {
			n++
		}
	}
	return n, nil
}

// addPings appends count pings at p, one minute apart starting at start.
func (m *mockPingStore) addPings(userID string, p geo.Point, start time.Time, count int, tz string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < count; i++ {
		m.pings = append(m.pings, Ping{
			UserID:     userID,
			Coordinate: p,
			RecordedAt: start.Add(time.Duration(i) * time.Minute),
			TimeZone:   tz,
		})
	}
}

// mockCatalog is an in-memory PlaceCatalog.
type mockCatalog struct {
	trips  map[string]*Trip
	places []Place
	err    error
	// onGetTrip runs before each trip lookup.
	onGetTrip func()
}

func (m *mockCatalog) GetTrip(ctx context.Context, tripID string) (*Trip, error) {
	if m.onGetTrip != nil {
		m.onGetTrip()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.trips[tripID]
	if !ok {
		return nil, ErrTripNotFound
	}
	return t, nil
}

func (m *mockCatalog) ListPlaces(ctx context.Context, tripID string) ([]Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Place
	for _, p := range m.places {
		if p.TripID == tripID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockCatalog) ListPlacesWithCoordinates(ctx context.Context, tripID string) ([]Place, error) {
	all, err := m.ListPlaces(ctx, tripID)
	if err != nil {
		return nil, err
	}
	var out []Place
	for _, p := range all {
		if p.Coordinate != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

// mockVisitStore keeps visits in memory and gives WithTx real commit/rollback
// semantics by working on a copy.
type mockVisitStore struct {
	mu     sync.Mutex
	visits []Visit

	// beforeInsert runs inside Insert before the uniqueness check; tests use
	// it to simulate a concurrent writer.
	beforeInsert func(v *Visit, committed *[]Visit)
	insertErr    error
}

func (m *mockVisitStore) ListVisits(ctx context.Context, tripID string) ([]Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Visit
	for _, v := range m.visits {
		if v.TripID == tripID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockVisitStore) CountVisits(ctx context.Context, tripID string) (int, error) {
	vs, err := m.ListVisits(ctx, tripID)
	return len(vs), err
}

func (m *mockVisitStore) WithTx(ctx context.Context, fn func(tx VisitTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &mockVisitTx{store: m, working: append([]Visit(nil), m.visits...)}
	if err := fn(tx); err != nil {
		return err
	}
	m.visits = tx.working
	return nil
}

func (m *mockVisitStore) snapshot() []Visit {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]Visit(nil), m.visits...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type mockVisitTx struct {
	store   *mockVisitStore
	working []Visit
}

func (tx *mockVisitTx) Exists(ctx context.Context, userID, placeID string, date LocalDate) (bool, error) {
	for _, v := range tx.working {
		if v.UserID == userID && v.PlaceID != nil && *v.PlaceID == placeID && v.LocalDate == date {
			return true, nil
		}
	}
	return false, nil
}

func (tx *mockVisitTx) Insert(ctx context.Context, v *Visit) error {
	if tx.store.beforeInsert != nil {
		tx.store.beforeInsert(v, &tx.working)
	}
	if tx.store.insertErr != nil {
		return tx.store.insertErr
	}
	exists, _ := tx.Exists(ctx, v.UserID, *v.PlaceID, v.LocalDate)
	if exists {
		return ErrDuplicateVisit
	}
	tx.working = append(tx.working, *v)
	return nil
}

func (tx *mockVisitTx) Delete(ctx context.Context, userID, visitID string) error {
	for i, v := range tx.working {
		if v.ID == visitID && v.UserID == userID {
			tx.working = append(tx.working[:i], tx.working[i+1:]...)
			return nil
		}
	}
	return ErrVisitNotFound
}

// mockPublisher records published events.
type mockPublisher struct {
	mu     sync.Mutex
	events []AppliedEvent
	err    error
}

func (m *mockPublisher) PublishVisitsApplied(ctx context.Context, event AppliedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

var errStoreDown = errors.New("store down")
