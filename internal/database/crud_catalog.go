// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/footprint/internal/geo"
	"github.com/tomtom215/footprint/internal/metrics"
	"github.com/tomtom215/footprint/internal/visits"
)

// CreateTrip inserts a trip. An empty ID is generated.
func (db *DB) CreateTrip(ctx context.Context, trip *visits.Trip) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO trips (id, user_id, name, created_at) VALUES (?, ?, ?, ?)`,
		trip.ID, trip.UserID, trip.Name, time.Now().UTC())
	metrics.RecordDBQuery("insert", "trips", time.Since(start), err)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrTripExists
		}
		return fmt.Errorf("failed to create trip: %w", err)
	}
	return nil
}

// GetTrip retrieves a trip by ID. Unknown ids return visits.ErrTripNotFound.
func (db *DB) GetTrip(ctx context.Context, tripID string) (*visits.Trip, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var trip visits.Trip
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, user_id FROM trips WHERE id = ?`, tripID,
	).Scan(&trip.ID, &trip.Name, &trip.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery("select", "trips", time.Since(start), nil)
		return nil, visits.ErrTripNotFound
	}
	metrics.RecordDBQuery("select", "trips", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return &trip, nil
}

// CreatePlace inserts a place. An empty ID is generated. The coordinate is
// optional but must be valid when present.
func (db *DB) CreatePlace(ctx context.Context, place *visits.Place) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if place.ID == "" {
		place.ID = uuid.New().String()
	}
	lat, lon, err := nullableCoordinate(place.Coordinate)
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO places (id, trip_id, name, region, latitude, longitude, icon, color, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		place.ID, place.TripID, place.Name, nullString(place.Region), lat, lon,
		nullString(place.Icon), nullString(place.Color), time.Now().UTC())
	metrics.RecordDBQuery("insert", "places", time.Since(start), err)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrPlaceExists
		}
		return fmt.Errorf("failed to create place: %w", err)
	}
	return nil
}

// UpdatePlaceCoordinate moves (or pins, or unpins with nil) a place.
func (db *DB) UpdatePlaceCoordinate(ctx context.Context, placeID string, coord *geo.Point) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	lat, lon, err := nullableCoordinate(coord)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE places SET latitude = ?, longitude = ? WHERE id = ?`, lat, lon, placeID)
	metrics.RecordDBQuery("update", "places", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update place: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrPlaceNotFound
	}
	return nil
}

// DeletePlace removes a place. Visits of the place keep their snapshot and
// lose their place_id, which is how the reconciler detects them as stale.
func (db *DB) DeletePlace(ctx context.Context, placeID string) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollbackQuietly(tx, err)
		}
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE place_visits SET place_id = NULL WHERE place_id = ?`, placeID); err != nil {
		return fmt.Errorf("failed to detach visits: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM places WHERE id = ?`, placeID)
	if err != nil {
		return fmt.Errorf("failed to delete place: %w", err)
	}
	if n, rerr := res.RowsAffected(); rerr == nil && n == 0 {
		err = ErrPlaceNotFound
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit place delete: %w", err)
	}
	return nil
}

// ListPlaces returns every place of the trip, including places without a
// coordinate, ordered by id.
func (db *DB) ListPlaces(ctx context.Context, tripID string) ([]visits.Place, error) {
	return db.listPlaces(ctx, tripID, false)
}

// ListPlacesWithCoordinates returns the places that can be scanned.
func (db *DB) ListPlacesWithCoordinates(ctx context.Context, tripID string) ([]visits.Place, error) {
	return db.listPlaces(ctx, tripID, true)
}

func (db *DB) listPlaces(ctx context.Context, tripID string, coordinatedOnly bool) ([]visits.Place, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT id, trip_id, name, region, latitude, longitude, icon, color
		FROM places WHERE trip_id = ?`
	if coordinatedOnly {
		query += ` AND latitude IS NOT NULL AND longitude IS NOT NULL`
	}
	query += ` ORDER BY id`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, tripID)
	if err != nil {
		metrics.RecordDBQuery("select", "places", time.Since(start), err)
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	defer rows.Close()

	places := make([]visits.Place, 0)
	for rows.Next() {
		var (
			p                   visits.Place
			region, icon, color sql.NullString
			lat, lon            sql.NullFloat64
		)
		if err := rows.Scan(&p.ID, &p.TripID, &p.Name, &region, &lat, &lon, &icon, &color); err != nil {
			return nil, fmt.Errorf("failed to scan place: %w", err)
		}
		p.Region, p.Icon, p.Color = region.String, icon.String, color.String
		if lat.Valid && lon.Valid {
			p.Coordinate = &geo.Point{Latitude: lat.Float64, Longitude: lon.Float64}
		}
		places = append(places, p)
	}
	err = rows.Err()
	metrics.RecordDBQuery("select", "places", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate places: %w", err)
	}
	return places, nil
}

// nullableCoordinate converts an optional point to nullable columns.
func nullableCoordinate(p *geo.Point) (sql.NullFloat64, sql.NullFloat64, error) {
	if p == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}, nil
	}
	if err := p.Validate(); err != nil {
		return sql.NullFloat64{}, sql.NullFloat64{}, err
	}
	return sql.NullFloat64{Float64: p.Latitude, Valid: true}, sql.NullFloat64{Float64: p.Longitude, Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
