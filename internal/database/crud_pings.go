// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/footprint/internal/geo"
	"github.com/tomtom215/footprint/internal/metrics"
	"github.com/tomtom215/footprint/internal/visits"
)

// Open window bounds. DuckDB TIMESTAMP covers both comfortably.
var (
	minPingTime = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	maxPingTime = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
)

// PingStore implements visits.PingStore over the location_pings table.
type PingStore struct {
	db *DB

	// maxAccuracyMeters drops pings with a worse reported accuracy (0 = keep all).
	maxAccuracyMeters float64
}

// Pings returns the ping store view of the database.
func (db *DB) Pings(maxAccuracyMeters float64) *PingStore {
	return &PingStore{db: db, maxAccuracyMeters: maxAccuracyMeters}
}

// RangeQuery returns the user's pings within radiusMeters of center whose
// local date falls inside window.
//
// SQL narrows by user, bounding box and a padded UTC range. Exact
// great-circle distance and the local date are resolved in Go.
func (s *PingStore) RangeQuery(ctx context.Context, userID string, center geo.Point, radiusMeters float64, window visits.DateWindow) ([]visits.PingHit, error) {
	bound := geo.BoundAround(center, radiusMeters)
	from, to := utcRange(window)

	query := `SELECT recorded_at, local_timestamp, time_zone, latitude, longitude, user_invoked
		FROM location_pings
		WHERE user_id = ?
		  AND latitude BETWEEN ? AND ?
		  AND longitude BETWEEN ? AND ?
		  AND recorded_at >= ? AND recorded_at < ?`
	args := []any{userID, bound.MinLat, bound.MaxLat, bound.MinLon, bound.MaxLon, from, to}
	if s.maxAccuracyMeters > 0 {
		query += ` AND (accuracy_meters IS NULL OR accuracy_meters <= ?)`
		args = append(args, s.maxAccuracyMeters)
	}
	query += ` ORDER BY recorded_at`

	start := time.Now()
	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.RecordDBQuery("range_query", "location_pings", time.Since(start), err)
		return nil, fmt.Errorf("failed to query pings: %w", err)
	}
	defer rows.Close()

	var hits []visits.PingHit
	for rows.Next() {
		var (
			recordedAt time.Time
			localTS    sql.NullTime
			tz         sql.NullString
			pt         geo.Point
			invoked    bool
		)
		if err := rows.Scan(&recordedAt, &localTS, &tz, &pt.Latitude, &pt.Longitude, &invoked); err != nil {
			return nil, fmt.Errorf("failed to scan ping: %w", err)
		}

		d := geo.Distance(center, pt)
		if d > radiusMeters {
			continue
		}
		var local *time.Time
		if localTS.Valid {
			local = &localTS.Time
		}
		date := visits.ResolveLocalDate(recordedAt.UTC(), local, tz.String)
		if !window.Contains(date) {
			continue
		}

		hits = append(hits, visits.PingHit{
			Timestamp:      recordedAt.UTC(),
			LocalDate:      date,
			DistanceMeters: d,
			UserInvoked:    invoked,
		})
	}
	err = rows.Err()
	metrics.RecordDBQuery("range_query", "location_pings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate pings: %w", err)
	}
	return hits, nil
}

// CountPings counts the user's pings in the window's padded UTC range. It is
// an estimate for sizing a preview, not an exact local-date count.
func (s *PingStore) CountPings(ctx context.Context, userID string, window visits.DateWindow) (int64, error) {
	from, to := utcRange(window)

	query := `SELECT COUNT(*) FROM location_pings WHERE user_id = ? AND recorded_at >= ? AND recorded_at < ?`
	args := []any{userID, from, to}
	if s.maxAccuracyMeters > 0 {
		query += ` AND (accuracy_meters IS NULL OR accuracy_meters <= ?)`
		args = append(args, s.maxAccuracyMeters)
	}

	start := time.Now()
	var n int64
	err := s.db.conn.QueryRowContext(ctx, query, args...).Scan(&n)
	metrics.RecordDBQuery("count", "location_pings", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count pings: %w", err)
	}
	return n, nil
}

// InsertPings writes pings in one transaction and returns how many were stored.
// Pings with invalid coordinates are rejected before anything is written.
func (s *PingStore) InsertPings(ctx context.Context, pings []visits.Ping) (inserted int, err error) {
	if len(pings) == 0 {
		return 0, nil
	}
	for i := range pings {
		if verr := pings[i].Coordinate.Validate(); verr != nil {
			return 0, fmt.Errorf("ping %d: %w", i, verr)
		}
		if pings[i].UserID == "" || pings[i].RecordedAt.IsZero() {
			return 0, fmt.Errorf("ping %d: user id and recorded time are required", i)
		}
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", "location_pings", time.Since(start), err) }()

	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollbackQuietly(tx, err)
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO location_pings (
			id, user_id, latitude, longitude, recorded_at, local_timestamp,
			time_zone, accuracy_meters, user_invoked, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare ping insert: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for i := range pings {
		p := &pings[i]
		var local sql.NullTime
		if p.LocalTimestamp != nil {
			// Keep the wall clock digits; the zone is meaningless here.
			lt := *p.LocalTimestamp
			local = sql.NullTime{
				Time:  time.Date(lt.Year(), lt.Month(), lt.Day(), lt.Hour(), lt.Minute(), lt.Second(), lt.Nanosecond(), time.UTC),
				Valid: true,
			}
		}
		var accuracy sql.NullFloat64
		if p.AccuracyMeters != nil {
			accuracy = sql.NullFloat64{Float64: *p.AccuracyMeters, Valid: true}
		}

		if _, err = stmt.ExecContext(ctx,
			uuid.New().String(), p.UserID, p.Coordinate.Latitude, p.Coordinate.Longitude,
			p.RecordedAt.UTC(), local, nullString(p.TimeZone), accuracy, p.UserInvoked, nullString(p.Source),
		); err != nil {
			return 0, fmt.Errorf("failed to insert ping %d: %w", i, err)
		}
		inserted++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit pings: %w", err)
	}
	return inserted, nil
}

// utcRange converts a local-date window to bound parameters, filling open ends.
func utcRange(window visits.DateWindow) (time.Time, time.Time) {
	from, to := minPingTime, maxPingTime
	f, t := window.UTCBounds()
	if f != nil {
		from = *f
	}
	if t != nil {
		to = *t
	}
	return from, to
}
