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

	"github.com/tomtom215/footprint/internal/geo"
	"github.com/tomtom215/footprint/internal/logging"
	"github.com/tomtom215/footprint/internal/metrics"
	"github.com/tomtom215/footprint/internal/visits"
)

const visitColumns = `id, user_id, trip_id, trip_name, place_id, place_name, region,
	strftime(local_date, '%Y-%m-%d'), arrived_at, ended_at, latitude, longitude,
	icon, color, origin, created_at`

// ListVisits returns every recorded visit of the trip ordered by date and id.
func (db *DB) ListVisits(ctx context.Context, tripID string) ([]visits.Visit, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+visitColumns+` FROM place_visits WHERE trip_id = ? ORDER BY local_date, id`, tripID)
	if err != nil {
		metrics.RecordDBQuery("select", "place_visits", time.Since(start), err)
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	defer rows.Close()

	out := make([]visits.Visit, 0)
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	err = rows.Err()
	metrics.RecordDBQuery("select", "place_visits", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate visits: %w", err)
	}
	return out, nil
}

// CountVisits returns the number of recorded visits of the trip.
func (db *DB) CountVisits(ctx context.Context, tripID string) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM place_visits WHERE trip_id = ?`, tripID).Scan(&n)
	metrics.RecordDBQuery("count", "place_visits", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return n, nil
}

// InsertVisit records a single visit outside of a backfill, for example from
// the realtime tracker or a seed.
func (db *DB) InsertVisit(ctx context.Context, v *visits.Visit) error {
	return db.WithTx(ctx, func(tx visits.VisitTx) error {
		return tx.Insert(ctx, v)
	})
}

// WithTx runs fn in one transaction.
//
// DuckDB uses optimistic concurrency, so two applies touching the same rows
// can fail at commit. Those conflicts (including a unique violation detected
// at commit) rerun fn with exponential backoff; on the rerun Exists sees the
// other writer's rows.
func (db *DB) WithTx(ctx context.Context, fn func(tx visits.VisitTx) error) error {
	var lastErr error

	for attempt := 0; attempt < db.maxTxRetries; attempt++ {
		err := db.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return err
		}
		if !isTransactionConflict(err) && !isUniqueConstraintError(err) {
			return err
		}

		if attempt < db.maxTxRetries-1 {
			backoff := time.Millisecond * time.Duration(1<<uint(attempt)) // 1ms, 2ms, 4ms
			logging.Debug().Err(err).Int("attempt", attempt+1).Msg("Visit transaction conflict, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return err
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (db *DB) runTx(ctx context.Context, fn func(tx visits.VisitTx) error) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("transaction", "place_visits", time.Since(start), err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollbackQuietly(tx, err)
		}
	}()

	if err = fn(&visitTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit visits: %w", err)
	}
	return nil
}

// visitTx implements visits.VisitTx over a *sql.Tx.
type visitTx struct {
	tx *sql.Tx
}

func (t *visitTx) Exists(ctx context.Context, userID, placeID string, date visits.LocalDate) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM place_visits
		 WHERE user_id = ? AND place_id = ? AND local_date = CAST(? AS DATE))`,
		userID, placeID, string(date),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check visit: %w", err)
	}
	return exists, nil
}

// Insert writes v. A row for the same (user, place, date) yields
// visits.ErrDuplicateVisit and leaves the table untouched.
func (t *visitTx) Insert(ctx context.Context, v *visits.Visit) error {
	var lat, lon sql.NullFloat64
	if v.Coordinate != nil {
		lat = sql.NullFloat64{Float64: v.Coordinate.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: v.Coordinate.Longitude, Valid: true}
	}
	var placeID sql.NullString
	if v.PlaceID != nil {
		placeID = sql.NullString{String: *v.PlaceID, Valid: true}
	}
	var ended sql.NullTime
	if v.EndedAt != nil {
		ended = sql.NullTime{Time: v.EndedAt.UTC(), Valid: true}
	}
	createdAt := v.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var id string
	err := t.tx.QueryRowContext(ctx, `INSERT INTO place_visits (
			id, user_id, trip_id, trip_name, place_id, place_name, region,
			local_date, arrived_at, ended_at, latitude, longitude,
			icon, color, origin, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, CAST(? AS DATE), ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
		RETURNING id`,
		v.ID, v.UserID, v.TripID, nullString(v.TripName), placeID, v.PlaceName, nullString(v.Region),
		string(v.LocalDate), v.ArrivedAt.UTC(), ended, lat, lon,
		nullString(v.Icon), nullString(v.Color), string(v.Origin), createdAt.UTC(),
	).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return visits.ErrDuplicateVisit
	case isUniqueConstraintError(err):
		return fmt.Errorf("%w: %w", visits.ErrDuplicateVisit, err)
	case err != nil:
		return fmt.Errorf("failed to insert visit: %w", err)
	}
	return nil
}

func (t *visitTx) Delete(ctx context.Context, userID, visitID string) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM place_visits WHERE id = ? AND user_id = ?`, visitID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete visit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return visits.ErrVisitNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVisit(row rowScanner) (*visits.Visit, error) {
	var (
		v                                    visits.Visit
		tripName, placeID, region, icon, clr sql.NullString
		localDate, origin                    string
		ended                                sql.NullTime
		lat, lon                             sql.NullFloat64
	)
	if err := row.Scan(&v.ID, &v.UserID, &v.TripID, &tripName, &placeID, &v.PlaceName, &region,
		&localDate, &v.ArrivedAt, &ended, &lat, &lon, &icon, &clr, &origin, &v.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan visit: %w", err)
	}

	v.TripName, v.Region, v.Icon, v.Color = tripName.String, region.String, icon.String, clr.String
	v.LocalDate = visits.LocalDate(localDate)
	v.Origin = visits.Origin(origin)
	v.ArrivedAt = v.ArrivedAt.UTC()
	v.CreatedAt = v.CreatedAt.UTC()
	if placeID.Valid {
		id := placeID.String
		v.PlaceID = &id
	}
	if ended.Valid {
		t := ended.Time.UTC()
		v.EndedAt = &t
	}
	if lat.Valid && lon.Valid {
		v.Coordinate = &geo.Point{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	return &v, nil
}

// rollbackQuietly rolls back tx after cause, logging only a failed rollback.
func rollbackQuietly(tx *sql.Tx, cause error) {
	if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
		logging.Error().
			Err(rbErr).
			AnErr("original_error", cause).
			Msg("Transaction rollback failed")
	}
}
