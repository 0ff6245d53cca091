// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/footprint/internal/logging"
)

// DuckDBStore implements Store on the backfill_audit table.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore creates a store over db. Call CreateTable before use.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the backfill_audit table and its index if missing.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS backfill_audit (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMP NOT NULL,
			trip_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			created INTEGER NOT NULL,
			confirmed INTEGER NOT NULL,
			deleted INTEGER NOT NULL,
			correlation_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_backfill_audit_trip ON backfill_audit(trip_id, timestamp)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute audit schema statement: %w", err)
		}
	}
	logging.Debug().Msg("Backfill audit table created/verified")
	return nil
}

// Save persists an entry.
func (s *DuckDBStore) Save(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("entry cannot be nil")
	}

	var correlationID *string
	if entry.CorrelationID != "" {
		correlationID = &entry.CorrelationID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO backfill_audit (id, timestamp, trip_id, user_id, created, confirmed, deleted, correlation_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp.UTC(), entry.TripID, entry.UserID,
		entry.Created, entry.Confirmed, entry.Deleted, correlationID)
	if err != nil {
		return fmt.Errorf("failed to save audit entry: %w", err)
	}
	return nil
}

// Query returns entries matching filter, newest first.
func (s *DuckDBStore) Query(ctx context.Context, filter Filter) ([]Entry, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.TripID != "" {
		conditions = append(conditions, "trip_id = ?")
		args = append(args, filter.TripID)
	}
	if filter.Since != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.Since.UTC())
	}

	query := `SELECT id, timestamp, trip_id, user_id, created, confirmed, deleted, correlation_id FROM backfill_audit`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC, id LIMIT ?"
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e             Entry
			correlationID sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.TripID, &e.UserID,
			&e.Created, &e.Confirmed, &e.Deleted, &correlationID); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		e.CorrelationID = correlationID.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}
	return entries, nil
}

// Delete removes entries older than olderThan.
func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM backfill_audit WHERE timestamp < ?`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit entries: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}
	return count, nil
}
