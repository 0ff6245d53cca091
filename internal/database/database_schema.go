// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

/*
database_schema.go - Database Schema Management

Tables:
  - trips: A user's trip; every place and visit belongs to one
  - places: Named points of interest. latitude/longitude are NULL for places
    the user never pinned
  - location_pings: Raw GPS pings. recorded_at is UTC; local_timestamp is the
    device wall clock stored as a naive TIMESTAMP
  - place_visits: Recorded visits with a snapshot of the place at write time

place_visits carries UNIQUE (user_id, place_id, local_date). It is the only
guard against two concurrent applies writing the same visit. place_id is
cleared, not cascaded, when a place is deleted, so the visit survives as a
stale record.

Timestamps are TIMESTAMP (UTC) rather than TIMESTAMPTZ so the schema needs no
ICU extension.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// getTableCreationQueries returns the table creation SQL statements
func getTableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS trips (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS places (
			id TEXT PRIMARY KEY,
			trip_id TEXT NOT NULL,
			name TEXT NOT NULL,
			region TEXT,
			latitude DOUBLE,
			longitude DOUBLE,
			icon TEXT,
			color TEXT,
			created_at TIMESTAMP NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS location_pings (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			latitude DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			recorded_at TIMESTAMP NOT NULL,
			local_timestamp TIMESTAMP,
			time_zone TEXT,
			accuracy_meters DOUBLE,
			user_invoked BOOLEAN NOT NULL DEFAULT false
		);`,

		`CREATE TABLE IF NOT EXISTS place_visits (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			trip_id TEXT NOT NULL,
			trip_name TEXT,
			place_id TEXT,
			place_name TEXT NOT NULL,
			region TEXT,
			local_date DATE NOT NULL,
			arrived_at TIMESTAMP NOT NULL,
			ended_at TIMESTAMP,
			latitude DOUBLE,
			longitude DOUBLE,
			icon TEXT,
			color TEXT,
			origin TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (user_id, place_id, local_date)
		);`,
	}
}

// createIndexes creates the secondary indexes.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range getIndexQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}

// getIndexQueries returns the index creation SQL statements.
func getIndexQueries() []string {
	return []string{
		// Range query: user, then bounding box and time window
		`CREATE INDEX IF NOT EXISTS idx_pings_user_time ON location_pings(user_id, recorded_at);`,
		`CREATE INDEX IF NOT EXISTS idx_pings_user_lat ON location_pings(user_id, latitude);`,

		`CREATE INDEX IF NOT EXISTS idx_places_trip ON places(trip_id);`,
		`CREATE INDEX IF NOT EXISTS idx_visits_trip ON place_visits(trip_id);`,
		`CREATE INDEX IF NOT EXISTS idx_visits_place ON place_visits(place_id);`,
	}
}
