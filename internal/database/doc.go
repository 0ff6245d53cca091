// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

// Package database is the DuckDB storage layer behind the visit engine.
//
// # Overview
//
// A single *DB owns the connection pool and schema. It serves the three
// storage ports the visits package defines:
//   - visits.PlaceCatalog: the DB itself (GetTrip, ListPlaces, ListPlacesWithCoordinates)
//   - visits.PingStore: a *PingStore obtained from DB.Pings
//   - visits.VisitStore: the DB itself (ListVisits, CountVisits, WithTx)
//
// # Files
//
//   - database.go: lifecycle (open, initialize, close)
//   - database_connection.go: connection pool tuning
//   - database_schema.go: tables and indexes
//   - database_utils.go: profiling, context defaults, checkpoints, record counts
//   - migrations.go: versioned schema migrations
//   - crud_catalog.go: trips and places
//   - crud_pings.go: ping ingestion and proximity range queries
//   - crud_visits.go: visit reads and the transactional write path
//   - seed.go: demo data for the CLI
//
// # Range Queries
//
// DuckDB runs without the spatial extension. RangeQuery narrows rows in SQL
// with a latitude/longitude bounding box and a padded UTC time range, then
// computes great-circle distance and the local calendar date in Go. A query
// binds exactly seven parameters, plus one when an accuracy cap is set.
//
// # Transactions
//
// DuckDB uses optimistic concurrency. WithTx retries the whole callback on a
// transaction conflict or a commit-time unique violation, with a short
// backoff. The UNIQUE(user_id, place_id, local_date) constraint on
// place_visits is what makes concurrent applies idempotent.
//
// # Usage
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	engine, err := visits.NewEngine(vcfg, db.Pings(cfg.Visits.MaxAccuracyMeters), db, db)
package database
