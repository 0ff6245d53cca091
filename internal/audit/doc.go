// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

/*
Package audit keeps a history of committed backfill applies.

Every apply that changes a trip publishes a visits.applied event. Recorder
turns those events into Entry rows, one per apply, carrying the per-kind
counts and the correlation id of the originating request so an entry can be
matched with the request log.

# Storage

Two Store implementations are provided:

  - DuckDBStore persists entries in the backfill_audit table of the main
    database. Used by the server.
  - MemoryStore keeps a bounded slice in memory. Used in tests and when
    history persistence is disabled.

# Retention

RetentionService is a supervised service that deletes entries older than
the configured retention on a fixed interval:

	store := audit.NewDuckDBStore(db.Conn())
	if err := store.CreateTable(ctx); err != nil {
		return err
	}
	tree.AddMessagingService(events.NewSubscriber(bus, "backfill-audit", audit.NewRecorder(store).Handle))
	tree.AddDataService(audit.NewRetentionService(store, 90*24*time.Hour, 24*time.Hour))

History is written after the apply commits, from the event bus. A crash
between the commit and the event delivery loses the entry but never the
visits.
*/
package audit
