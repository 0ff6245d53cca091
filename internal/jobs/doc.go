// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

// Package jobs runs backfill previews in the background.
//
// A preview over years of pings can take minutes. Clients submit a job, poll
// it, and may cancel it. Job state lives in BadgerDB with a TTL so a result
// can be fetched after the client reconnects, and so finished jobs expire on
// their own.
//
// Lifecycle:
//
//	queued -> running -> completed | failed | cancelled
//	queued -> cancelled
//
// A cancelled running job keeps the partial preview computed before the
// cancellation was observed (Preview.Truncated is set).
//
// The Runner is a suture.Service. Its worker count bounds how many previews
// run at once across all clients; each preview still uses its own bounded
// chunk pool inside the engine.
package jobs
