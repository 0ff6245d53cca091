// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

/*
Package api provides the HTTP interface of the visit backfill workflow.

Routes (chi v5):

	GET    /api/v1/trips/{tripID}/backfill/info           run-time estimate (cached)
	POST   /api/v1/trips/{tripID}/backfill/preview        synchronous preview
	POST   /api/v1/trips/{tripID}/backfill/apply          commit approved changes
	GET    /api/v1/trips/{tripID}/backfill/history        committed applies, newest first
	POST   /api/v1/trips/{tripID}/backfill/jobs           queue an async preview (202)
	GET    /api/v1/trips/{tripID}/backfill/jobs/{jobID}   poll a job
	DELETE /api/v1/trips/{tripID}/backfill/jobs/{jobID}   cancel a job
	GET    /api/v1/health/live                            liveness
	GET    /api/v1/health/ready                           readiness (database ping)
	GET    /metrics                                       Prometheus

Every JSON response uses the APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "NOT_FOUND", "message": "..."}, "meta": {...}}

Error codes:

  - BAD_REQUEST: malformed JSON or an engine input error (details.field)
  - VALIDATION_FAILED: body failed struct validation
  - NOT_FOUND: unknown trip, unknown or expired job
  - SERVICE_UNAVAILABLE: job queue full (with Retry-After), ping store
    breaker open, database not ready
  - TOO_MANY_REQUESTS: rate limited
  - DATABASE_ERROR: storage failure, details only in the server log

Rate Limiting:

All backfill routes share a per-IP limit. Preview and job submission carry a
second, much lower limit because each one may scan a user's entire location
history.

Caching:

Info responses are cached per trip (see cache.TripKey). A committed apply
evicts the trip's entries from the handler directly and again through the
visits.applied event subscriber.

Cancellation:

A preview whose client disconnects stops scanning and writes nothing. An
apply cancelled before commit is rolled back; it is logged at debug and is
not counted as a server error.
*/
package api
