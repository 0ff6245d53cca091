// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

/*
Package middleware provides HTTP middleware for the Footprint API.

All middleware uses chi's func(http.Handler) http.Handler shape and is
mounted by the api package router.

Key Components:

  - RequestID: request and correlation IDs in headers, context and logs
  - RequestLogger: one structured zerolog line per request
  - PrometheusMetrics: request count, latency and in-flight gauge

Middleware Stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)         // must be first: everything below logs with it
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.PrometheusMetrics)

Correlation IDs:

A client may send X-Correlation-ID to tie several requests together, for
example a preview and the apply that follows it. The ID is echoed in the
response, written on every log line, stored on async preview jobs and
carried in the metadata of published events. Client-supplied IDs longer
than 128 bytes or containing non-printable characters are replaced.

Metrics Labels:

PrometheusMetrics labels requests by chi route pattern, e.g.
/api/v1/trips/{tripID}/backfill/preview, so trip ids never become label
values. Requests that match no route share the "unmatched" label.
*/
package middleware
