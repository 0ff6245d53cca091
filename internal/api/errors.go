// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/footprint/internal/jobs"
	"github.com/tomtom215/footprint/internal/logging"
	"github.com/tomtom215/footprint/internal/visits"
)

// errJobsDisabled is reported when async previews are not configured.
var errJobsDisabled = errors.New("asynchronous preview jobs are disabled")

// errHistoryDisabled is reported when apply history is not configured.
var errHistoryDisabled = errors.New("apply history is disabled")

// respondEngineError maps engine, job and storage errors to API responses.
//
//	InputError (unknown trip)   -> 404 NOT_FOUND
//	InputError                  -> 400 BAD_REQUEST, details.field
//	ErrCancelled                -> nothing if the client left, else 503
//	ErrBreakerOpen              -> 503 SERVICE_UNAVAILABLE
//	jobs.ErrQueueFull/Stopped   -> 503 SERVICE_UNAVAILABLE
//	jobs.ErrJobNotFound         -> 404 NOT_FOUND
//	anything else               -> 500 DATABASE_ERROR
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)

	var inputErr *visits.InputError
	switch {
	case errors.As(err, &inputErr):
		if errors.Is(err, visits.ErrTripNotFound) {
			rw.NotFound(inputErr.Error())
			return
		}
		var details map[string]string
		if inputErr.Field != "" {
			details = map[string]string{"field": inputErr.Field}
		}
		rw.BadRequestWithDetails(inputErr.Error(), details)

	case errors.Is(err, visits.ErrCancelled):
		// Not a failure: nothing was written.
		logging.Ctx(r.Context()).Debug().Str("path", r.URL.Path).Msg("Request cancelled before commit")
		if r.Context().Err() != nil {
			return // client is gone
		}
		rw.ServiceUnavailable("The operation was cancelled; no changes were written")

	case errors.Is(err, visits.ErrBreakerOpen):
		rw.ServiceUnavailable("Location history is temporarily unavailable")

	case errors.Is(err, jobs.ErrQueueFull):
		w.Header().Set("Retry-After", "30")
		rw.ServiceUnavailable("Too many previews are queued; try again later")

	case errors.Is(err, jobs.ErrRunnerStopped), errors.Is(err, errJobsDisabled),
		errors.Is(err, errHistoryDisabled):
		rw.ServiceUnavailable(err.Error())

	case errors.Is(err, jobs.ErrJobNotFound):
		rw.NotFound("Preview job not found or expired")

	default:
		rw.DatabaseError(err)
	}
}
