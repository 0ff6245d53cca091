// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/footprint/internal/jobs"
)

// CreatePreviewJob handles POST /api/v1/trips/{tripID}/backfill/jobs.
// The job is queued and 202 is returned with its id; poll GetPreviewJob.
func (h *Handler) CreatePreviewJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		respondEngineError(w, r, errJobsDisabled)
		return
	}

	var body PreviewBody
	if !decodeBody(w, r, &body, true) {
		return
	}

	job, err := h.jobs.Submit(r.Context(), body.toRequest(tripIDParam(r)))
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	w.Header().Set("Location", r.URL.Path+"/"+job.ID)
	NewResponseWriter(w, r).Accepted(job)
}

// GetPreviewJob handles GET /api/v1/trips/{tripID}/backfill/jobs/{jobID}.
func (h *Handler) GetPreviewJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, r, job)
}

// CancelPreviewJob handles DELETE /api/v1/trips/{tripID}/backfill/jobs/{jobID}.
// A running job ends up cancelled with its partial preview; finished jobs
// are returned unchanged.
func (h *Handler) CancelPreviewJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}
	if job.Status.Terminal() {
		WriteSuccess(w, r, job)
		return
	}

	job, err := h.jobs.Cancel(r.Context(), job.ID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	WriteSuccess(w, r, job)
}

// loadJob fetches {jobID} and checks it belongs to {tripID}. A job of
// another trip is reported as not found.
func (h *Handler) loadJob(w http.ResponseWriter, r *http.Request) (*jobs.Job, bool) {
	if h.jobs == nil {
		respondEngineError(w, r, errJobsDisabled)
		return nil, false
	}

	job, err := h.jobs.Get(r.Context(), chi.URLParam(r, "jobID"))
	if err == nil && job.TripID != tripIDParam(r) {
		err = jobs.ErrJobNotFound
	}
	if err != nil {
		respondEngineError(w, r, err)
		return nil, false
	}
	return job, true
}
