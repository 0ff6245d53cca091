// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package api

import (
	"net/http"
	"strconv"

	"github.com/tomtom215/footprint/internal/audit"
)

// BackfillHistory handles GET /api/v1/trips/{tripID}/backfill/history.
// Returns the trip's committed applies, newest first. ?limit caps the list
// (default 50, max 500).
func (h *Handler) BackfillHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondEngineError(w, r, errHistoryDisabled)
		return
	}

	filter := audit.Filter{TripID: tripIDParam(r)}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > audit.MaxLimit {
			NewResponseWriter(w, r).BadRequestWithDetails(
				"limit must be an integer between 1 and "+strconv.Itoa(audit.MaxLimit),
				map[string]string{"field": "limit"})
			return
		}
		filter.Limit = limit
	}

	entries, err := h.history.Query(r.Context(), filter)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	WriteSuccess(w, r, entries)
}
