// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package api

import (
	"net/http"

	"github.com/tomtom215/footprint/internal/cache"
	"github.com/tomtom215/footprint/internal/logging"
)

// BackfillInfo handles GET /api/v1/trips/{tripID}/backfill/info.
//
// Responses are cached per trip until the cache TTL passes or an apply for
// the trip commits.
func (h *Handler) BackfillInfo(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	tripID := tripIDParam(r)
	key := cache.TripKey(tripID, infoCacheKey)

	if h.infoCache != nil {
		if info, ok := h.infoCache.Get(key); ok {
			rw.SuccessWithMeta(info, &APIMeta{Cached: true})
			return
		}
	}

	info, err := h.engine.Info(r.Context(), tripID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	if h.infoCache != nil {
		h.infoCache.Set(key, info)
	}
	rw.Success(info)
}

// BackfillPreview handles POST /api/v1/trips/{tripID}/backfill/preview.
//
// The preview runs inside the request. If the client disconnects the scan
// stops at the next place boundary; there is nobody left to answer.
func (h *Handler) BackfillPreview(w http.ResponseWriter, r *http.Request) {
	var body PreviewBody
	if !decodeBody(w, r, &body, true) {
		return
	}

	tripID := tripIDParam(r)
	resp, err := h.engine.Preview(r.Context(), body.toRequest(tripID))
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	if resp.Truncated && r.Context().Err() != nil {
		logging.Ctx(r.Context()).Debug().
			Str("trip_id", sanitizeLogValue(tripID)).
			Msg("Client disconnected during preview")
		return
	}
	WriteSuccess(w, r, resp)
}

// BackfillApply handles POST /api/v1/trips/{tripID}/backfill/apply.
func (h *Handler) BackfillApply(w http.ResponseWriter, r *http.Request) {
	var body ApplyBody
	if !decodeBody(w, r, &body, false) {
		return
	}

	tripID := tripIDParam(r)
	resp, err := h.engine.Apply(r.Context(), body.toRequest(tripID))
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	// The events subscriber invalidates too; doing it here as well means the
	// caller's next info request already sees the new counts.
	if resp.Created+resp.Confirmed+resp.Deleted > 0 {
		h.invalidateTrip(tripID)
	}
	WriteSuccess(w, r, resp)
}
