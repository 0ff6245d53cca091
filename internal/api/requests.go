// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package api

import (
	"time"

	"github.com/tomtom215/footprint/internal/visits"
)

// Request bodies carry go-playground/validator tags and are checked with
// validation.ValidateStruct before any conversion to engine types:
//   - datetime=2006-01-02: calendar dates only
//   - required: apply items need placeId and date
//   - uuid: visit ids to delete
//   - max=n,dive: list size bound plus per-element checks

// maxApplyItems bounds each list of an apply body.
const maxApplyItems = 10000

// PreviewBody is the body of POST .../backfill/preview and .../backfill/jobs.
// Both dates are optional; an empty body previews the whole history.
type PreviewBody struct {
	DateFrom string `json:"dateFrom,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `json:"dateTo,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (b *PreviewBody) toRequest(tripID string) visits.PreviewRequest {
	return visits.PreviewRequest{TripID: tripID, DateFrom: b.DateFrom, DateTo: b.DateTo}
}

// ApplyItemBody is one (place, date) the user approved from a preview.
// The seen times are optional and only enrich the stored visit.
type ApplyItemBody struct {
	PlaceID      string    `json:"placeId" validate:"required,max=128"`
	Date         string    `json:"date" validate:"required,datetime=2006-01-02"`
	FirstSeenUTC time.Time `json:"firstSeenUtc"`
	LastSeenUTC  time.Time `json:"lastSeenUtc"`
}

// ApplyBody is the body of POST .../backfill/apply.
type ApplyBody struct {
	CreateVisits         []ApplyItemBody `json:"createVisits" validate:"max=10000,dive"`
	ConfirmedSuggestions []ApplyItemBody `json:"confirmedSuggestions" validate:"max=10000,dive"`
	DeleteVisitIDs       []string        `json:"deleteVisitIds" validate:"max=10000,dive,uuid"`
}

func (b *ApplyBody) toRequest(tripID string) *visits.ApplyRequest {
	return &visits.ApplyRequest{
		TripID:               tripID,
		CreateVisits:         toApplyItems(b.CreateVisits),
		ConfirmedSuggestions: toApplyItems(b.ConfirmedSuggestions),
		DeleteVisitIDs:       b.DeleteVisitIDs,
	}
}

func toApplyItems(items []ApplyItemBody) []visits.ApplyItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]visits.ApplyItem, len(items))
	for i := range items {
		out[i] = visits.ApplyItem{
			PlaceID:      items[i].PlaceID,
			Date:         visits.LocalDate(items[i].Date),
			FirstSeenUTC: items[i].FirstSeenUTC,
			LastSeenUTC:  items[i].LastSeenUTC,
		}
	}
	return out
}
