// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package visits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/footprint/internal/geo"
	"github.com/tomtom215/footprint/internal/logging"
)

// ApplyItem identifies one (place, date) from a preview.
type ApplyItem struct {
	PlaceID      string    `json:"placeId"`
	Date         LocalDate `json:"date"`
	FirstSeenUTC time.Time `json:"firstSeenUtc"`
	LastSeenUTC  time.Time `json:"lastSeenUtc"`
}

// ApplyRequest is the user-approved subset of a preview.
type ApplyRequest struct {
	TripID               string      `json:"tripId"`
	CreateVisits         []ApplyItem `json:"createVisits"`
	ConfirmedSuggestions []ApplyItem `json:"confirmedSuggestions"`
	DeleteVisitIDs       []string    `json:"deleteVisitIds"`
}

// Empty reports whether the request asks for no changes.
func (r *ApplyRequest) Empty() bool {
	return len(r.CreateVisits) == 0 && len(r.ConfirmedSuggestions) == 0 && len(r.DeleteVisitIDs) == 0
}

// ApplyResponse reports definitive outcome counts of a committed apply.
type ApplyResponse struct {
	Success   bool   `json:"success"`
	Created   int    `json:"created"`
	Confirmed int    `json:"confirmed"`
	Deleted   int    `json:"deleted"`
	Skipped   int    `json:"skipped"`
	Message   string `json:"message,omitempty"`
}

// Skip reasons, in message order.
const (
	skipAlreadyRecorded = "already recorded"
	skipPlaceMissing    = "place no longer available"
	skipVisitMissing    = "visit already deleted"
)

var skipOrder = []string{skipAlreadyRecorded, skipPlaceMissing, skipVisitMissing}

// Applier commits approved preview items in one transaction.
type Applier struct {
	catalog PlaceCatalog
	store   VisitStore
	now     func() time.Time
	newID   func() string
	logger  zerolog.Logger
}

// NewApplier creates an applier.
func NewApplier(catalog PlaceCatalog, store VisitStore) *Applier {
	return &Applier{
		catalog: catalog,
		store:   store,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
		logger:  logging.WithComponent("visit-applier"),
	}
}

// applyCounts accumulates outcomes inside the transaction.
type applyCounts struct {
	created, confirmed, deleted int
	skipped                     map[string]int
}

func (c *applyCounts) skip(reason string) {
	c.skipped[reason]++
}

func (c *applyCounts) totalSkipped() int {
	n := 0
	for _, v := range c.skipped {
		n += v
	}
	return n
}

// Apply deletes, then creates and confirms, all inside one transaction.
//
// Items that became redundant since the preview (a visit now exists, the
// place or visit is gone) are skipped rather than failing the batch. A
// uniqueness violation on insert is a skip too. Cancellation before commit
// rolls everything back and returns ErrCancelled.
func (a *Applier) Apply(ctx context.Context, trip *Trip, req *ApplyRequest) (*ApplyResponse, error) {
	if err := validateApplyRequest(req); err != nil {
		return nil, err
	}

	places, err := a.catalog.ListPlaces(ctx, trip.ID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	byID := make(map[string]*Place, len(places))
	for i := range places {
		byID[places[i].ID] = &places[i]
	}

	var counts *applyCounts

	err = a.store.WithTx(ctx, func(tx VisitTx) error {
		// A store may rerun fn after a write conflict.
		counts = &applyCounts{skipped: make(map[string]int)}

		for _, id := range req.DeleteVisitIDs {
			if ctx.Err() != nil {
				return ErrCancelled
			}
			err := tx.Delete(ctx, trip.UserID, id)
			switch {
			case err == nil:
				counts.deleted++
			case errors.Is(err, ErrVisitNotFound):
				counts.skip(skipVisitMissing)
			default:
				return fmt.Errorf("failed to delete visit %s: %w", id, err)
			}
		}

		for i := range req.CreateVisits {
			created, err := a.insertItem(ctx, tx, trip, byID, &req.CreateVisits[i], OriginBackfill, counts)
			if err != nil {
				return err
			}
			if created {
				counts.created++
			}
		}

		for i := range req.ConfirmedSuggestions {
			created, err := a.insertItem(ctx, tx, trip, byID, &req.ConfirmedSuggestions[i], OriginBackfillUserConfirmed, counts)
			if err != nil {
				return err
			}
			if created {
				counts.confirmed++
			}
		}

		if ctx.Err() != nil {
			return ErrCancelled
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCancelled) || ctx.Err() != nil {
			a.logger.Debug().Str("trip_id", trip.ID).Msg("Apply cancelled, rolled back")
			return nil, ErrCancelled
		}
		return nil, err
	}

	resp := &ApplyResponse{
		Success:   true,
		Created:   counts.created,
		Confirmed: counts.confirmed,
		Deleted:   counts.deleted,
		Skipped:   counts.totalSkipped(),
		Message:   skipMessage(counts.skipped),
	}
	return resp, nil
}

// insertItem creates one visit. It returns false with a nil error when the
// item was skipped.
func (a *Applier) insertItem(ctx context.Context, tx VisitTx, trip *Trip, places map[string]*Place,
	item *ApplyItem, origin Origin, counts *applyCounts) (bool, error) {
	if ctx.Err() != nil {
		return false, ErrCancelled
	}

	place, ok := places[item.PlaceID]
	if !ok || place.Coordinate == nil {
		counts.skip(skipPlaceMissing)
		return false, nil
	}

	exists, err := tx.Exists(ctx, trip.UserID, place.ID, item.Date)
	if err != nil {
		return false, fmt.Errorf("failed to check existing visit: %w", err)
	}
	if exists {
		counts.skip(skipAlreadyRecorded)
		return false, nil
	}

	v := a.snapshot(trip, place, item, origin)
	if err := tx.Insert(ctx, v); err != nil {
		if errors.Is(err, ErrDuplicateVisit) {
			counts.skip(skipAlreadyRecorded)
			return false, nil
		}
		return false, fmt.Errorf("failed to insert visit: %w", err)
	}
	return true, nil
}

// snapshot copies the place fields onto a new visit record.
func (a *Applier) snapshot(trip *Trip, place *Place, item *ApplyItem, origin Origin) *Visit {
	placeID := place.ID
	coord := geo.Point{Latitude: place.Coordinate.Latitude, Longitude: place.Coordinate.Longitude}

	arrived := item.FirstSeenUTC.UTC()
	if item.FirstSeenUTC.IsZero() {
		arrived = item.Date.Time()
	}
	var ended *time.Time
	if !item.LastSeenUTC.IsZero() {
		t := item.LastSeenUTC.UTC()
		ended = &t
	}

	return &Visit{
		ID:         a.newID(),
		UserID:     trip.UserID,
		TripID:     trip.ID,
		TripName:   trip.Name,
		PlaceID:    &placeID,
		PlaceName:  place.Name,
		Region:     place.Region,
		LocalDate:  item.Date,
		ArrivedAt:  arrived,
		EndedAt:    ended,
		Coordinate: &coord,
		Icon:       place.Icon,
		Color:      place.Color,
		Origin:     origin,
		CreatedAt:  a.now().UTC(),
	}
}

func validateApplyRequest(req *ApplyRequest) error {
	check := func(field string, items []ApplyItem) error {
		for i := range items {
			if strings.TrimSpace(items[i].PlaceID) == "" {
				return newInputError(fmt.Sprintf("%s[%d].placeId", field, i), "is required")
			}
			d, err := ParseLocalDate(string(items[i].Date))
			if err != nil {
				return newInputError(fmt.Sprintf("%s[%d].date", field, i), err.Error())
			}
			items[i].Date = d
		}
		return nil
	}
	if err := check("createVisits", req.CreateVisits); err != nil {
		return err
	}
	if err := check("confirmedSuggestions", req.ConfirmedSuggestions); err != nil {
		return err
	}
	for i, id := range req.DeleteVisitIDs {
		if strings.TrimSpace(id) == "" {
			return newInputError(fmt.Sprintf("deleteVisitIds[%d]", i), "is required")
		}
	}
	return nil
}

// skipMessage summarises skipped items, e.g. "2 skipped: 1 already recorded, 1 visit already deleted".
func skipMessage(skipped map[string]int) string {
	total := 0
	parts := make([]string, 0, len(skipped))
	for _, reason := range skipOrder {
		if n := skipped[reason]; n > 0 {
			total += n
			parts = append(parts, fmt.Sprintf("%d %s", n, reason))
		}
	}
	if total == 0 {
		return ""
	}
	return fmt.Sprintf("%d skipped: %s", total, strings.Join(parts, ", "))
}
