// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/footprint/internal/logging"
	"github.com/tomtom215/footprint/internal/visits"
)

// Recorder writes an Entry for every applied event.
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder creates a recorder over store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Handle records event. It has the events.AppliedHandler signature.
func (r *Recorder) Handle(ctx context.Context, event visits.AppliedEvent) error {
	entry := &Entry{
		ID:            uuid.New().String(),
		Timestamp:     r.now().UTC(),
		TripID:        event.TripID,
		UserID:        event.UserID,
		Created:       event.Created,
		Confirmed:     event.Confirmed,
		Deleted:       event.Deleted,
		CorrelationID: logging.CorrelationIDFromContext(ctx),
	}

	// The handler context is the publisher's; the apply request may already
	// be finished.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.store.Save(saveCtx, entry); err != nil {
		return fmt.Errorf("record apply of trip %s: %w", event.TripID, err)
	}

	logging.Ctx(ctx).Debug().
		Str("trip_id", entry.TripID).
		Int("changes", entry.Total()).
		Msg("Recorded backfill apply")
	return nil
}

// PublishVisitsApplied implements visits.EventPublisher by recording inline.
// Used where no event bus runs, such as the CLI.
func (r *Recorder) PublishVisitsApplied(ctx context.Context, event visits.AppliedEvent) error {
	return r.Handle(ctx, event)
}
