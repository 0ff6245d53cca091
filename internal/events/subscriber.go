// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package events

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tomtom215/footprint/internal/cache"
	"github.com/tomtom215/footprint/internal/logging"
	"github.com/tomtom215/footprint/internal/metrics"
	"github.com/tomtom215/footprint/internal/visits"
)

// AppliedHandler reacts to a committed apply.
type AppliedHandler func(ctx context.Context, event visits.AppliedEvent) error

// errSubscriptionClosed is returned by Serve when the bus closed under it, so
// the supervisor restarts the subscription.
var errSubscriptionClosed = errors.New("subscription closed")

// Subscriber consumes visits.applied events. It implements suture.Service.
//
// Every message is acked, including malformed ones and ones whose handler
// failed: the in-process bus would otherwise redeliver them forever, and the
// handlers only refresh derived state.
type Subscriber struct {
	bus     *Bus
	name    string
	handler AppliedHandler
	logger  zerolog.Logger

	// onSubscribed runs once the subscription is registered.
	onSubscribed func()
}

// NewSubscriber creates a subscriber service.
func NewSubscriber(bus *Bus, name string, handler AppliedHandler) *Subscriber {
	return &Subscriber{
		bus:     bus,
		name:    name,
		handler: handler,
		logger:  logging.WithComponent("events").With().Str("subscriber", name).Logger(),
	}
}

// Serve consumes events until ctx is done.
func (s *Subscriber) Serve(ctx context.Context) error {
	msgs, err := s.bus.Subscribe(ctx, TopicVisitsApplied)
	if err != nil {
		return err
	}
	s.logger.Info().Str("topic", TopicVisitsApplied).Msg("Event subscriber started")
	if s.onSubscribed != nil {
		s.onSubscribed()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errSubscriptionClosed
			}

			event, err := decodeApplied(msg)
			if err != nil {
				s.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed event")
				metrics.RecordEventHandled(TopicVisitsApplied, err)
				msg.Ack()
				continue
			}

			hctx := msg.Context()
			if id := msg.Metadata.Get(metadataCorrelationID); id != "" {
				hctx = logging.ContextWithCorrelationID(hctx, id)
			}
			err = s.handler(hctx, event)
			metrics.RecordEventHandled(TopicVisitsApplied, err)
			if err != nil {
				s.logger.Warn().Err(err).Str("trip_id", event.TripID).Msg("Event handler failed")
			}
			msg.Ack()
		}
	}
}

// String returns the service name for logging.
func (s *Subscriber) String() string {
	return s.name
}

// TripInvalidator drops cached entries of one trip.
type TripInvalidator interface {
	DeletePrefix(prefix string) int
}

// InvalidateTrip returns a handler that evicts the trip's cached entries,
// keyed with cache.TripKey.
func InvalidateTrip(c TripInvalidator) AppliedHandler {
	return func(ctx context.Context, event visits.AppliedEvent) error {
		n := c.DeletePrefix(cache.TripPrefix(event.TripID))
		logging.Ctx(ctx).Debug().
			Str("trip_id", event.TripID).
			Int("evicted", n).
			Msg("Invalidated cached trip info")
		return nil
	}
}
