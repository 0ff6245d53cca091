// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/footprint/internal/logging"
	"github.com/tomtom215/footprint/internal/metrics"
	"github.com/tomtom215/footprint/internal/visits"
)

// TopicVisitsApplied carries a visits.AppliedEvent after every committed
// backfill apply.
const TopicVisitsApplied = "visits.applied"

// Metadata keys set on published messages.
const (
	metadataCorrelationID = "correlation_id"
	metadataRequestID     = "request_id"
)

// Bus is an in-process pub/sub backed by a Watermill GoChannel. Messages are
// not persisted: an event published with no subscriber is dropped.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter
}

// NewBus creates a bus. bufferSize is the per-subscriber output buffer.
func NewBus(bufferSize int64) *Bus {
	logger := watermill.NewSlogLogger(logging.NewSlogLogger())
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: bufferSize,
		}, logger),
		logger: logger,
	}
}

// PublishVisitsApplied implements visits.EventPublisher.
func (b *Bus) PublishVisitsApplied(ctx context.Context, event visits.AppliedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal visits applied event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(metadataCorrelationID, id)
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set(metadataRequestID, id)
	}

	if err := b.pubsub.Publish(TopicVisitsApplied, msg); err != nil {
		return fmt.Errorf("publish %s: %w", TopicVisitsApplied, err)
	}
	metrics.EventsPublished.WithLabelValues(TopicVisitsApplied).Inc()
	return nil
}

// Subscribe returns the message stream for topic. The channel closes when
// ctx is done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Close closes the bus and every subscription.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// decodeApplied parses a visits.applied payload.
func decodeApplied(msg *message.Message) (visits.AppliedEvent, error) {
	var event visits.AppliedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return event, fmt.Errorf("unmarshal visits applied event: %w", err)
	}
	if event.TripID == "" {
		return event, fmt.Errorf("visits applied event %s has no trip id", msg.UUID)
	}
	return event, nil
}
