// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package audit

import (
	"context"
	"time"
)

// Entry records one committed apply.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	TripID    string    `json:"tripId"`
	UserID    string    `json:"userId"`

	Created   int `json:"created"`
	Confirmed int `json:"confirmed"`
	Deleted   int `json:"deleted"`

	// CorrelationID links the entry to the request that triggered the apply.
	CorrelationID string `json:"correlationId,omitempty"`
}

// Total returns the number of changes the apply made.
func (e *Entry) Total() int {
	return e.Created + e.Confirmed + e.Deleted
}

// Store persists audit entries.
type Store interface {
	// Save persists an entry.
	Save(ctx context.Context, entry *Entry) error

	// Query returns entries matching filter, newest first.
	Query(ctx context.Context, filter Filter) ([]Entry, error)

	// Delete removes entries older than olderThan and returns how many.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// Filter selects entries.
type Filter struct {
	// TripID restricts entries to one trip. Empty matches every trip.
	TripID string

	// Since excludes entries before this time when set.
	Since *time.Time

	// Limit caps the result size. Zero uses DefaultLimit.
	Limit int
}

// Query limits.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// limit returns the effective result cap.
func (f Filter) limit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLimit
	case f.Limit > MaxLimit:
		return MaxLimit
	default:
		return f.Limit
	}
}
