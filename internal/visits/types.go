// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package visits

import (
	"context"
	"strings"
	"time"

	"github.com/tomtom215/footprint/internal/geo"
)

// Origin tags how a visit record came to exist.
type Origin string

const (
	// OriginRealtime is set by the live tracking trigger, outside this package.
	OriginRealtime Origin = "realtime"

	// OriginBackfill marks visits created from confirmed candidates.
	OriginBackfill Origin = "backfill"

	// OriginBackfillUserConfirmed marks visits the user vouched for from the
	// suggestions list.
	OriginBackfillUserConfirmed Origin = "backfill-user-confirmed"
)

// Trip owns a set of places and belongs to one user.
type Trip struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	UserID string `json:"userId"`
}

// Place is a user-curated point of interest. Places without a coordinate are
// never analyzed.
type Place struct {
	ID         string     `json:"id"`
	TripID     string     `json:"tripId"`
	Name       string     `json:"name"`
	Region     string     `json:"region,omitempty"`
	Coordinate *geo.Point `json:"coordinate,omitempty"`
	Icon       string     `json:"icon,omitempty"`
	Color      string     `json:"color,omitempty"`
}

// Ping is one raw location sample.
type Ping struct {
	UserID         string     `json:"userId"`
	Coordinate     geo.Point  `json:"coordinate"`
	RecordedAt     time.Time  `json:"recordedAt"`               // UTC
	LocalTimestamp *time.Time `json:"localTimestamp,omitempty"` // device wall clock
	TimeZone       string     `json:"timeZone,omitempty"`       // IANA name
	AccuracyMeters *float64   `json:"accuracyMeters,omitempty"`
	UserInvoked    bool       `json:"userInvoked"` // manual check-in
	Source         string     `json:"source,omitempty"`
}

// LocalDate resolves the calendar date this ping belongs to.
func (p *Ping) LocalDate() LocalDate {
	return ResolveLocalDate(p.RecordedAt, p.LocalTimestamp, p.TimeZone)
}

// PingHit is one ping returned by a proximity range query.
type PingHit struct {
	Timestamp      time.Time
	LocalDate      LocalDate
	DistanceMeters float64
	UserInvoked    bool
}

// Candidate aggregates the pings near one place on one local date. It only
// lives for the duration of a preview.
type Candidate struct {
	PlaceID           string
	PlaceName         string
	Region            string
	Date              LocalDate
	MinDistanceMeters float64
	AvgDistanceMeters float64
	Tier1Hits         int
	Tier2Hits         int
	Tier3Hits         int
	FirstSeen         time.Time
	LastSeen          time.Time
	CheckInNearby     bool
}

// TotalHits is the number of pings inside the outer radius.
func (c *Candidate) TotalHits() int {
	return c.Tier1Hits + c.Tier2Hits + c.Tier3Hits
}

// Visit is a persisted record asserting presence at a place on a local date.
// The place snapshot fields are copied at creation and never updated.
type Visit struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	TripID     string     `json:"tripId"`
	TripName   string     `json:"tripName"`
	PlaceID    *string    `json:"placeId,omitempty"`
	PlaceName  string     `json:"placeName"`
	Region     string     `json:"region,omitempty"`
	LocalDate  LocalDate  `json:"date"`
	ArrivedAt  time.Time  `json:"arrivedAtUtc"`
	EndedAt    *time.Time `json:"endedAtUtc,omitempty"`
	Coordinate *geo.Point `json:"coordinate,omitempty"`
	Icon       string     `json:"icon,omitempty"`
	Color      string     `json:"color,omitempty"`
	Origin     Origin     `json:"origin"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// normalizeName folds a place name for rename-tolerant duplicate matching.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// PingStore is read-only access to location history.
type PingStore interface {
	// RangeQuery returns the user's pings within radiusMeters of center whose
	// local date falls inside window.
	RangeQuery(ctx context.Context, userID string, center geo.Point, radiusMeters float64, window DateWindow) ([]PingHit, error)

	// CountPings estimates how many pings a full scan would touch.
	CountPings(ctx context.Context, userID string, window DateWindow) (int64, error)
}

// PlaceCatalog is read-only access to trips and their places.
type PlaceCatalog interface {
	GetTrip(ctx context.Context, tripID string) (*Trip, error) // ErrTripNotFound
	ListPlacesWithCoordinates(ctx context.Context, tripID string) ([]Place, error)
	ListPlaces(ctx context.Context, tripID string) ([]Place, error)
}

// VisitStore owns persisted visits.
type VisitStore interface {
	ListVisits(ctx context.Context, tripID string) ([]Visit, error)
	CountVisits(ctx context.Context, tripID string) (int, error)

	// WithTx runs fn in one transaction. It commits when fn returns nil and
	// rolls back otherwise. fn may be called again after a write conflict,
	// so it must not carry state across calls.
	WithTx(ctx context.Context, fn func(tx VisitTx) error) error
}

// VisitTx is the write side of a VisitStore transaction.
type VisitTx interface {
	Exists(ctx context.Context, userID, placeID string, date LocalDate) (bool, error)
	Insert(ctx context.Context, v *Visit) error               // ErrDuplicateVisit
	Delete(ctx context.Context, userID, visitID string) error // ErrVisitNotFound
}

// EventPublisher receives notifications about committed applies.
type EventPublisher interface {
	PublishVisitsApplied(ctx context.Context, event AppliedEvent) error
}

// AppliedEvent describes a committed apply.
type AppliedEvent struct {
	TripID    string `json:"tripId"`
	UserID    string `json:"userId"`
	Created   int    `json:"created"`
	Confirmed int    `json:"confirmed"`
	Deleted   int    `json:"deleted"`
}
