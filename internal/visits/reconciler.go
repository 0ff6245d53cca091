// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package visits

import (
	"sort"
	"time"

	"github.com/tomtom215/footprint/internal/geo"
)

// Stale reasons.
const (
	ReasonPlaceDeleted = "place deleted"
	ReasonPlaceMoved   = "place moved"
)

// NewVisit is a confirmed candidate that is not yet recorded.
type NewVisit struct {
	PlaceID           string    `json:"placeId"`
	PlaceName         string    `json:"placeName"`
	Region            string    `json:"region,omitempty"`
	Date              LocalDate `json:"date"`
	FirstSeenUTC      time.Time `json:"firstSeenUtc"`
	LastSeenUTC       time.Time `json:"lastSeenUtc"`
	Confidence        int       `json:"confidence"`
	HitCount          int       `json:"hitCount"`
	MinDistanceMeters float64   `json:"minDistanceMeters"`
	AvgDistanceMeters float64   `json:"avgDistanceMeters"`
}

// SuggestedVisit is a weaker candidate that needs explicit confirmation.
type SuggestedVisit struct {
	PlaceID           string    `json:"placeId"`
	PlaceName         string    `json:"placeName"`
	Region            string    `json:"region,omitempty"`
	Date              LocalDate `json:"date"`
	FirstSeenUTC      time.Time `json:"firstSeenUtc"`
	LastSeenUTC       time.Time `json:"lastSeenUtc"`
	Tier1Hits         int       `json:"tier1Hits"`
	Tier2Hits         int       `json:"tier2Hits"`
	Tier3Hits         int       `json:"tier3Hits"`
	CheckInNearby     bool      `json:"checkInNearby"`
	AvgDistanceMeters float64   `json:"avgDistanceMeters"`
	Reason            string    `json:"reason"`
}

// StaleVisit is an existing visit whose place was deleted or moved.
type StaleVisit struct {
	VisitID        string    `json:"visitId"`
	PlaceID        *string   `json:"placeId,omitempty"`
	PlaceName      string    `json:"placeName"`
	Region         string    `json:"region,omitempty"`
	Date           LocalDate `json:"date"`
	ArrivedAtUTC   time.Time `json:"arrivedAtUtc"`
	Reason         string    `json:"reason"`
	DistanceMeters *float64  `json:"distanceMeters,omitempty"`
}

// ExistingVisit is a recorded visit returned for display only.
type ExistingVisit struct {
	VisitID      string     `json:"visitId"`
	PlaceID      *string    `json:"placeId,omitempty"`
	PlaceName    string     `json:"placeName"`
	Region       string     `json:"region,omitempty"`
	Date         LocalDate  `json:"date"`
	ArrivedAtUTC time.Time  `json:"arrivedAtUtc"`
	EndedAtUTC   *time.Time `json:"endedAtUtc,omitempty"`
	Origin       Origin     `json:"origin"`
}

// ReconcileInput is everything the reconciler looks at. It performs no I/O.
type ReconcileInput struct {
	Confirmed []ClassifiedCandidate
	Suggested []ClassifiedCandidate

	// Existing visits, already limited to the preview date window.
	Existing []Visit

	// Places holds every current place of the trip keyed by id, including
	// places without coordinates.
	Places map[string]Place

	StrictRadiusMeters float64
}

// Reconciliation holds the four preview buckets.
type Reconciliation struct {
	New       []NewVisit
	Suggested []SuggestedVisit
	Stale     []StaleVisit
	Existing  []ExistingVisit
}

type placeDateKey struct {
	placeID string
	date    LocalDate
}

type nameDateKey struct {
	name string
	date LocalDate
}

// Reconcile merges candidates against existing visits.
//
// Every existing visit, stale or not, suppresses candidates for the same
// place id and date, or for the same name snapshot and date. The name match
// covers places that were renamed or deleted and recreated.
func Reconcile(in ReconcileInput) *Reconciliation {
	byPlace := make(map[placeDateKey]struct{}, len(in.Existing))
	byName := make(map[nameDateKey]struct{}, len(in.Existing))
	out := &Reconciliation{}

	for i := range in.Existing {
		v := &in.Existing[i]
		if v.PlaceID != nil {
			byPlace[placeDateKey{*v.PlaceID, v.LocalDate}] = struct{}{}
		}
		if name := normalizeName(v.PlaceName); name != "" {
			byName[nameDateKey{name, v.LocalDate}] = struct{}{}
		}

		if stale, ok := staleness(v, in.Places, in.StrictRadiusMeters); ok {
			out.Stale = append(out.Stale, stale)
			continue
		}
		out.Existing = append(out.Existing, ExistingVisit{
			VisitID:      v.ID,
			PlaceID:      v.PlaceID,
			PlaceName:    v.PlaceName,
			Region:       v.Region,
			Date:         v.LocalDate,
			ArrivedAtUTC: v.ArrivedAt,
			EndedAtUTC:   v.EndedAt,
			Origin:       v.Origin,
		})
	}

	recorded := func(c *Candidate) bool {
		if _, ok := byPlace[placeDateKey{c.PlaceID, c.Date}]; ok {
			return true
		}
		_, ok := byName[nameDateKey{normalizeName(c.PlaceName), c.Date}]
		return ok
	}

	for i := range in.Confirmed {
		c := &in.Confirmed[i]
		if recorded(&c.Candidate) {
			continue
		}
		out.New = append(out.New, NewVisit{
			PlaceID:           c.PlaceID,
			PlaceName:         c.PlaceName,
			Region:            c.Region,
			Date:              c.Date,
			FirstSeenUTC:      c.FirstSeen.UTC(),
			LastSeenUTC:       c.LastSeen.UTC(),
			Confidence:        c.Confidence,
			HitCount:          c.TotalHits(),
			MinDistanceMeters: c.MinDistanceMeters,
			AvgDistanceMeters: c.AvgDistanceMeters,
		})
	}

	for i := range in.Suggested {
		c := &in.Suggested[i]
		if recorded(&c.Candidate) {
			continue
		}
		out.Suggested = append(out.Suggested, SuggestedVisit{
			PlaceID:           c.PlaceID,
			PlaceName:         c.PlaceName,
			Region:            c.Region,
			Date:              c.Date,
			FirstSeenUTC:      c.FirstSeen.UTC(),
			LastSeenUTC:       c.LastSeen.UTC(),
			Tier1Hits:         c.Tier1Hits,
			Tier2Hits:         c.Tier2Hits,
			Tier3Hits:         c.Tier3Hits,
			CheckInNearby:     c.CheckInNearby,
			AvgDistanceMeters: c.AvgDistanceMeters,
			Reason:            c.Reason,
		})
	}

	sort.Slice(out.Stale, func(i, j int) bool {
		if out.Stale[i].Date != out.Stale[j].Date {
			return out.Stale[i].Date < out.Stale[j].Date
		}
		return out.Stale[i].VisitID < out.Stale[j].VisitID
	})
	sort.Slice(out.Existing, func(i, j int) bool {
		if out.Existing[i].Date != out.Existing[j].Date {
			return out.Existing[i].Date < out.Existing[j].Date
		}
		return out.Existing[i].VisitID < out.Existing[j].VisitID
	})

	return out
}

// staleness reports whether v no longer matches its place.
func staleness(v *Visit, places map[string]Place, strictRadius float64) (StaleVisit, bool) {
	stale := StaleVisit{
		VisitID:      v.ID,
		PlaceID:      v.PlaceID,
		PlaceName:    v.PlaceName,
		Region:       v.Region,
		Date:         v.LocalDate,
		ArrivedAtUTC: v.ArrivedAt,
	}

	if v.PlaceID == nil {
		stale.Reason = ReasonPlaceDeleted
		return stale, true
	}
	place, ok := places[*v.PlaceID]
	if !ok {
		stale.Reason = ReasonPlaceDeleted
		return stale, true
	}

	// Without both coordinates there is nothing to measure drift against.
	if place.Coordinate == nil || v.Coordinate == nil {
		return StaleVisit{}, false
	}
	drift := geo.Distance(*v.Coordinate, *place.Coordinate)
	if drift > strictRadius {
		stale.Reason = ReasonPlaceMoved
		stale.DistanceMeters = &drift
		return stale, true
	}
	return StaleVisit{}, false
}
