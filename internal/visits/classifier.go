// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package visits

import (
	"fmt"
	"math"
	"sort"
)

// Status is the outcome of classifying a candidate.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusSuggested Status = "suggested"
	StatusRejected  Status = "rejected"
)

// ReasonCheckIn is the suggestion reason for a manual check-in inside the outer radius.
const ReasonCheckIn = "user checked in nearby"

// Confidence weights. Hit count dominates; proximity refines.
const (
	hitWeight       = 0.6
	proximityWeight = 0.4
)

// Classification is the verdict for one candidate.
type Classification struct {
	Status     Status
	Confidence int // 0-100, confirmed candidates only
	Reason     string
}

// ClassifiedCandidate pairs a candidate with its verdict.
type ClassifiedCandidate struct {
	Candidate
	Classification
}

// Classifier decides confirmed/suggested/rejected for candidates. It is pure
// and safe for concurrent use.
type Classifier struct {
	cfg Config
}

// NewClassifier creates a classifier for the given tuning.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify applies the tier thresholds to one candidate.
//
// Tier-1 evidence alone can confirm. Cross-tier evidence or a nearby check-in
// can only suggest; a check-in never confirms on its own.
func (c *Classifier) Classify(cand *Candidate) Classification {
	if cand.Tier1Hits >= c.cfg.MinConfirmedHits {
		return Classification{
			Status:     StatusConfirmed,
			Confidence: c.Confidence(cand.Tier1Hits, cand.AvgDistanceMeters),
		}
	}

	if outer := cand.Tier2Hits + cand.Tier3Hits; outer >= c.cfg.MinSuggestedHits {
		return Classification{
			Status: StatusSuggested,
			Reason: fmt.Sprintf("cross-tier: %d pings within tier-2 radius, %d within tier-3 radius",
				cand.Tier2Hits, cand.Tier3Hits),
		}
	}

	if cand.CheckInNearby {
		return Classification{Status: StatusSuggested, Reason: ReasonCheckIn}
	}

	return Classification{Status: StatusRejected}
}

// Confidence scores tier-1 evidence on a 0-100 scale. It never decreases as
// hits grow, never increases as the average distance grows, and saturates at
// 100 for hits at or beyond the saturation count with zero distance.
func (c *Classifier) Confidence(tier1Hits int, avgDistanceMeters float64) int {
	if tier1Hits <= 0 {
		return 0
	}
	saturation := c.cfg.ConfidenceSaturationHits
	if saturation < 1 {
		saturation = 1
	}
	hitFactor := math.Min(1, float64(tier1Hits)/float64(saturation))

	avg := math.Max(0, avgDistanceMeters)
	proximity := c.cfg.StrictRadiusMeters / (c.cfg.StrictRadiusMeters + avg)

	score := math.Round(100 * (hitWeight*hitFactor + proximityWeight*proximity))
	return int(math.Max(0, math.Min(100, score)))
}

// ClassifyAll classifies candidates and returns the confirmed and suggested
// ones, each sorted. Rejected candidates are dropped.
func (c *Classifier) ClassifyAll(cands []Candidate, observe func(Status)) (confirmed, suggested []ClassifiedCandidate) {
	for i := range cands {
		cl := c.Classify(&cands[i])
		if observe != nil {
			observe(cl.Status)
		}
		switch cl.Status {
		case StatusConfirmed:
			confirmed = append(confirmed, ClassifiedCandidate{Candidate: cands[i], Classification: cl})
		case StatusSuggested:
			suggested = append(suggested, ClassifiedCandidate{Candidate: cands[i], Classification: cl})
		}
	}
	SortCandidates(confirmed)
	SortCandidates(suggested)
	return confirmed, suggested
}

// SortCandidates orders by confidence desc, average distance asc, total hits
// desc, then place id and date so equal inputs always give equal output.
func SortCandidates(cands []ClassifiedCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := &cands[i], &cands[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.AvgDistanceMeters != b.AvgDistanceMeters {
			return a.AvgDistanceMeters < b.AvgDistanceMeters
		}
		if ah, bh := a.TotalHits(), b.TotalHits(); ah != bh {
			return ah > bh
		}
		if a.PlaceID != b.PlaceID {
			return a.PlaceID < b.PlaceID
		}
		return a.Date < b.Date
	})
}
