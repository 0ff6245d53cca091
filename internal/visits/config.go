// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package visits

import (
	"fmt"
	"math"
)

// ParamsPerPlaceQuery is the number of bound parameters one place range query
// uses: user id, four bounding-box edges and two time bounds.
const ParamsPerPlaceQuery = 7

// Config tunes the inference engine. It mirrors config.VisitsConfig.
type Config struct {
	// StrictRadiusMeters is the tier-1 radius. It is also the drift beyond
	// which an existing visit's place counts as moved.
	StrictRadiusMeters float64

	// TierMultiplier scales the strict radius to the outer evidence radius (2-100).
	TierMultiplier float64

	MinConfirmedHits         int
	MinSuggestedHits         int
	ConfidenceSaturationHits int

	ChunkSize      int
	MaxQueryParams int
	Workers        int

	// QueriesPerSecond throttles ping store queries across all workers (0 = unlimited).
	QueriesPerSecond float64

	EstimatePlacesPerSecond float64
	EstimatePingsPerSecond  float64
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		StrictRadiusMeters:       50,
		TierMultiplier:           50,
		MinConfirmedHits:         3,
		MinSuggestedHits:         5,
		ConfidenceSaturationHits: 10,
		ChunkSize:                500,
		MaxQueryParams:           65535,
		Workers:                  4,
		EstimatePlacesPerSecond:  25,
		EstimatePingsPerSecond:   50000,
	}
}

// Validate checks the tuning for values the engine cannot work with.
func (c Config) Validate() error {
	switch {
	case c.StrictRadiusMeters <= 0:
		return fmt.Errorf("strict radius must be positive, got %v", c.StrictRadiusMeters)
	case c.TierMultiplier < 2 || c.TierMultiplier > 100:
		return fmt.Errorf("tier multiplier must be between 2 and 100, got %v", c.TierMultiplier)
	case c.MinConfirmedHits < 1 || c.MinSuggestedHits < 1 || c.ConfidenceSaturationHits < 1:
		return fmt.Errorf("hit thresholds must be at least 1")
	case c.ChunkSize < 1 || c.Workers < 1:
		return fmt.Errorf("chunk size and workers must be at least 1")
	case c.MaxQueryParams < ParamsPerPlaceQuery:
		return fmt.Errorf("max query params must be at least %d", ParamsPerPlaceQuery)
	}
	return nil
}

// Tier2Multiplier is k2 = 1 + (m-1)/3, one third of the way from the strict
// radius to the outer radius.
func (c Config) Tier2Multiplier() float64 {
	return 1 + (c.TierMultiplier-1)/3
}

// Tier2RadiusMeters is the outer edge of the tier-2 band.
func (c Config) Tier2RadiusMeters() float64 {
	return c.StrictRadiusMeters * c.Tier2Multiplier()
}

// OuterRadiusMeters is the tier-3 edge and the range query radius.
func (c Config) OuterRadiusMeters() float64 {
	return c.StrictRadiusMeters * c.TierMultiplier
}

// Tier returns the exclusive band a distance falls in: 1, 2, 3, or 0 when
// outside the outer radius.
func (c Config) Tier(distanceMeters float64) int {
	switch {
	case distanceMeters <= c.StrictRadiusMeters:
		return 1
	case distanceMeters <= c.Tier2RadiusMeters():
		return 2
	case distanceMeters <= c.OuterRadiusMeters():
		return 3
	default:
		return 0
	}
}

// EffectiveChunkSize caps ChunkSize so one chunk never binds more than
// MaxQueryParams parameters.
func (c Config) EffectiveChunkSize() int {
	size := c.ChunkSize
	if byParams := c.MaxQueryParams / ParamsPerPlaceQuery; byParams < size {
		size = byParams
	}
	if size < 1 {
		size = 1
	}
	return size
}

// EstimateSeconds predicts preview run time for a place count and ping volume.
func (c Config) EstimateSeconds(places int, pings int64) int {
	placesPerSec := c.EstimatePlacesPerSecond
	if placesPerSec <= 0 {
		placesPerSec = DefaultConfig().EstimatePlacesPerSecond
	}
	pingsPerSec := c.EstimatePingsPerSecond
	if pingsPerSec <= 0 {
		pingsPerSec = DefaultConfig().EstimatePingsPerSecond
	}
	return int(math.Ceil(float64(places)/placesPerSec + float64(pings)/pingsPerSec))
}
