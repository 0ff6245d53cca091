// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

// Package geo holds the small amount of spherical geometry the visit engine
// needs: great-circle distance between coordinates and a bounding box used to
// prefilter ping range queries in SQL.
package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// EarthRadiusMeters is the mean Earth radius used for all distance math.
const EarthRadiusMeters = 6371008.8

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point lies inside WGS84 bounds and is not NaN.
func (p Point) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// Validate returns a descriptive error for an invalid point.
func (p Point) Validate() error {
	if !p.Valid() {
		return fmt.Errorf("invalid coordinate (%v, %v)", p.Latitude, p.Longitude)
	}
	return nil
}

func (p Point) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Latitude, p.Longitude)
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	p1 := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	p2 := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Bound is an axis-aligned latitude/longitude box.
type Bound struct {
	MinLat, MinLon float64
	MaxLat, MaxLon float64
}

// Contains reports whether p lies inside the box (edges inclusive).
func (b Bound) Contains(p Point) bool {
	return p.Latitude >= b.MinLat && p.Latitude <= b.MaxLat &&
		p.Longitude >= b.MinLon && p.Longitude <= b.MaxLon
}

// boundPadDegrees absorbs float rounding at the box edges (about 0.1 m).
const boundPadDegrees = 1e-6

// BoundAround returns a box that contains every point within radiusMeters of
// center. The box is a superset of the circle, so callers still filter by
// Distance afterwards. Boxes that touch a pole or cross the antimeridian are
// widened to the full longitude range.
func BoundAround(center Point, radiusMeters float64) Bound {
	// orb assumes the equatorial radius; scale so the box covers the same
	// angle as Distance.
	scaled := radiusMeters * orb.EarthRadius / EarthRadiusMeters
	ob := orbgeo.NewBoundAroundPoint(orb.Point{center.Longitude, center.Latitude}, scaled).
		Pad(boundPadDegrees)

	b := Bound{
		MinLat: math.Max(ob.Min.Lat(), -90),
		MaxLat: math.Min(ob.Max.Lat(), 90),
		MinLon: ob.Min.Lon(),
		MaxLon: ob.Max.Lon(),
	}
	// orb wraps a crossing box, leaving MinLon > MaxLon.
	if math.IsNaN(b.MinLon) || math.IsNaN(b.MaxLon) || b.MinLon > b.MaxLon ||
		b.MinLon < -180 || b.MaxLon > 180 || b.MinLat == -90 || b.MaxLat == 90 {
		b.MinLon, b.MaxLon = -180, 180
	}
	return b
}
