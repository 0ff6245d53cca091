// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package database

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/footprint/internal/geo"
	"github.com/tomtom215/footprint/internal/logging"
	"github.com/tomtom215/footprint/internal/visits"
)

// SeedSummary reports what SeedDemoData wrote.
type SeedSummary struct {
	TripID string `json:"tripId"`
	Places int    `json:"places"`
	Pings  int    `json:"pings"`
	Visits int    `json:"visits"`
}

// demoPlace is a seeded place and how the demo user behaved around it.
type demoPlace struct {
	name     string
	region   string
	lat, lon float64
	pinned   bool
	day      int     // trip day the user was there (0-based)
	dwell    int     // pings recorded at the place
	offsetM  float64 // typical distance of those pings from the pin
	checkIn  bool
	recorded bool // already has a realtime visit
}

var demoPlaces = []demoPlace{
	{"Time Out Market", "Cais do Sodré", 38.7069, -9.1459, true, 0, 12, 15, false, true},
	{"Belém Tower", "Belém", 38.6916, -9.2160, true, 0, 8, 25, false, false},
	{"Jerónimos Monastery", "Belém", 38.6979, -9.2068, true, 1, 4, 30, true, false},
	{"LX Factory", "Alcântara", 38.7036, -9.1784, true, 1, 7, 400, false, false},
	{"Miradouro da Senhora do Monte", "Graça", 38.7193, -9.1327, true, 2, 3, 20, false, false},
	{"Oceanário", "Parque das Nações", 38.7635, -9.0937, true, 2, 1, 1200, true, false},
	{"That bakery everyone mentioned", "Lisbon", 0, 0, false, 2, 0, 0, false, false},
}

// SeedDemoData writes a demo trip for userID: places around Lisbon, three
// days of pings in Europe/Lisbon and one realtime visit. Output is
// deterministic for a given seed so demos and docs stay stable.
func (db *DB) SeedDemoData(ctx context.Context, userID string, seed int64) (*SeedSummary, error) {
	logging.Info().Str("user_id", userID).Msg("Seeding demo trip")

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // demo data, not security sensitive
	tripStart := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	trip := &visits.Trip{ID: uuid.New().String(), Name: "Lisbon long weekend", UserID: userID}
	if err := db.CreateTrip(ctx, trip); err != nil {
		return nil, err
	}
	summary := &SeedSummary{TripID: trip.ID}

	var pings []visits.Ping
	for _, dp := range demoPlaces {
		place := &visits.Place{TripID: trip.ID, Name: dp.name, Region: dp.region}
		if dp.pinned {
			place.Coordinate = &geo.Point{Latitude: dp.lat, Longitude: dp.lon}
		}
		if err := db.CreatePlace(ctx, place); err != nil {
			return nil, fmt.Errorf("failed to seed place %q: %w", dp.name, err)
		}
		summary.Places++

		if !dp.pinned {
			continue
		}

		arrive := tripStart.AddDate(0, 0, dp.day).Add(time.Duration(rng.Intn(8*60)) * time.Minute)
		for i := 0; i < dp.dwell; i++ {
			bearing := rng.Float64() * 2 * math.Pi
			dist := dp.offsetM * (0.5 + rng.Float64())
			accuracy := 5 + rng.Float64()*20
			pings = append(pings, visits.Ping{
				UserID:         userID,
				Coordinate:     offsetPoint(*place.Coordinate, dist, bearing),
				RecordedAt:     arrive.Add(time.Duration(i*4) * time.Minute),
				TimeZone:       "Europe/Lisbon",
				AccuracyMeters: &accuracy,
				UserInvoked:    dp.checkIn && i == 0,
				Source:         "seed",
			})
		}

		if dp.recorded {
			placeID := place.ID
			coord := *place.Coordinate
			if err := db.InsertVisit(ctx, &visits.Visit{
				ID:         uuid.New().String(),
				UserID:     userID,
				TripID:     trip.ID,
				TripName:   trip.Name,
				PlaceID:    &placeID,
				PlaceName:  place.Name,
				Region:     place.Region,
				LocalDate:  visits.ResolveLocalDate(arrive, nil, "Europe/Lisbon"),
				ArrivedAt:  arrive,
				Coordinate: &coord,
				Origin:     visits.OriginRealtime,
				CreatedAt:  arrive,
			}); err != nil {
				return nil, fmt.Errorf("failed to seed visit: %w", err)
			}
			summary.Visits++
		}
	}

	n, err := db.Pings(0).InsertPings(ctx, pings)
	if err != nil {
		return nil, err
	}
	summary.Pings = n

	logging.Info().
		Str("trip_id", trip.ID).
		Int("places", summary.Places).
		Int("pings", summary.Pings).
		Int("visits", summary.Visits).
		Msg("Demo trip seeded")
	return summary, nil
}

// offsetPoint moves p by meters along bearing (radians from north) on a
// spherical earth.
func offsetPoint(p geo.Point, meters, bearing float64) geo.Point {
	const degPerRad = 180 / math.Pi
	dLat := meters * math.Cos(bearing) / geo.EarthRadiusMeters
	dLon := meters * math.Sin(bearing) / (geo.EarthRadiusMeters * math.Cos(p.Latitude/degPerRad))
	return geo.Point{
		Latitude:  p.Latitude + dLat*degPerRad,
		Longitude: p.Longitude + dLon*degPerRad,
	}
}
