// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package visits

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/footprint/internal/logging"
)

// ScanWarning records a place whose scan failed and was skipped.
type ScanWarning struct {
	PlaceID   string `json:"placeId"`
	PlaceName string `json:"placeName"`
	Message   string `json:"message"`
}

// GenerateRequest describes one scan.
type GenerateRequest struct {
	UserID string
	Places []Place // places without a coordinate are ignored
	Window DateWindow
}

// GenerationResult holds the candidates of every fully scanned place.
type GenerationResult struct {
	Candidates     []Candidate
	PingsScanned   int64
	PlacesAnalyzed int
	Chunks         int
	Warnings       []ScanWarning

	// Truncated is set when cancellation stopped the scan before every place
	// was analyzed. Candidates still only contain complete places.
	Truncated bool
}

// Generator scans pings around each place and aggregates them into
// per-(place, date) candidates using a bounded worker pool.
type Generator struct {
	pings   PingStore
	cfg     Config
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewGenerator creates a generator. A positive cfg.QueriesPerSecond installs a
// limiter shared by all workers.
func NewGenerator(pings PingStore, cfg Config) *Generator {
	g := &Generator{
		pings:  pings,
		cfg:    cfg,
		logger: logging.WithComponent("visit-generator"),
	}
	if cfg.QueriesPerSecond > 0 {
		burst := int(cfg.QueriesPerSecond)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.QueriesPerSecond), burst)
	}
	return g
}

// chunkResult is what one worker reports for one chunk.
type chunkResult struct {
	candidates     []Candidate
	pingsScanned   int64
	placesAnalyzed int
	warnings       []ScanWarning
	truncated      bool
}

// Generate scans every coordinated place in req. Cancellation is not an
// error: the result is marked Truncated and holds what was completed.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*GenerationResult, error) {
	places := make([]Place, 0, len(req.Places))
	for _, p := range req.Places {
		if p.Coordinate != nil {
			places = append(places, p)
		}
	}

	chunks := chunkPlaces(places, g.cfg.EffectiveChunkSize())
	result := &GenerationResult{Chunks: len(chunks)}
	if len(chunks) == 0 {
		return result, nil
	}

	results := make(chan chunkResult, len(chunks))
	jobChan := make(chan []Place, len(chunks))
	var wg sync.WaitGroup

	workerCount := g.cfg.Workers
	if workerCount > len(chunks) {
		workerCount = len(chunks)
	}
	if workerCount < 1 {
		workerCount = 1
	}

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chunk := range jobChan {
				results <- g.scanChunk(ctx, req.UserID, chunk, req.Window)
			}
		}()
	}

	for _, chunk := range chunks {
		jobChan <- chunk
	}
	close(jobChan)

	wg.Wait()
	close(results)

	for r := range results {
		result.Candidates = append(result.Candidates, r.candidates...)
		result.PingsScanned += r.pingsScanned
		result.PlacesAnalyzed += r.placesAnalyzed
		result.Warnings = append(result.Warnings, r.warnings...)
		if r.truncated {
			result.Truncated = true
		}
	}

	sort.Slice(result.Candidates, func(i, j int) bool {
		a, b := &result.Candidates[i], &result.Candidates[j]
		if a.PlaceID != b.PlaceID {
			return a.PlaceID < b.PlaceID
		}
		return a.Date < b.Date
	})
	sort.Slice(result.Warnings, func(i, j int) bool {
		return result.Warnings[i].PlaceID < result.Warnings[j].PlaceID
	})

	g.logger.Debug().
		Int("places", len(places)).
		Int("chunks", len(chunks)).
		Int("workers", workerCount).
		Int("places_analyzed", result.PlacesAnalyzed).
		Int64("pings_scanned", result.PingsScanned).
		Int("candidates", len(result.Candidates)).
		Bool("truncated", result.Truncated).
		Msg("Candidate generation finished")

	return result, nil
}

// scanChunk queries each place of a chunk in turn. Only one place's hits are
// held at a time.
func (g *Generator) scanChunk(ctx context.Context, userID string, chunk []Place, window DateWindow) chunkResult {
	var r chunkResult
	radius := g.cfg.OuterRadiusMeters()

	for i := range chunk {
		place := &chunk[i]

		if ctx.Err() != nil {
			r.truncated = true
			return r
		}
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				r.truncated = true
				return r
			}
		}

		hits, err := g.pings.RangeQuery(ctx, userID, *place.Coordinate, radius, window)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				r.truncated = true
				return r
			}
			g.logger.Warn().Err(err).
				Str("place_id", place.ID).
				Str("place_name", place.Name).
				Msg("Place scan failed, skipping")
			r.warnings = append(r.warnings, ScanWarning{
				PlaceID:   place.ID,
				PlaceName: place.Name,
				Message:   err.Error(),
			})
			continue
		}

		r.candidates = append(r.candidates, aggregateHits(g.cfg, place, hits, window)...)
		r.pingsScanned += int64(len(hits))
		r.placesAnalyzed++
	}
	return r
}

// aggregateHits groups one place's hits by local date into candidates.
// Hits outside the outer radius or the window are ignored.
func aggregateHits(cfg Config, place *Place, hits []PingHit, window DateWindow) []Candidate {
	if len(hits) == 0 {
		return nil
	}

	byDate := make(map[LocalDate]*Candidate)
	sums := make(map[LocalDate]float64)
	var dates []LocalDate

	for i := range hits {
		h := &hits[i]
		tier := cfg.Tier(h.DistanceMeters)
		if tier == 0 || !window.Contains(h.LocalDate) {
			continue
		}

		c, ok := byDate[h.LocalDate]
		if !ok {
			c = &Candidate{
				PlaceID:           place.ID,
				PlaceName:         place.Name,
				Region:            place.Region,
				Date:              h.LocalDate,
				MinDistanceMeters: h.DistanceMeters,
				FirstSeen:         h.Timestamp,
				LastSeen:          h.Timestamp,
			}
			byDate[h.LocalDate] = c
			dates = append(dates, h.LocalDate)
		}

		switch tier {
		case 1:
			c.Tier1Hits++
		case 2:
			c.Tier2Hits++
		case 3:
			c.Tier3Hits++
		}
		if h.DistanceMeters < c.MinDistanceMeters {
			c.MinDistanceMeters = h.DistanceMeters
		}
		if h.Timestamp.Before(c.FirstSeen) {
			c.FirstSeen = h.Timestamp
		}
		if h.Timestamp.After(c.LastSeen) {
			c.LastSeen = h.Timestamp
		}
		if h.UserInvoked {
			c.CheckInNearby = true
		}
		sums[h.LocalDate] += h.DistanceMeters
		c.AvgDistanceMeters = sums[h.LocalDate] / float64(c.TotalHits())
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })
	out := make([]Candidate, 0, len(dates))
	for _, d := range dates {
		out = append(out, *byDate[d])
	}
	return out
}

// chunkPlaces splits places into consecutive chunks of at most size.
func chunkPlaces(places []Place, size int) [][]Place {
	if size < 1 {
		size = 1
	}
	var chunks [][]Place
	for start := 0; start < len(places); start += size {
		end := start + size
		if end > len(places) {
			end = len(places)
		}
		chunks = append(chunks, places[start:end])
	}
	return chunks
}
