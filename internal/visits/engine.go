// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package visits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/footprint/internal/logging"
	"github.com/tomtom215/footprint/internal/metrics"
)

// PreviewRequest asks for a backfill analysis of one trip. Dates are
// YYYY-MM-DD and optional.
type PreviewRequest struct {
	TripID   string `json:"tripId"`
	DateFrom string `json:"dateFrom,omitempty"`
	DateTo   string `json:"dateTo,omitempty"`
}

// PreviewResponse is the read-only result of a preview.
type PreviewResponse struct {
	TripID             string           `json:"tripId"`
	TripName           string           `json:"tripName"`
	LocationsScanned   int64            `json:"locationsScanned"`
	PlacesAnalyzed     int              `json:"placesAnalyzed"`
	AnalysisDurationMs int64            `json:"analysisDurationMs"`
	NewVisits          []NewVisit       `json:"newVisits"`
	StaleVisits        []StaleVisit     `json:"staleVisits"`
	ExistingVisits     []ExistingVisit  `json:"existingVisits"`
	SuggestedVisits    []SuggestedVisit `json:"suggestedVisits"`
	Warnings           []ScanWarning    `json:"warnings,omitempty"`
	Truncated          bool             `json:"truncated"`
}

// InfoResponse lets callers warn about run time before a full preview.
type InfoResponse struct {
	TripID                string `json:"tripId"`
	TripName              string `json:"tripName"`
	TotalPlaces           int    `json:"totalPlaces"`
	PlacesWithCoordinates int    `json:"placesWithCoordinates"`
	EstimatedPings        int64  `json:"estimatedPings"`
	EstimatedSeconds      int    `json:"estimatedSeconds"`
	ExistingVisits        int    `json:"existingVisits"`
	PingStoreState        string `json:"pingStoreState,omitempty"`
}

// Engine runs the preview/apply workflow.
type Engine struct {
	cfg        Config
	pings      PingStore
	catalog    PlaceCatalog
	visits     VisitStore
	generator  *Generator
	classifier *Classifier
	applier    *Applier
	publisher  EventPublisher
	logger     zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithEventPublisher publishes an AppliedEvent after every committed apply.
func WithEventPublisher(p EventPublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// NewEngine wires the engine components.
func NewEngine(cfg Config, pings PingStore, catalog PlaceCatalog, store VisitStore, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid visit engine config: %w", err)
	}
	if pings == nil || catalog == nil || store == nil {
		return nil, errors.New("visit engine requires a ping store, place catalog and visit store")
	}

	e := &Engine{
		cfg:        cfg,
		pings:      pings,
		catalog:    catalog,
		visits:     store,
		generator:  NewGenerator(pings, cfg),
		classifier: NewClassifier(cfg),
		applier:    NewApplier(catalog, store),
		logger:     logging.WithComponent("visit-engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine tuning.
func (e *Engine) Config() Config {
	return e.cfg
}

// Preview scans the trip's places and proposes visits. It never writes.
//
// Cancellation is not an error: the response is marked Truncated and holds
// whatever was fully computed.
func (e *Engine) Preview(ctx context.Context, req PreviewRequest) (*PreviewResponse, error) {
	start := time.Now()

	window, err := parseWindow(req.DateFrom, req.DateTo)
	if err != nil {
		return nil, err
	}
	resp := &PreviewResponse{
		TripID:          req.TripID,
		NewVisits:       []NewVisit{},
		StaleVisits:     []StaleVisit{},
		ExistingVisits:  []ExistingVisit{},
		SuggestedVisits: []SuggestedVisit{},
	}
	cancelled := func() (*PreviewResponse, error) {
		resp.Truncated = true
		resp.AnalysisDurationMs = time.Since(start).Milliseconds()
		return resp, nil
	}

	trip, err := e.getTrip(ctx, req.TripID)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			return cancelled()
		}
		return nil, err
	}
	resp.TripID = trip.ID
	resp.TripName = trip.Name

	// Everything the reconciler needs is loaded before the scan so that a
	// cancelled scan still reconciles what it found.
	allPlaces, err := e.catalog.ListPlaces(ctx, trip.ID)
	if err != nil {
		if ctx.Err() != nil {
			return cancelled()
		}
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	scanPlaces, err := e.catalog.ListPlacesWithCoordinates(ctx, trip.ID)
	if err != nil {
		if ctx.Err() != nil {
			return cancelled()
		}
		return nil, fmt.Errorf("failed to list places with coordinates: %w", err)
	}
	existing, err := e.visits.ListVisits(ctx, trip.ID)
	if err != nil {
		if ctx.Err() != nil {
			return cancelled()
		}
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}

	gen, err := e.generator.Generate(ctx, GenerateRequest{
		UserID: trip.UserID,
		Places: scanPlaces,
		Window: window,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate candidates: %w", err)
	}

	confirmed, suggested := e.classifier.ClassifyAll(gen.Candidates, func(s Status) {
		metrics.RecordClassification(string(s))
	})

	placeMap := make(map[string]Place, len(allPlaces))
	for _, p := range allPlaces {
		placeMap[p.ID] = p
	}
	inWindow := make([]Visit, 0, len(existing))
	for _, v := range existing {
		if window.Contains(v.LocalDate) {
			inWindow = append(inWindow, v)
		}
	}

	rec := Reconcile(ReconcileInput{
		Confirmed:          confirmed,
		Suggested:          suggested,
		Existing:           inWindow,
		Places:             placeMap,
		StrictRadiusMeters: e.cfg.StrictRadiusMeters,
	})

	resp.LocationsScanned = gen.PingsScanned
	resp.PlacesAnalyzed = gen.PlacesAnalyzed
	resp.Warnings = gen.Warnings
	resp.Truncated = gen.Truncated
	if rec.New != nil {
		resp.NewVisits = rec.New
	}
	if rec.Suggested != nil {
		resp.SuggestedVisits = rec.Suggested
	}
	if rec.Stale != nil {
		resp.StaleVisits = rec.Stale
	}
	if rec.Existing != nil {
		resp.ExistingVisits = rec.Existing
	}

	elapsed := time.Since(start)
	resp.AnalysisDurationMs = elapsed.Milliseconds()
	metrics.RecordPreview(elapsed, gen.PlacesAnalyzed, gen.PingsScanned, len(gen.Warnings), gen.Truncated)

	logging.Ctx(ctx).Info().Str("component", "visit-engine").
		Str("trip_id", trip.ID).
		Int("places", len(scanPlaces)).
		Int("places_analyzed", resp.PlacesAnalyzed).
		Int64("pings_scanned", resp.LocationsScanned).
		Int("new", len(resp.NewVisits)).
		Int("suggested", len(resp.SuggestedVisits)).
		Int("stale", len(resp.StaleVisits)).
		Int("warnings", len(resp.Warnings)).
		Bool("truncated", resp.Truncated).
		Dur("duration", elapsed).
		Msg("Backfill preview completed")

	return resp, nil
}

// Apply commits an approved subset of a preview. Cancellation returns
// ErrCancelled after a full rollback.
func (e *Engine) Apply(ctx context.Context, req *ApplyRequest) (*ApplyResponse, error) {
	start := time.Now()

	trip, err := e.getTrip(ctx, req.TripID)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			metrics.RecordApply("cancelled", time.Since(start), 0, 0, 0, 0)
		}
		return nil, err
	}

	resp, err := e.applier.Apply(ctx, trip, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrCancelled):
			metrics.RecordApply("cancelled", time.Since(start), 0, 0, 0, 0)
		case IsInputError(err):
			// rejected before the transaction started
		default:
			metrics.RecordApply("rolled_back", time.Since(start), 0, 0, 0, 0)
		}
		return nil, err
	}
	metrics.RecordApply("committed", time.Since(start), resp.Created, resp.Confirmed, resp.Deleted, resp.Skipped)

	logging.Ctx(ctx).Info().Str("component", "visit-engine").
		Str("trip_id", trip.ID).
		Int("created", resp.Created).
		Int("confirmed", resp.Confirmed).
		Int("deleted", resp.Deleted).
		Int("skipped", resp.Skipped).
		Msg("Backfill apply committed")

	if e.publisher != nil && resp.Created+resp.Confirmed+resp.Deleted > 0 {
		event := AppliedEvent{
			TripID:    trip.ID,
			UserID:    trip.UserID,
			Created:   resp.Created,
			Confirmed: resp.Confirmed,
			Deleted:   resp.Deleted,
		}
		// The apply is committed; a lost notification only delays cache refresh.
		if err := e.publisher.PublishVisitsApplied(ctx, event); err != nil {
			e.logger.Warn().Err(err).Str("trip_id", trip.ID).Msg("Failed to publish visits applied event")
		}
	}

	return resp, nil
}

// Info estimates the cost of a full preview.
func (e *Engine) Info(ctx context.Context, tripID string) (*InfoResponse, error) {
	trip, err := e.getTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	places, err := e.catalog.ListPlaces(ctx, trip.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	withCoords := 0
	for i := range places {
		if places[i].Coordinate != nil {
			withCoords++
		}
	}

	pings, err := e.pings.CountPings(ctx, trip.UserID, DateWindow{})
	if err != nil {
		return nil, fmt.Errorf("failed to count pings: %w", err)
	}
	visitCount, err := e.visits.CountVisits(ctx, trip.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count visits: %w", err)
	}

	info := &InfoResponse{
		TripID:                trip.ID,
		TripName:              trip.Name,
		TotalPlaces:           len(places),
		PlacesWithCoordinates: withCoords,
		EstimatedPings:        pings,
		EstimatedSeconds:      e.cfg.EstimateSeconds(withCoords, pings),
		ExistingVisits:        visitCount,
	}
	if sr, ok := e.pings.(StateReporter); ok {
		info.PingStoreState = sr.State()
	}
	return info, nil
}

// getTrip resolves a trip, turning an unknown id into an InputError and a
// cancelled context into ErrCancelled.
func (e *Engine) getTrip(ctx context.Context, tripID string) (*Trip, error) {
	if strings.TrimSpace(tripID) == "" {
		return nil, newInputError("tripId", "is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	trip, err := e.catalog.GetTrip(ctx, tripID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrCancelled, ctxErr)
		}
		if errors.Is(err, ErrTripNotFound) {
			return nil, &InputError{Field: "tripId", Message: fmt.Sprintf("trip %q not found", tripID), Err: ErrTripNotFound}
		}
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}
	return trip, nil
}

// parseWindow parses optional YYYY-MM-DD bounds into a validated window.
func parseWindow(from, to string) (DateWindow, error) {
	var w DateWindow
	if from != "" {
		d, err := ParseLocalDate(from)
		if err != nil {
			return w, newInputError("dateFrom", err.Error())
		}
		w.From = d
	}
	if to != "" {
		d, err := ParseLocalDate(to)
		if err != nil {
			return w, newInputError("dateTo", err.Error())
		}
		w.To = d
	}
	if err := w.Validate(); err != nil {
		return w, err
	}
	return w, nil
}
