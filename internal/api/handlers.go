// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package api

import (
	"context"
	"time"

	"github.com/tomtom215/footprint/internal/audit"
	"github.com/tomtom215/footprint/internal/cache"
	"github.com/tomtom215/footprint/internal/jobs"
	"github.com/tomtom215/footprint/internal/visits"
)

// BackfillEngine is the part of visits.Engine the handlers use.
type BackfillEngine interface {
	Info(ctx context.Context, tripID string) (*visits.InfoResponse, error)
	Preview(ctx context.Context, req visits.PreviewRequest) (*visits.PreviewResponse, error)
	Apply(ctx context.Context, req *visits.ApplyRequest) (*visits.ApplyResponse, error)
}

// PreviewJobs is the part of jobs.Runner the handlers use.
type PreviewJobs interface {
	Submit(ctx context.Context, req visits.PreviewRequest) (*jobs.Job, error)
	Get(ctx context.Context, id string) (*jobs.Job, error)
	Cancel(ctx context.Context, id string) (*jobs.Job, error)
}

// ApplyHistory is the part of audit.Store the handlers use.
type ApplyHistory interface {
	Query(ctx context.Context, filter audit.Filter) ([]audit.Entry, error)
}

// Pinger reports storage readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// InfoCacheName labels the info cache in metrics.
const InfoCacheName = "backfill_info"

// infoCacheKey is the per-trip name of a cached info response.
const infoCacheKey = "info"

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_backfill.go: info, preview and apply
//   - handlers_jobs.go: asynchronous preview jobs
//   - handlers_history.go: apply history
//   - handlers_health.go: liveness and readiness probes
type Handler struct {
	engine    BackfillEngine
	jobs      PreviewJobs // nil when async previews are disabled
	db        Pinger
	infoCache *cache.Cache[*visits.InfoResponse]
	history   ApplyHistory // nil when apply history is disabled
	startTime time.Time
}

// NewHandler creates a handler. jobs may be nil. infoCache may be nil to
// disable info caching.
func NewHandler(engine BackfillEngine, previewJobs PreviewJobs, db Pinger, infoCache *cache.Cache[*visits.InfoResponse]) *Handler {
	return &Handler{
		engine:    engine,
		jobs:      previewJobs,
		db:        db,
		infoCache: infoCache,
		startTime: time.Now(),
	}
}

// WithHistory enables the apply history endpoint.
func (h *Handler) WithHistory(history ApplyHistory) *Handler {
	h.history = history
	return h
}

// NewInfoCache creates the info response cache shared by the handler and
// the invalidating event subscriber.
func NewInfoCache(ttl time.Duration) *cache.Cache[*visits.InfoResponse] {
	return cache.New[*visits.InfoResponse](InfoCacheName, 1000, ttl)
}

// invalidateTrip drops cached responses of tripID.
func (h *Handler) invalidateTrip(tripID string) {
	if h.infoCache != nil {
		h.infoCache.DeletePrefix(cache.TripPrefix(tripID))
	}
}
