// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/footprint/internal/middleware"
)

// Router builds the HTTP routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router for handler. mw may be nil for defaults.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi configures all HTTP routes using Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global Middleware Stack
	r.Use(middleware.RequestID)        // X-Request-ID / X-Correlation-ID with logging context
	r.Use(chimiddleware.RealIP)        // Extract real IP from X-Forwarded-For
	r.Use(middleware.RequestLogger)    // after RequestID so lines carry the ids
	r.Use(chimiddleware.Recoverer)     // Recover from panics
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	// Health Endpoints
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Backfill Endpoints
	r.Route("/api/v1/trips/{tripID}/backfill", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(chimiddleware.Compress(5, "application/json")) // previews list every candidate

		r.Get("/info", router.handler.BackfillInfo)
		r.Post("/apply", router.handler.BackfillApply)
		r.Get("/history", router.handler.BackfillHistory)

		// Preview and job submission scan location history
		r.With(router.chiMiddleware.RateLimitPreview()).Post("/preview", router.handler.BackfillPreview)
		r.Route("/jobs", func(r chi.Router) {
			r.With(router.chiMiddleware.RateLimitPreview()).Post("/", router.handler.CreatePreviewJob)
			r.Get("/{jobID}", router.handler.GetPreviewJob)
			r.Delete("/{jobID}", router.handler.CancelPreviewJob)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
