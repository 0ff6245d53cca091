// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package api

import (
	"context"
	"net/http"
	"time"
)

// readyPingTimeout bounds the database check of a readiness probe.
const readyPingTimeout = 2 * time.Second

// HealthStatus is the payload of the health endpoints.
type HealthStatus struct {
	Status            string  `json:"status"` // alive, ready, not_ready
	DatabaseConnected *bool   `json:"database_connected,omitempty"`
	JobsEnabled       bool    `json:"jobs_enabled"`
	Uptime            float64 `json:"uptime"`
}

// HealthLive handles liveness probe requests (Kubernetes-style).
// Returns 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, HealthStatus{
		Status:      "alive",
		JobsEnabled: h.jobs != nil,
		Uptime:      time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style).
// Returns 200 OK only if the database answers; 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyPingTimeout)
	defer cancel()

	dbConnected := h.db != nil && h.db.Ping(ctx) == nil
	status := HealthStatus{
		Status:            "ready",
		DatabaseConnected: &dbConnected,
		JobsEnabled:       h.jobs != nil,
		Uptime:            time.Since(h.startTime).Seconds(),
	}

	rw := NewResponseWriter(w, r)
	if !dbConnected {
		status.Status = "not_ready"
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Database is not reachable", status)
		return
	}
	rw.Success(status)
}
