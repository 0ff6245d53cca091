// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package jobs

import (
	"errors"
	"time"

	"github.com/tomtom215/footprint/internal/visits"
)

// Status is the lifecycle state of a preview job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions can happen.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

var (
	// ErrJobNotFound is returned for unknown or expired job ids.
	ErrJobNotFound = errors.New("job not found")

	// ErrQueueFull is returned by Submit when no queue slot is free.
	ErrQueueFull = errors.New("preview job queue is full")

	// ErrRunnerStopped is returned by Submit after the runner shut down.
	ErrRunnerStopped = errors.New("preview job runner is stopped")
)

// Job is an asynchronous preview. Preview is set once the job completes, or
// holds the partial result of a cancelled job.
type Job struct {
	ID       string `json:"id"`
	TripID   string `json:"tripId"`
	DateFrom string `json:"dateFrom,omitempty"`
	DateTo   string `json:"dateTo,omitempty"`

	// CorrelationID ties the job's log lines to the request that submitted it.
	CorrelationID string `json:"correlationId,omitempty"`

	Status     Status                  `json:"status"`
	Error      string                  `json:"error,omitempty"`
	CreatedAt  time.Time               `json:"createdAt"`
	StartedAt  *time.Time              `json:"startedAt,omitempty"`
	FinishedAt *time.Time              `json:"finishedAt,omitempty"`
	Preview    *visits.PreviewResponse `json:"preview,omitempty"`
}

// request rebuilds the preview request the job was submitted with.
func (j *Job) request() visits.PreviewRequest {
	return visits.PreviewRequest{TripID: j.TripID, DateFrom: j.DateFrom, DateTo: j.DateTo}
}
