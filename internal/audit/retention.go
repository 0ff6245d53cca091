// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package audit

import (
	"context"
	"time"

	"github.com/tomtom215/footprint/internal/logging"
)

// RetentionService deletes expired entries. It implements suture.Service.
type RetentionService struct {
	store     Store
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// NewRetentionService creates the service. Non-positive durations fall back
// to 90 days of retention swept daily.
func NewRetentionService(store Store, retention, interval time.Duration) *RetentionService {
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &RetentionService{
		store:     store,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// Serve sweeps once at start and then every interval until ctx is done.
func (s *RetentionService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// sweep deletes entries older than the retention window. Errors are logged
// and retried on the next tick.
func (s *RetentionService) sweep(ctx context.Context) int64 {
	cutoff := s.now().Add(-s.retention)
	count, err := s.store.Delete(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			logging.Error().Err(err).Msg("Audit retention sweep failed")
		}
		return 0
	}
	if count > 0 {
		logging.Info().Int64("count", count).Time("older_than", cutoff).Msg("Cleaned up old audit entries")
	}
	return count
}

// String returns the service name for logging.
func (s *RetentionService) String() string {
	return "audit-retention"
}
