// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package services

import (
	"context"
	"time"

	"github.com/tomtom215/footprint/internal/logging"
	"github.com/tomtom215/footprint/internal/metrics"
)

// Sweeper removes expired entries and reports how many it removed.
// Satisfied by *cache.Cache.
type Sweeper interface {
	Cleanup() int
}

// CacheJanitorService sweeps expired entries out of a cache on an interval.
// Lookups already ignore expired entries; the sweep gives the memory back
// for trips nobody asks about again.
type CacheJanitorService struct {
	cacheName string
	cache     Sweeper
	interval  time.Duration
	name      string
}

// NewCacheJanitorService creates a janitor for c. cacheName labels the
// cache_expired_total metric. A non-positive interval means one minute.
func NewCacheJanitorService(cacheName string, c Sweeper, interval time.Duration) *CacheJanitorService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CacheJanitorService{
		cacheName: cacheName,
		cache:     c,
		interval:  interval,
		name:      "cache-janitor-" + cacheName,
	}
}

// Serve implements suture.Service.
func (s *CacheJanitorService) Serve(ctx context.Context) error {
	logger := logging.WithComponent("cache").With().Str("cache", s.cacheName).Logger()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n := s.cache.Cleanup()
			metrics.RecordCacheExpired(s.cacheName, n)
			if n > 0 {
				logger.Debug().Int("expired", n).Msg("Swept expired cache entries")
			}
		}
	}
}

// String implements fmt.Stringer.
func (s *CacheJanitorService) String() string {
	return s.name
}
