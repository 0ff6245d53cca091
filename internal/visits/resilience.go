// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package visits

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/footprint/internal/geo"
	"github.com/tomtom215/footprint/internal/logging"
	"github.com/tomtom215/footprint/internal/metrics"
)

// BreakerConfig configures the circuit breaker around a PingStore.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32        // consecutive failures before opening
	Timeout          time.Duration // open -> half-open
	Interval         time.Duration // closed-state count reset
	MaxRequests      uint32        // allowed in half-open
}

// ResilientPingStore wraps a PingStore with a circuit breaker. When the store
// keeps failing, queries fail fast with ErrBreakerOpen and the generator turns
// them into per-place warnings instead of waiting on a dead store.
//
// Context cancellation is not counted as a store failure.
type ResilientPingStore struct {
	next PingStore
	cb   *gobreaker.CircuitBreaker[interface{}]
	name string
}

// NewResilientPingStore wraps next with a breaker.
func NewResilientPingStore(next PingStore, cfg BreakerConfig) *ResilientPingStore {
	if cfg.Name == "" {
		cfg.Name = "ping-store"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("Circuit breaker state transition")
			metrics.RecordCircuitBreakerTransition(name, stateToString(from), stateToString(to), stateToFloat(to))
		},
	})

	return &ResilientPingStore{next: next, cb: cb, name: cfg.Name}
}

// RangeQuery delegates to the wrapped store through the breaker.
func (r *ResilientPingStore) RangeQuery(ctx context.Context, userID string, center geo.Point, radiusMeters float64, window DateWindow) ([]PingHit, error) {
	result, err := r.execute(func() (interface{}, error) {
		return r.next.RangeQuery(ctx, userID, center, radiusMeters, window)
	})
	if err != nil {
		return nil, err
	}
	hits, ok := result.([]PingHit)
	if !ok && result != nil {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return hits, nil
}

// CountPings delegates to the wrapped store through the breaker.
func (r *ResilientPingStore) CountPings(ctx context.Context, userID string, window DateWindow) (int64, error) {
	result, err := r.execute(func() (interface{}, error) {
		return r.next.CountPings(ctx, userID, window)
	})
	if err != nil {
		return 0, err
	}
	n, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return n, nil
}

// State returns the breaker state: closed, half-open or open.
func (r *ResilientPingStore) State() string {
	return stateToString(r.cb.State())
}

func (r *ResilientPingStore) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := r.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordCircuitBreakerRequest(r.name, "rejected")
			return nil, fmt.Errorf("%w: %w", ErrBreakerOpen, err)
		}
		metrics.RecordCircuitBreakerRequest(r.name, "failure")
		return nil, err
	}
	metrics.RecordCircuitBreakerRequest(r.name, "success")
	return result, nil
}

// StateReporter is implemented by ping stores that expose a breaker state.
type StateReporter interface {
	State() string
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
