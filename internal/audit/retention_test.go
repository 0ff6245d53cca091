// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewRetentionService_Defaults(t *testing.T) {
	s := NewRetentionService(NewMemoryStore(1), 0, -1)
	if s.retention != 90*24*time.Hour {
		t.Errorf("retention = %v, want 90 days", s.retention)
	}
	if s.interval != 24*time.Hour {
		t.Errorf("interval = %v, want 24h", s.interval)
	}
	if s.String() != "audit-retention" {
		t.Errorf("String() = %q", s.String())
	}
}

func TestRetentionService_Sweep(t *testing.T) {
	store := NewMemoryStore(10)
	seedEntries(t, store)

	s := NewRetentionService(store, time.Hour, time.Hour)
	s.now = func() time.Time { return baseTime.Add(150 * time.Minute) }

	if n := s.sweep(context.Background()); n != 2 {
		t.Errorf("sweep() = %d, want 2", n)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
	if n := s.sweep(context.Background()); n != 0 {
		t.Errorf("second sweep() = %d, want 0", n)
	}
}

func TestRetentionService_ServeSweepsAndStops(t *testing.T) {
	store := NewMemoryStore(10)
	seedEntries(t, store)

	s := NewRetentionService(store, time.Hour, time.Hour)
	s.now = func() time.Time { return baseTime.Add(24 * time.Hour) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for store.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("initial sweep never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return")
	}
}
