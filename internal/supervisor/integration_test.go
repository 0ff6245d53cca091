// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/footprint/internal/cache"
	"github.com/tomtom215/footprint/internal/events"
	"github.com/tomtom215/footprint/internal/jobs"
	"github.com/tomtom215/footprint/internal/supervisor/services"
	"github.com/tomtom215/footprint/internal/visits"
)

type stubPreviewer struct{}

func (stubPreviewer) Preview(ctx context.Context, req visits.PreviewRequest) (*visits.PreviewResponse, error) {
	return &visits.PreviewResponse{TripID: req.TripID, PlacesAnalyzed: 2}, nil
}

// TestSupervisorTree_ServerWiring runs the services the server binary adds
// to the tree and checks each one does its job while supervised.
func TestSupervisorTree_ServerWiring(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureBackoff:  10 * time.Millisecond,
		ShutdownTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}

	store, err := jobs.OpenStore("")
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	runner := jobs.NewRunner(stubPreviewer{}, store, jobs.Config{Workers: 1, QueueSize: 4})

	bus := events.NewBus(8)
	t.Cleanup(func() { _ = bus.Close() })
	infoCache := cache.New[string]("supervisor_test", 16, time.Hour)

	api := newMockService("http-server")
	tree.AddDataService(runner)
	tree.AddMessagingService(events.NewSubscriber(bus, "info-cache-invalidator", events.InvalidateTrip(infoCache)))
	tree.AddMessagingService(services.NewCacheJanitorService("supervisor_test", infoCache, 10*time.Millisecond))
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	// Data layer: a submitted preview completes.
	job, err := runner.Submit(context.Background(), visits.PreviewRequest{TripID: "trip-1"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !waitFor(t, 2*time.Second, func() bool {
		j, err := runner.Get(context.Background(), job.ID)
		return err == nil && j.Status == jobs.StatusCompleted
	}) {
		t.Error("preview job did not complete under the supervisor")
	}

	// Messaging layer: an applied event evicts the trip's cached info. The
	// subscription may not be registered yet, so keep publishing.
	key := cache.TripKey("trip-1", "info")
	infoCache.Set(key, "cached")
	if !waitFor(t, 2*time.Second, func() bool {
		_ = bus.PublishVisitsApplied(context.Background(), visits.AppliedEvent{TripID: "trip-1", Created: 1})
		_, ok := infoCache.Get(key)
		return !ok
	}) {
		t.Error("applied event did not invalidate the cached trip info")
	}

	if api.StartCount() != 1 {
		t.Errorf("api service started %d times, want 1", api.StartCount())
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("tree stopped with %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not shut down")
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport() error = %v", err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services: %v", report)
	}
}
