// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/footprint/internal/api"
	"github.com/tomtom215/footprint/internal/app"
	"github.com/tomtom215/footprint/internal/audit"
	"github.com/tomtom215/footprint/internal/config"
	"github.com/tomtom215/footprint/internal/database"
	"github.com/tomtom215/footprint/internal/events"
	"github.com/tomtom215/footprint/internal/jobs"
	"github.com/tomtom215/footprint/internal/logging"
	"github.com/tomtom215/footprint/internal/supervisor"
	"github.com/tomtom215/footprint/internal/supervisor/services"
	"github.com/tomtom215/footprint/internal/visits"
)

// eventBufferSize bounds unconsumed visits.applied events per subscriber.
const eventBufferSize = 256

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("addr", cfg.Server.Addr()).
		Bool("jobs_enabled", cfg.Jobs.Enabled).
		Msg("Starting footprint server")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	bus := events.NewBus(eventBufferSize)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	engine, err := app.NewEngine(cfg, db, visits.WithEventPublisher(bus))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	// Data layer
	var previewJobs api.PreviewJobs
	var runner *jobs.Runner
	if cfg.Jobs.Enabled {
		store, err := jobs.OpenStore(cfg.Jobs.Path)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing job store")
			}
		}()
		runner = jobs.NewRunner(engine, store, jobs.Config{
			Workers:   cfg.Jobs.Workers,
			QueueSize: cfg.Jobs.QueueSize,
			ResultTTL: cfg.Jobs.ResultTTL,
		})
		previewJobs = runner
		tree.AddDataService(runner)
		logging.Info().Str("path", cfg.Jobs.Path).Int("workers", cfg.Jobs.Workers).Msg("Preview job runner added to supervisor tree")
	} else {
		logging.Info().Msg("Asynchronous preview jobs disabled (JOBS_ENABLED=false)")
	}

	// Messaging layer
	infoCache := api.NewInfoCache(cfg.Visits.InfoCacheTTL)
	tree.AddMessagingService(events.NewSubscriber(bus, "info-cache-invalidator", events.InvalidateTrip(infoCache)))
	tree.AddMessagingService(services.NewCacheJanitorService(api.InfoCacheName, infoCache, time.Minute))

	var history *audit.DuckDBStore
	if cfg.Audit.Enabled {
		history, err = app.AuditStore(ctx, db)
		if err != nil {
			return err
		}
		tree.AddMessagingService(events.NewSubscriber(bus, "backfill-audit", audit.NewRecorder(history).Handle))
		tree.AddDataService(audit.NewRetentionService(history, cfg.Audit.Retention, cfg.Audit.CleanupInterval))
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	// API layer
	handler := api.NewHandler(engine, previewJobs, db, infoCache)
	if history != nil {
		handler.WithHistory(history)
	}
	router := api.NewRouter(handler, api.NewChiMiddleware(app.MiddlewareConfig(&cfg.Security)))
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.PreviewTimeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		if runner != nil {
			runner.Stop()
		}
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case treeErr = <-errCh:
	}
	for err := range errCh {
		if treeErr == nil {
			treeErr = err
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		return treeErr
	}
	return nil
}
