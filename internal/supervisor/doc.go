// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

/*
Package supervisor runs the long-lived parts of the footprint server under a
suture v4 supervisor tree.

# Tree

	footprint
	├── data-layer
	│   ├── preview-job-runner (jobs.Runner)
	│   └── audit-retention (audit.RetentionService)
	├── messaging-layer
	│   ├── info-cache-invalidator (events.Subscriber on visits.applied)
	│   ├── cache-janitor-backfill_info (services.CacheJanitorService)
	│   └── backfill-audit (events.Subscriber on visits.applied)
	└── api-layer
	    └── http-server (services.HTTPServerService)

Each layer counts failures on its own, so a subscriber that keeps losing its
subscription backs off without taking the HTTP server down with it.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddDataService(runner)
	tree.AddMessagingService(events.NewSubscriber(bus, "info-cache-invalidator", events.InvalidateTrip(infoCache)))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	errCh := tree.ServeBackground(ctx)
	<-ctx.Done()
	<-errCh

Supervisor events (restarts, backoff, stop timeouts) are logged through the
slog bridge of the logging package via sutureslog.

After shutdown, UnstoppedServiceReport lists services that ignored their
context past the timeout.
*/
package supervisor
