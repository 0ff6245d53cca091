// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

// Package services adapts footprint components to suture.Service.
//
//   - HTTPServerService: ListenAndServe with graceful Shutdown on cancel
//   - CacheJanitorService: periodic sweep of expired cache entries
//
// The job runner and event subscribers implement Serve themselves and are
// added to the tree directly.
package services
