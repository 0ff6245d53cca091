// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

// Package logging provides centralized zerolog-based logging for Footprint.
//
// A single global logger is configured at startup from the logging section of
// the configuration and then used everywhere through leveled helpers:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("trip_id", tripID).Msg("Preview started")
//	logging.Error().Err(err).Msg("Apply failed")
//
// Request handlers and background jobs log through the context so that
// request_id and correlation_id follow the work:
//
//	logging.Ctx(ctx).Warn().Str("place_id", id).Msg("Place scan failed")
//
// # Configuration
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false (default: false)
//
// # slog Bridge
//
// suture (through sutureslog) and watermill log through *slog.Logger.
// NewSlogLogger returns an slog.Logger whose records are written by zerolog,
// so all output shares one format and level.
//
// Always terminate log chains with .Msg() or .Send(); an unterminated event is
// never written.
package logging
