// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

// Package events is the in-process event bus.
//
// The visit engine publishes a visits.applied event after each committed
// apply through Bus, which implements visits.EventPublisher. Subscribers run
// as supervised services; the API server uses one to drop its cached backfill
// estimates for the affected trip and another to record apply history.
//
// The bus is a Watermill GoChannel, so delivery is at-most-once and limited
// to this process.
package events
