// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

/*
Package cache provides a small thread-safe TTL cache with LRU eviction.

The API caches backfill info estimates per trip. Counting pings for a large
history is the expensive part of an estimate, and the result only changes when
pings arrive or visits are applied. The events subscriber invalidates a trip's
entries after every committed apply.

# Usage

	c := cache.New[*visits.InfoResponse]("backfill_info", 1000, time.Minute)
	key := cache.TripKey(tripID, "info")
	if info, ok := c.Get(key); ok {
	    return info
	}
	c.Set(key, info)

	// After an apply
	c.DeletePrefix(cache.TripPrefix(tripID))

Expired entries are dropped lazily by Get. Cleanup sweeps the whole cache and
is run periodically by the API server.

Hits and misses are exported as cache_hits_total / cache_misses_total with the
cache name as label.
*/
package cache
