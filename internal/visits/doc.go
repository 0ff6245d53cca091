// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

/*
Package visits infers place visits from raw location history.

A backfill runs in two phases. Preview is read-only: the Generator scans
pings around every place of a trip in bounded parallel chunks, the
Classifier grades each (place, local date) candidate, and Reconcile sorts
the results against visits already on record. Apply commits the subset the
user approved in a single transaction.

# Tiers

Distances fall into three exclusive bands around a place with strict radius
r and multiplier m (2-100):

	tier 1:  d <= r
	tier 2:  r < d <= r * (1 + (m-1)/3)
	tier 3:  r * (1 + (m-1)/3) < d <= r * m

Enough tier-1 pings confirm a visit. Tier-2/3 pings or a manual check-in can
only suggest one.

# Local dates

Visits are dated in the timezone the pings were captured in (see
ResolveLocalDate), so a stay across local midnight yields two dates and one
across UTC midnight does not.

# Storage contract

At most one visit exists per (user, place, local date). Apply checks before
inserting and also relies on the store's uniqueness constraint, reported as
ErrDuplicateVisit, which is counted as a skip.
*/
package visits
