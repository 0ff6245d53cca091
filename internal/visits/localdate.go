// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package visits

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata" // IANA zones must resolve in minimal containers
)

// DateLayout is the wire and storage format of a LocalDate.
const DateLayout = "2006-01-02"

// LocalDate is a calendar date in the timezone where the pings were captured,
// formatted as YYYY-MM-DD. The zero value means "unset".
type LocalDate string

// ParseLocalDate parses a YYYY-MM-DD string.
func ParseLocalDate(s string) (LocalDate, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return LocalDate(t.Format(DateLayout)), nil
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) LocalDate {
	return LocalDate(t.Format(DateLayout))
}

// Time returns midnight UTC at the start of the date.
func (d LocalDate) Time() time.Time {
	t, _ := time.Parse(DateLayout, string(d))
	return t
}

// AddDays returns the date n days later (or earlier for negative n).
func (d LocalDate) AddDays(n int) LocalDate {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// IsZero reports whether the date is unset.
func (d LocalDate) IsZero() bool { return d == "" }

// String returns the date as YYYY-MM-DD.
func (d LocalDate) String() string { return string(d) }

var locations sync.Map // map[string]*time.Location

// loadLocation caches time.LoadLocation results; unknown zones cache as nil.
func loadLocation(name string) *time.Location {
	if loc, ok := locations.Load(name); ok {
		return loc.(*time.Location)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = nil
	}
	locations.Store(name, loc)
	return loc
}

// ResolveLocalDate decides which calendar date a ping belongs to.
//
// The IANA zone recorded with the ping wins. Without a usable zone the date
// part of the device-local wall clock is used. UTC is the last resort.
// The UTC timestamp is never truncated when local information exists, so a
// stay that crosses local midnight splits on the local boundary.
func ResolveLocalDate(recordedAt time.Time, localTimestamp *time.Time, timeZone string) LocalDate {
	if timeZone != "" {
		if loc := loadLocation(timeZone); loc != nil {
			return DateOf(recordedAt.In(loc))
		}
	}
	if localTimestamp != nil && !localTimestamp.IsZero() {
		// Wall clock value; its location is meaningless.
		return LocalDate(localTimestamp.Format(DateLayout))
	}
	return DateOf(recordedAt.UTC())
}

// DateWindow is an inclusive range of local dates. Either end may be unset.
type DateWindow struct {
	From LocalDate `json:"dateFrom,omitempty"`
	To   LocalDate `json:"dateTo,omitempty"`
}

// Validate rejects a window whose start is after its end.
func (w DateWindow) Validate() error {
	if !w.From.IsZero() && !w.To.IsZero() && w.From > w.To {
		return newInputError("dateFrom", "dateFrom must be on or before dateTo")
	}
	return nil
}

// Contains reports whether d falls inside the window.
func (w DateWindow) Contains(d LocalDate) bool {
	if !w.From.IsZero() && d < w.From {
		return false
	}
	if !w.To.IsZero() && d > w.To {
		return false
	}
	return true
}

// UTCBounds returns the UTC instants a store should scan to cover the window.
// Local dates can sit up to 14 hours either side of UTC, so one day of slack is
// added on each side; exact filtering happens on the resolved local date.
// Nil bounds are open.
func (w DateWindow) UTCBounds() (from, to *time.Time) {
	if !w.From.IsZero() {
		t := w.From.Time().AddDate(0, 0, -1)
		from = &t
	}
	if !w.To.IsZero() {
		t := w.To.Time().AddDate(0, 0, 2)
		to = &t
	}
	return from, to
}
