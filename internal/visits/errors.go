// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package visits

import (
	"errors"
	"fmt"
)

var (
	// ErrTripNotFound is returned by a PlaceCatalog when the trip does not exist.
	ErrTripNotFound = errors.New("trip not found")

	// ErrVisitNotFound is returned by VisitTx.Delete for an unknown visit id.
	ErrVisitNotFound = errors.New("visit not found")

	// ErrDuplicateVisit is returned by VisitTx.Insert when a visit already exists
	// for the same (user, place, local date).
	ErrDuplicateVisit = errors.New("visit already exists for place and date")

	// ErrCancelled is returned by Apply when the context was cancelled before commit.
	// Nothing was written.
	ErrCancelled = errors.New("operation cancelled")

	// ErrBreakerOpen is returned for ping queries rejected by an open circuit breaker.
	ErrBreakerOpen = errors.New("ping store unavailable: circuit breaker open")
)

// InputError reports a request that was rejected before any scanning or writing.
type InputError struct {
	Field   string
	Message string
	Err     error
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func newInputError(field, message string) *InputError {
	return &InputError{Field: field, Message: message}
}

// IsInputError reports whether err is (or wraps) an *InputError.
func IsInputError(err error) bool {
	var inputErr *InputError
	return errors.As(err, &inputErr)
}
