// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

// Package validation provides struct validation using go-playground/validator v10.
//
// A thread-safe singleton validator checks decoded API request bodies before
// they reach the visit engine. Error field names come from json tags, with
// slice indexes, so a client sees createVisits[3].date rather than a Go
// struct path.
//
// # Usage
//
//	type PreviewBody struct {
//	    DateFrom string `json:"dateFrom,omitempty" validate:"omitempty,datetime=2006-01-02"`
//	    DateTo   string `json:"dateTo,omitempty" validate:"omitempty,datetime=2006-01-02"`
//	}
//
//	if verr := validation.ValidateStruct(&body); verr != nil {
//	    apiErr := verr.ToAPIError() // Code: VALIDATION_FAILED
//	    ...
//	}
//
// # Tags used by the API
//
//   - datetime=2006-01-02: calendar dates (rejects 2023-02-29)
//   - required: apply items need placeId and date
//   - uuid: visit ids to delete
//   - max=n,dive: bounds list sizes and validates every element
//
// Cross-field rules such as dateFrom <= dateTo are checked by the visit
// engine, which reports them as input errors with the same 400 status.
package validation
