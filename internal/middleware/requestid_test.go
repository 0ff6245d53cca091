// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/footprint/internal/logging"
)

type capturedIDs struct {
	requestID     string
	loggingID     string
	correlationID string
}

func serveRequestID(t *testing.T, headers map[string]string) (*httptest.ResponseRecorder, capturedIDs) {
	t.Helper()
	var got capturedIDs
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.requestID = GetRequestID(r.Context())
		got.loggingID = logging.RequestIDFromContext(r.Context())
		got.correlationID = logging.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, got
}

func TestRequestID_GeneratesNewID(t *testing.T) {
	rec, got := serveRequestID(t, nil)

	responseID := rec.Header().Get(HeaderRequestID)
	if _, err := uuid.Parse(responseID); err != nil {
		t.Fatalf("Response X-Request-ID %q is not a valid UUID: %v", responseID, err)
	}
	if got.requestID != responseID {
		t.Errorf("Context ID (%s) doesn't match response header ID (%s)", got.requestID, responseID)
	}
	if got.loggingID != responseID {
		t.Errorf("Logging request ID = %q, want %q", got.loggingID, responseID)
	}
	if got.correlationID == "" {
		t.Error("Expected a generated correlation ID")
	}
	if rec.Header().Get(HeaderCorrelationID) != got.correlationID {
		t.Errorf("X-Correlation-ID = %q, want %q", rec.Header().Get(HeaderCorrelationID), got.correlationID)
	}
}

func TestRequestID_PreservesUpstreamIDs(t *testing.T) {
	rec, got := serveRequestID(t, map[string]string{
		HeaderRequestID:     "existing-request-id-12345",
		HeaderCorrelationID: "corr-abc",
	})

	if rec.Header().Get(HeaderRequestID) != "existing-request-id-12345" {
		t.Errorf("X-Request-ID = %q, want upstream id", rec.Header().Get(HeaderRequestID))
	}
	if got.requestID != "existing-request-id-12345" {
		t.Errorf("Context request ID = %q", got.requestID)
	}
	if got.correlationID != "corr-abc" {
		t.Errorf("Correlation ID = %q, want corr-abc", got.correlationID)
	}
}

func TestRequestID_RejectsUnsafeIDs(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"newline injection", "abc\ninjected"},
		{"space", "abc def"},
		{"too long", strings.Repeat("a", maxTraceIDLength+1)},
		{"non ascii", "ïd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, got := serveRequestID(t, map[string]string{HeaderRequestID: tt.id, HeaderCorrelationID: tt.id})

			if got.requestID == tt.id {
				t.Errorf("unsafe request ID %q was accepted", tt.id)
			}
			if _, err := uuid.Parse(rec.Header().Get(HeaderRequestID)); err != nil {
				t.Errorf("replacement request ID is not a UUID: %v", err)
			}
			if got.correlationID == tt.id || got.correlationID == "" {
				t.Errorf("correlation ID = %q, want a fresh id", got.correlationID)
			}
		})
	}
}

func TestRequestID_MaxLengthAccepted(t *testing.T) {
	id := strings.Repeat("a", maxTraceIDLength)
	_, got := serveRequestID(t, map[string]string{HeaderRequestID: id})
	if got.requestID != id {
		t.Error("request ID at the length limit should be kept")
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := GetRequestID(req.Context()); id != "" {
		t.Errorf("GetRequestID() = %q, want empty", id)
	}
}
