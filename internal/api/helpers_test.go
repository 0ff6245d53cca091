// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/footprint/internal/audit"
	"github.com/tomtom215/footprint/internal/jobs"
	"github.com/tomtom215/footprint/internal/visits"
)

// mockEngine records calls and delegates to optional funcs.
type mockEngine struct {
	mu        sync.Mutex
	infoCalls map[string]int
	previews  []visits.PreviewRequest
	applies   []*visits.ApplyRequest

	infoFn    func(tripID string) (*visits.InfoResponse, error)
	previewFn func(ctx context.Context, req visits.PreviewRequest) (*visits.PreviewResponse, error)
	applyFn   func(req *visits.ApplyRequest) (*visits.ApplyResponse, error)
}

func newMockEngine() *mockEngine {
	return &mockEngine{infoCalls: make(map[string]int)}
}

func (m *mockEngine) Info(ctx context.Context, tripID string) (*visits.InfoResponse, error) {
	m.mu.Lock()
	m.infoCalls[tripID]++
	m.mu.Unlock()
	if m.infoFn != nil {
		return m.infoFn(tripID)
	}
	return &visits.InfoResponse{TripID: tripID, TotalPlaces: 3}, nil
}

func (m *mockEngine) Preview(ctx context.Context, req visits.PreviewRequest) (*visits.PreviewResponse, error) {
	m.mu.Lock()
	m.previews = append(m.previews, req)
	m.mu.Unlock()
	if m.previewFn != nil {
		return m.previewFn(ctx, req)
	}
	return &visits.PreviewResponse{TripID: req.TripID}, nil
}

func (m *mockEngine) Apply(ctx context.Context, req *visits.ApplyRequest) (*visits.ApplyResponse, error) {
	m.mu.Lock()
	m.applies = append(m.applies, req)
	m.mu.Unlock()
	if m.applyFn != nil {
		return m.applyFn(req)
	}
	return &visits.ApplyResponse{Success: true, Created: len(req.CreateVisits)}, nil
}

func (m *mockEngine) infoCallCount(tripID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.infoCalls[tripID]
}

// mockJobs is an in-memory PreviewJobs.
type mockJobs struct {
	mu        sync.Mutex
	jobs      map[string]*jobs.Job
	submitErr error
	cancelled []string
	nextID    int
}

func newMockJobs() *mockJobs {
	return &mockJobs{jobs: make(map[string]*jobs.Job)}
}

func (m *mockJobs) Submit(ctx context.Context, req visits.PreviewRequest) (*jobs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	m.nextID++
	job := &jobs.Job{
		ID:        fmt.Sprintf("job-%d", m.nextID),
		TripID:    req.TripID,
		DateFrom:  req.DateFrom,
		DateTo:    req.DateTo,
		Status:    jobs.StatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	m.jobs[job.ID] = job
	return job, nil
}

func (m *mockJobs) Get(ctx context.Context, id string) (*jobs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, jobs.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *mockJobs) Cancel(ctx context.Context, id string) (*jobs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, jobs.ErrJobNotFound
	}
	m.cancelled = append(m.cancelled, id)
	job.Status = jobs.StatusCancelled
	cp := *job
	return &cp, nil
}

func (m *mockJobs) put(job *jobs.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
}

// mockPinger fails when err is set.
type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

var errStorage = errors.New("duckdb: connection reset")

// testAPI bundles a router and its mocks.
type testAPI struct {
	engine  *mockEngine
	jobs    *mockJobs
	db      *mockPinger
	history *audit.MemoryStore
	handler *Handler
	router  http.Handler
}

// newTestAPI builds a router with rate limiting disabled unless cfg says
// otherwise.
func newTestAPI(t *testing.T, cfg *ChiMiddlewareConfig) *testAPI {
	t.Helper()
	if cfg == nil {
		cfg = DefaultChiMiddlewareConfig()
		cfg.RateLimitDisabled = true
	}
	a := &testAPI{
		engine:  newMockEngine(),
		jobs:    newMockJobs(),
		db:      &mockPinger{},
		history: audit.NewMemoryStore(100),
	}
	a.handler = NewHandler(a.engine, a.jobs, a.db, NewInfoCache(time.Minute)).WithHistory(a.history)
	a.router = NewRouter(a.handler, NewChiMiddleware(cfg)).SetupChi()
	return a
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// envelope is APIResponse with the payload left undecoded.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not a JSON envelope: %v\n%s", err, rec.Body.String())
	}
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) envelope {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("expected success, got error %+v (status %d)", env.Error, rec.Code)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("failed to decode data: %v\n%s", err, string(env.Data))
	}
	return env
}

// expectError checks status and error code of a failed response.
func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) envelope {
	t.Helper()
	if rec.Code != status {
		t.Errorf("status = %d, want %d (%s)", rec.Code, status, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error == nil {
		t.Fatalf("expected an error envelope, got %s", rec.Body.String())
	}
	if env.Error.Code != code {
		t.Errorf("error code = %q, want %q", env.Error.Code, code)
	}
	return env
}

const visitUUID = "4f8c2a4e-2b8f-4f55-9a53-8d1f8a0c6b11"
