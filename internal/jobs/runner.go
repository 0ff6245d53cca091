// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/footprint/internal/logging"
	"github.com/tomtom215/footprint/internal/metrics"
	"github.com/tomtom215/footprint/internal/visits"
)

// Previewer runs a backfill preview. *visits.Engine satisfies it.
type Previewer interface {
	Preview(ctx context.Context, req visits.PreviewRequest) (*visits.PreviewResponse, error)
}

// Config sizes the runner.
type Config struct {
	Workers   int
	QueueSize int
	ResultTTL time.Duration
}

// Runner executes preview jobs on a bounded worker pool. It implements
// suture.Service; jobs are only picked up while Serve runs.
type Runner struct {
	previewer Previewer
	store     *Store
	cfg       Config
	queue     chan string
	logger    zerolog.Logger
	now       func() time.Time

	mu sync.Mutex
	// queued holds ids waiting in the channel. Cancelling a queued job
	// removes it here and the worker skips it.
	queued map[string]bool
	// running holds the cancel func of each job a worker is executing.
	running map[string]context.CancelFunc
	stopped bool
}

// NewRunner creates a runner. Zero config values fall back to one worker,
// a queue of eight and a one hour result TTL.
func NewRunner(previewer Previewer, store *Store, cfg Config) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 8
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = time.Hour
	}
	return &Runner{
		previewer: previewer,
		store:     store,
		cfg:       cfg,
		queue:     make(chan string, cfg.QueueSize),
		logger:    logging.WithComponent("preview-jobs"),
		now:       time.Now,
		queued:    make(map[string]bool),
		running:   make(map[string]context.CancelFunc),
	}
}

// Submit persists a queued job and hands it to the pool.
func (r *Runner) Submit(ctx context.Context, req visits.PreviewRequest) (*Job, error) {
	r.mu.Lock()
	stopped := r.stopped
	r.mu.Unlock()
	if stopped {
		return nil, ErrRunnerStopped
	}

	job := &Job{
		ID:        uuid.New().String(),
		TripID:    req.TripID,
		DateFrom:  req.DateFrom,
		DateTo:    req.DateTo,
		Status:    StatusQueued,
		CreatedAt: r.now().UTC(),
	}
	job.CorrelationID = logging.CorrelationIDFromContext(ctx)
	if job.CorrelationID == "" {
		job.CorrelationID = job.ID
	}
	if err := r.store.Save(ctx, job, r.cfg.ResultTTL); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.queued[job.ID] = true
	r.mu.Unlock()

	select {
	case r.queue <- job.ID:
		metrics.JobQueueDepth.Set(float64(len(r.queue)))
	default:
		r.mu.Lock()
		delete(r.queued, job.ID)
		r.mu.Unlock()
		metrics.JobsRejected.Inc()
		if err := r.store.Delete(ctx, job.ID); err != nil {
			r.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to remove rejected job")
		}
		return nil, ErrQueueFull
	}

	r.logger.Info().Str("job_id", job.ID).Str("trip_id", job.TripID).Msg("Preview job queued")
	return job, nil
}

// Get returns the current state of a job.
func (r *Runner) Get(ctx context.Context, id string) (*Job, error) {
	return r.store.Get(ctx, id)
}

// Cancel stops a job. A queued job is cancelled immediately. A running job
// is signalled and finishes as cancelled with its partial preview once the
// worker observes it. Finished jobs are returned unchanged.
func (r *Runner) Cancel(ctx context.Context, id string) (*Job, error) {
	job, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return job, nil
	}

	r.mu.Lock()
	if cancel, ok := r.running[id]; ok {
		cancel()
		r.mu.Unlock()
		r.logger.Info().Str("job_id", id).Msg("Preview job cancellation requested")
		return job, nil
	}
	if !r.queued[id] {
		// A worker finished it in the meantime, or another runner owns it.
		r.mu.Unlock()
		return r.store.Get(ctx, id)
	}
	delete(r.queued, id)
	r.mu.Unlock()

	if err := r.finish(ctx, job, StatusCancelled, nil, nil); err != nil {
		return nil, err
	}
	return job, nil
}

// Serve runs the worker pool until ctx is done.
func (r *Runner) Serve(ctx context.Context) error {
	r.logger.Info().Int("workers", r.cfg.Workers).Int("queue_size", r.cfg.QueueSize).Msg("Preview job runner started")

	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.worker(ctx)
		}()
	}
	wg.Wait()

	r.logger.Info().Msg("Preview job runner stopped")
	return ctx.Err()
}

// Stop rejects further submissions. Serve is stopped through its context.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
}

// String returns the service name for logging.
func (r *Runner) String() string {
	return "preview-job-runner"
}

func (r *Runner) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-r.queue:
			metrics.JobQueueDepth.Set(float64(len(r.queue)))
			r.run(ctx, id)
		}
	}
}

// run executes one job. Failures to persist are logged; the job then
// expires with whatever state was last stored.
func (r *Runner) run(ctx context.Context, id string) {
	r.mu.Lock()
	if !r.queued[id] {
		r.mu.Unlock()
		return
	}
	delete(r.queued, id)
	jobCtx, cancel := context.WithCancel(ctx)
	r.running[id] = cancel
	r.mu.Unlock()

	defer func() {
		cancel()
		r.mu.Lock()
		delete(r.running, id)
		r.mu.Unlock()
	}()

	job, err := r.store.Get(ctx, id)
	if err != nil {
		r.logger.Warn().Err(err).Str("job_id", id).Msg("Queued preview job vanished")
		return
	}

	started := r.now().UTC()
	job.Status = StatusRunning
	job.StartedAt = &started
	if err := r.store.Save(ctx, job, r.cfg.ResultTTL); err != nil {
		r.logger.Warn().Err(err).Str("job_id", id).Msg("Failed to mark preview job running")
	}

	// Engine log lines carry the job id even when the correlation id came
	// from the submitting request.
	previewCtx := logging.ContextWithCorrelationID(jobCtx, job.CorrelationID)
	previewCtx = logging.ContextWithLogger(previewCtx, logging.With().Str("job_id", job.ID).Logger())
	preview, err := r.previewer.Preview(previewCtx, job.request())

	status := StatusCompleted
	switch {
	case err != nil:
		status = StatusFailed
	case jobCtx.Err() != nil || preview.Truncated:
		status = StatusCancelled
	}

	// The parent context may be gone during shutdown; the final state is
	// still written.
	saveCtx, saveCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer saveCancel()
	if err := r.finish(saveCtx, job, status, preview, err); err != nil {
		r.logger.Error().Err(err).Str("job_id", id).Msg("Failed to store preview job result")
	}
}

// finish moves job to a terminal status and persists it.
func (r *Runner) finish(ctx context.Context, job *Job, status Status, preview *visits.PreviewResponse, runErr error) error {
	finished := r.now().UTC()
	job.Status = status
	job.FinishedAt = &finished
	job.Preview = preview
	if runErr != nil {
		job.Error = runErr.Error()
	}
	metrics.RecordJobFinished(string(status))

	var inputErr *visits.InputError
	event := r.logger.Info()
	if status == StatusFailed && !errors.As(runErr, &inputErr) {
		event = r.logger.Warn()
	}
	event.Err(runErr).Str("job_id", job.ID).Str("trip_id", job.TripID).Str("status", string(status)).Msg("Preview job finished")

	if err := r.store.Save(ctx, job, r.cfg.ResultTTL); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}
