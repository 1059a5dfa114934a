// Package jobrunner runs the analysis worker loop: dequeue a job id, render
// its chart from a record snapshot, store the result and acknowledge.
package jobrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/target/launchlens/internal/analysis"
	"github.com/target/launchlens/internal/core"
	domainjob "github.com/target/launchlens/internal/domain/job"
	"github.com/target/launchlens/internal/domain/model"
	apperrors "github.com/target/launchlens/internal/errors"
	"github.com/target/launchlens/internal/observability/metrics"
	"github.com/target/launchlens/internal/observability/statsd"
)

// dequeueSlice bounds each blocking dequeue when the configured timeout is
// zero, so shutdown is noticed even though the wait is otherwise unbounded.
const dequeueSlice = 5 * time.Second

// ErrNoRecords is the failure reason stored when the record store is empty.
var ErrNoRecords = errors.New("no records available")

// Analyzer renders the artifact for a job type. *analysis.Registry implements it.
type Analyzer interface {
	Run(jobType model.JobType, records []model.Record) ([]byte, error)
}

// RunnerOptions configures the job runner adapter.
type RunnerOptions struct {
	Storage  core.Storage              // Required: shared store
	Policy   *domainjob.DeliveryPolicy // Required: delivery cap
	Analyzer Analyzer                  // Optional: defaults to the built-in analysis registry
	Logger   *slog.Logger
	Metrics  statsd.Sink

	Concurrency    int           // number of worker goroutines; defaults to 1
	DequeueTimeout time.Duration // 0 waits indefinitely
	RetryInitial   time.Duration // first backoff after a failed dequeue; defaults to 500ms
	RetryMax       time.Duration // backoff ceiling; defaults to 30s
}

// Runner pulls job ids off the work queue and executes them.
type Runner struct {
	records  core.RecordRepository
	jobs     core.JobRepository
	results  core.ResultRepository
	queue    core.WorkQueue
	analyzer Analyzer
	policy   *domainjob.DeliveryPolicy
	logger   *slog.Logger
	metrics  statsd.Sink

	workers        int
	dequeueTimeout time.Duration
	retryInitial   time.Duration
	retryMax       time.Duration
}

// NewRunner validates options and constructs a Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := opts.Storage.Validate(); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if opts.Policy == nil {
		return nil, errors.New("delivery policy is required")
	}

	analyzer := opts.Analyzer
	if analyzer == nil {
		analyzer = analysis.NewRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = 1
	}
	retryInitial := opts.RetryInitial
	if retryInitial <= 0 {
		retryInitial = 500 * time.Millisecond
	}
	retryMax := opts.RetryMax
	if retryMax < retryInitial {
		retryMax = 30 * time.Second
	}
	timeout := opts.DequeueTimeout
	if timeout < 0 {
		timeout = 0
	}

	return &Runner{
		records:        opts.Storage.Records,
		jobs:           opts.Storage.Jobs,
		results:        opts.Storage.Results,
		queue:          opts.Storage.Queue,
		analyzer:       analyzer,
		policy:         opts.Policy,
		logger:         logger.With("component", "job_runner"),
		metrics:        opts.Metrics,
		workers:        workers,
		dequeueTimeout: timeout,
		retryInitial:   retryInitial,
		retryMax:       retryMax,
	}, nil
}

// Run starts the worker goroutines and blocks until ctx is cancelled. A job
// already dequeued is finished before its worker exits.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting job runner",
		"workers", r.workers,
		"dequeue_timeout", r.dequeueTimeout,
		"max_deliveries", r.policy.MaxDeliveries(),
	)

	var wg sync.WaitGroup
	for i := range r.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.workerLoop(ctx, i)
		}()
	}
	wg.Wait()

	r.logger.InfoContext(ctx, "job runner stopped", "reason", ctx.Err())
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

func (r *Runner) workerLoop(ctx context.Context, worker int) {
	logger := r.logger.With("worker", worker)
	bo := r.newBackoff()

	for ctx.Err() == nil {
		_, err := r.ProcessNext(ctx, r.sliceTimeout())
		if err == nil {
			bo.Reset()
			continue
		}
		if ctx.Err() != nil {
			return
		}

		metrics.EmitDequeueError(r.metrics, err)
		wait := bo.NextBackOff()
		logger.WarnContext(ctx, "dequeue failed; retrying", "error", err, "retry_in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (r *Runner) newBackoff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.retryInitial
	bo.MaxInterval = r.retryMax
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

func (r *Runner) sliceTimeout() time.Duration {
	if r.dequeueTimeout == 0 {
		return dequeueSlice
	}
	return r.dequeueTimeout
}

// ProcessNext dequeues at most one job, waiting up to timeout (zero waits
// until ctx is done), and processes it. It reports whether a job was taken.
// An empty queue is not an error.
func (r *Runner) ProcessNext(ctx context.Context, timeout time.Duration) (bool, error) {
	id, err := r.queue.Dequeue(ctx, timeout)
	if errors.Is(err, model.ErrQueueEmpty) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dequeue: %w", err)
	}

	r.process(context.WithoutCancel(ctx), id)
	return true, nil
}

// Drain processes jobs until the queue stays empty for idle or ctx is done,
// returning how many were taken.
func (r *Runner) Drain(ctx context.Context, idle time.Duration) (int, error) {
	if idle <= 0 {
		idle = time.Second
	}
	n := 0
	for ctx.Err() == nil {
		took, err := r.ProcessNext(ctx, idle)
		if err != nil {
			return n, err
		}
		if !took {
			return n, nil
		}
		n++
	}
	return n, ctx.Err()
}

// process runs one delivered job id to a terminal state. Storage failures
// leave the id in flight so the reaper can redeliver it.
func (r *Runner) process(ctx context.Context, id string) {
	start := time.Now()
	logger := r.logger.With("job_id", id)

	job, err := r.jobs.Get(ctx, id)
	if errors.Is(err, model.ErrJobNotFound) {
		logger.WarnContext(ctx, "dequeued id has no job; dropping")
		r.ack(ctx, logger, id)
		r.emit("", metrics.TransitionSkip, metrics.ResultNoop, start, nil)
		return
	}
	if err != nil {
		logger.ErrorContext(ctx, "load job failed; leaving in flight", "error", err)
		return
	}
	logger = logger.With("job_type", job.Type)

	if job.Status.IsTerminal() {
		logger.InfoContext(ctx, "skipping redelivered job", "status", job.Status)
		r.ack(ctx, logger, id)
		r.emit(job.Type, metrics.TransitionSkip, metrics.ResultNoop, start, nil)
		return
	}

	attempts, err := r.jobs.IncrementAttempts(ctx, id)
	if err != nil {
		logger.ErrorContext(ctx, "count delivery failed; leaving in flight", "error", err)
		return
	}
	if r.policy.Exhausted(attempts) {
		r.fail(ctx, logger, job, errors.New(r.policy.ExhaustedReason(attempts)), start)
		return
	}

	if _, err := r.jobs.Transition(ctx, model.TransitionParams{ID: id, To: model.JobStatusRunning}); err != nil {
		if errors.Is(err, model.ErrInvalidTransition) {
			logger.InfoContext(ctx, "job finished elsewhere; dropping", "error", err)
			r.ack(ctx, logger, id)
			return
		}
		logger.ErrorContext(ctx, "mark running failed; leaving in flight", "error", err)
		return
	}
	r.emit(job.Type, metrics.TransitionStart, metrics.ResultSuccess, start, nil)
	logger.InfoContext(ctx, "job started", "attempt", attempts)

	records, err := r.records.List(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "snapshot records failed; leaving in flight", "error", err)
		return
	}
	if len(records) == 0 {
		r.fail(ctx, logger, job, ErrNoRecords, start)
		return
	}

	// Renders can be slow; restart the lease so the reaper leaves a live job alone.
	if err := r.queue.ExtendLease(ctx, id, r.policy.Deadline(time.Now())); err != nil {
		logger.WarnContext(ctx, "extend lease failed", "error", err)
	}

	artifact, err := r.analyzer.Run(job.Type, records)
	if err != nil {
		r.fail(ctx, logger, job, apperrors.Analysis(err, string(job.Type)), start)
		return
	}

	if err := r.results.Put(ctx, id, artifact); err != nil {
		logger.ErrorContext(ctx, "store result failed; leaving in flight", "error", err)
		return
	}
	if _, err := r.jobs.Transition(ctx, model.TransitionParams{ID: id, To: model.JobStatusComplete}); err != nil {
		if errors.Is(err, model.ErrInvalidTransition) {
			r.discard(ctx, logger, job, err, start)
			return
		}
		logger.ErrorContext(ctx, "mark complete failed; leaving in flight", "error", err)
		return
	}
	r.ack(ctx, logger, id)
	r.emit(job.Type, metrics.TransitionComplete, metrics.ResultSuccess, start, nil)
	logger.InfoContext(ctx, "job complete", "bytes", len(artifact), "records", len(records), "duration", time.Since(start))
}

func (r *Runner) fail(ctx context.Context, logger *slog.Logger, job *model.Job, cause error, start time.Time) {
	_, err := r.jobs.Transition(ctx, model.TransitionParams{
		ID:     job.ID,
		To:     model.JobStatusFailed,
		Reason: cause.Error(),
	})
	if err != nil && !errors.Is(err, model.ErrInvalidTransition) {
		logger.ErrorContext(ctx, "mark failed failed; leaving in flight", "error", err, "cause", cause)
		return
	}
	r.ack(ctx, logger, job.ID)
	r.emit(job.Type, metrics.TransitionFail, metrics.ResultError, start, cause)
	logger.WarnContext(ctx, "job failed", "error", cause)
}

// discard drops an artifact whose job was finished elsewhere (typically failed
// by the reaper) while it rendered. A result must only exist for a complete job.
func (r *Runner) discard(ctx context.Context, logger *slog.Logger, job *model.Job, cause error, start time.Time) {
	logger.WarnContext(ctx, "job finished elsewhere while rendering; discarding result", "error", cause)
	if err := r.results.Delete(ctx, job.ID); err != nil {
		logger.ErrorContext(ctx, "discard result failed; leaving in flight", "error", err)
		return
	}
	r.ack(ctx, logger, job.ID)
	r.emit(job.Type, metrics.TransitionSkip, metrics.ResultNoop, start, nil)
}

func (r *Runner) ack(ctx context.Context, logger *slog.Logger, id string) {
	if err := r.queue.Ack(ctx, id); err != nil {
		logger.ErrorContext(ctx, "ack failed", "error", err)
	}
}

func (r *Runner) emit(jobType model.JobType, transition, result string, start time.Time, err error) {
	metrics.EmitJobLifecycle(r.metrics, metrics.JobMetric{
		JobType:    jobType,
		Transition: transition,
		Result:     result,
		Duration:   time.Since(start),
		Err:        err,
	})
}
