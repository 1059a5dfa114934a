package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/launchlens/internal/core"
	"github.com/target/launchlens/internal/domain/model"
	apperrors "github.com/target/launchlens/internal/errors"
	"github.com/target/launchlens/internal/observability/metrics"
	"github.com/target/launchlens/internal/observability/statsd"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Jobs    core.JobRepository    // Required: job registry
	Results core.ResultRepository // Required: result store
	Queue   core.WorkQueue        // Required: work queue
	// Supports reports whether a job type has an analysis bound to it.
	// Defaults to model.JobType.Valid.
	Supports func(model.JobType) bool
	Logger   *slog.Logger // Optional: structured logger
	Metrics  statsd.Sink  // Optional: metrics sink
}

// JobService registers analysis jobs and answers status and result queries.
type JobService struct {
	jobs     core.JobRepository
	results  core.ResultRepository
	queue    core.WorkQueue
	supports func(model.JobType) bool
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	switch {
	case opts.Jobs == nil:
		return nil, errors.New("JobRepository is required")
	case opts.Results == nil:
		return nil, errors.New("ResultRepository is required")
	case opts.Queue == nil:
		return nil, errors.New("WorkQueue is required")
	}

	supports := opts.Supports
	if supports == nil {
		supports = model.JobType.Valid
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &JobService{
		jobs:     opts.Jobs,
		results:  opts.Results,
		queue:    opts.Queue,
		supports: supports,
		logger:   logger.With("component", "job_service"),
		metrics:  opts.Metrics,
	}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// Submit registers a job of the named type and enqueues it. The registry
// entry is written before the id is enqueued. If enqueueing fails the job is
// marked failed and the error is returned.
func (s *JobService) Submit(ctx context.Context, rawType string) (*model.Job, error) {
	start := time.Now()

	jobType, err := model.ParseJobType(rawType)
	if err != nil || !s.supports(jobType) {
		return nil, apperrors.ValidationField("type", fmt.Sprintf("unsupported job type %q", rawType))
	}

	job, err := s.jobs.Create(ctx, jobType)
	if err != nil {
		s.emit(jobType, metrics.ResultError, start, err)
		return nil, fmt.Errorf("create job: %w", err)
	}

	if err := s.queue.Enqueue(ctx, job.ID); err != nil {
		s.failUnqueued(ctx, job, err)
		s.emit(jobType, metrics.ResultError, start, err)
		return nil, fmt.Errorf("enqueue job %s: %w", job.ID, err)
	}

	s.emit(jobType, metrics.ResultSuccess, start, nil)
	s.logger.InfoContext(ctx, "job submitted", "job_id", job.ID, "job_type", job.Type)
	return job, nil
}

// failUnqueued records why a registered job will never be delivered.
func (s *JobService) failUnqueued(ctx context.Context, job *model.Job, cause error) {
	_, err := s.jobs.Transition(ctx, model.TransitionParams{
		ID:     job.ID,
		To:     model.JobStatusFailed,
		Reason: "enqueue failed: " + cause.Error(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to mark unqueued job failed",
			"job_id", job.ID, "error", err, "cause", cause)
		return
	}
	job.Status = model.JobStatusFailed
}

func (s *JobService) emit(jobType model.JobType, result string, start time.Time, err error) {
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		JobType:    jobType,
		Transition: metrics.TransitionSubmit,
		Result:     result,
		Duration:   time.Since(start),
		Err:        err,
	})
}

// Get returns the job with id.
func (s *JobService) Get(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

// Status returns the job together with whether its result can be fetched.
func (s *JobService) Status(ctx context.Context, id string) (*model.JobStatusResponse, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := &model.JobStatusResponse{Job: job}
	if job.Status == model.JobStatusComplete {
		ready, err := s.results.Exists(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("check result %s: %w", id, err)
		}
		resp.ResultReady = ready
	}
	return resp, nil
}

// Result returns the PNG artifact of a completed job.
func (s *JobService) Result(ctx context.Context, id string) ([]byte, error) {
	data, err := s.results.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get result %s: %w", id, err)
	}
	return data, nil
}

// List returns jobs newest first.
func (s *JobService) List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error) {
	if opts.Status != "" && !opts.Status.Valid() {
		return nil, apperrors.ValidationField("status", fmt.Sprintf("unknown status %q", opts.Status))
	}
	if opts.Type != "" && !opts.Type.Valid() {
		return nil, apperrors.ValidationField("type", fmt.Sprintf("unknown job type %q", opts.Type))
	}
	if opts.Limit < 0 {
		return nil, apperrors.ValidationField("limit", "limit must not be negative")
	}
	jobs, err := s.jobs.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// Stats counts jobs by status.
func (s *JobService) Stats(ctx context.Context) (*model.JobStats, error) {
	stats, err := s.jobs.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	return stats, nil
}

// QueueDepth reports pending and in-flight counts.
func (s *JobService) QueueDepth(ctx context.Context) (model.QueueDepth, error) {
	depth, err := s.queue.Depth(ctx)
	if err != nil {
		return model.QueueDepth{}, fmt.Errorf("queue depth: %w", err)
	}
	metrics.EmitQueueDepth(s.metrics, depth)
	return depth, nil
}

// InFlight lists the leases currently held by workers.
func (s *JobService) InFlight(ctx context.Context) ([]model.Lease, error) {
	leases, err := s.queue.InFlight(ctx)
	if err != nil {
		return nil, fmt.Errorf("list in-flight: %w", err)
	}
	return leases, nil
}
