package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/launchlens/config"
	"github.com/target/launchlens/internal/core"
	domainjob "github.com/target/launchlens/internal/domain/job"
	"github.com/target/launchlens/internal/domain/model"
	obserrors "github.com/target/launchlens/internal/observability/errors"
	"github.com/target/launchlens/internal/observability/metrics"
	"github.com/target/launchlens/internal/observability/statsd"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Jobs    core.JobRepository        // Required: job registry
	Queue   core.WorkQueue            // Required: work queue
	Policy  *domainjob.DeliveryPolicy // Required: visibility timeout and delivery cap
	Config  config.ReaperConfig       // Required: reaper configuration
	Logger  *slog.Logger              // Optional: structured logger
	Metrics statsd.Sink               // Optional: metrics sink (StatsD-compatible)
	Now     func() time.Time          // Optional: clock override for tests
}

// ReaperService recovers jobs abandoned by crashed workers.
//
// Each sweep inspects the in-flight list:
// - entries without a lease get one stamped;
// - entries whose job is gone or terminal are acknowledged;
// - expired entries are requeued, or failed once out of deliveries.
type ReaperService struct {
	jobs    core.JobRepository
	queue   core.WorkQueue
	policy  *domainjob.DeliveryPolicy
	config  config.ReaperConfig
	logger  *slog.Logger
	metrics statsd.Sink
	now     func() time.Time
}

// SweepReport counts what one sweep did.
type SweepReport struct {
	Inspected int `json:"inspected"`
	Stamped   int `json:"stamped"`
	Acked     int `json:"acked"`
	Requeued  int `json:"requeued"`
	Failed    int `json:"failed"`
}

// Changed reports whether the sweep touched anything.
func (r SweepReport) Changed() bool {
	return r.Stamped+r.Acked+r.Requeued+r.Failed > 0
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	switch {
	case opts.Jobs == nil:
		return nil, errors.New("JobRepository is required")
	case opts.Queue == nil:
		return nil, errors.New("WorkQueue is required")
	case opts.Policy == nil:
		return nil, errors.New("DeliveryPolicy is required")
	}

	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "reaper_service")
		logger.Debug("ReaperService initialized",
			"interval", opts.Config.Interval,
			"visibility_timeout", opts.Policy.VisibilityTimeout(),
			"max_deliveries", opts.Policy.MaxDeliveries(),
		)
	}

	return &ReaperService{
		jobs:    opts.Jobs,
		queue:   opts.Queue,
		policy:  opts.Policy,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
		now:     now,
	}, nil
}

// Run sweeps at the configured interval until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)
	}

	// Add jitter to prevent thundering herd if multiple instances start together
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logSweepError(err, "initial sweep")
	}

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logSweepError(err, "sweep")
			}
		}
	}
}

// waitWithJitter adds a random delay up to 10% of the interval.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

// RunOnce performs a single sweep over the in-flight list. Per-entry failures
// are collected; the sweep continues with the remaining entries.
func (s *ReaperService) RunOnce(ctx context.Context) (SweepReport, error) {
	start := time.Now()
	var report SweepReport

	leases, err := s.queue.InFlight(ctx)
	if err != nil {
		s.emitSweep(report, time.Since(start), err)
		return report, fmt.Errorf("list in-flight: %w", err)
	}

	now := s.now()
	var errs []error
	for _, lease := range leases {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		report.Inspected++
		if err := s.recover(ctx, lease, now, &report); err != nil {
			errs = append(errs, fmt.Errorf("recover %s: %w", lease.JobID, err))
		}
	}

	if depth, err := s.queue.Depth(ctx); err == nil {
		metrics.EmitQueueDepth(s.metrics, depth)
	}

	joined := errors.Join(errs...)
	s.emitSweep(report, time.Since(start), joined)
	if report.Changed() && s.logger != nil {
		s.logger.InfoContext(ctx, "reaper sweep recovered jobs",
			"inspected", report.Inspected,
			"stamped", report.Stamped,
			"acked", report.Acked,
			"requeued", report.Requeued,
			"failed", report.Failed,
		)
	}
	if joined != nil {
		return report, fmt.Errorf("sweep failed: %w", joined)
	}
	return report, nil
}

func (s *ReaperService) recover(ctx context.Context, lease model.Lease, now time.Time, report *SweepReport) error {
	job, err := s.jobs.Get(ctx, lease.JobID)
	if err != nil && !errors.Is(err, model.ErrJobNotFound) {
		return err
	}
	if err != nil {
		job = nil
	}

	switch action := s.policy.Recover(lease, job, now); action {
	case domainjob.RecoveryKeep:
		return nil

	case domainjob.RecoveryStamp:
		if err := s.queue.ExtendLease(ctx, lease.JobID, s.policy.Deadline(now)); err != nil {
			return err
		}
		report.Stamped++

	case domainjob.RecoveryAck:
		if err := s.queue.Ack(ctx, lease.JobID); err != nil {
			return err
		}
		report.Acked++

	case domainjob.RecoveryRequeue:
		moved, err := s.queue.Requeue(ctx, lease.JobID)
		if err != nil {
			return err
		}
		if moved {
			report.Requeued++
			metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
				JobType:    job.Type,
				Transition: metrics.TransitionRequeue,
				Result:     metrics.ResultSuccess,
			})
			if s.logger != nil {
				s.logger.WarnContext(ctx, "requeued abandoned job",
					"job_id", lease.JobID, "attempts", job.Attempts, "deadline", lease.Deadline)
			}
		}

	case domainjob.RecoveryFail:
		reason := s.policy.ExhaustedReason(job.Attempts)
		_, err := s.jobs.Transition(ctx, model.TransitionParams{
			ID: lease.JobID, To: model.JobStatusFailed, Reason: reason,
		})
		if err != nil && !errors.Is(err, model.ErrInvalidTransition) {
			return err
		}
		if err := s.queue.Ack(ctx, lease.JobID); err != nil {
			return err
		}
		report.Failed++
		metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
			JobType:    job.Type,
			Transition: metrics.TransitionFail,
			Result:     metrics.ResultError,
			Err:        errors.New(reason),
		})
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed abandoned job", "job_id", lease.JobID, "reason", reason)
		}

	default:
		return fmt.Errorf("unknown recovery action %q", action)
	}
	return nil
}

func (s *ReaperService) emitSweep(report SweepReport, elapsed time.Duration, err error) {
	if s.metrics == nil {
		return
	}
	result := metrics.ResultSuccess
	switch {
	case err != nil:
		result = metrics.ResultError
	case !report.Changed():
		result = metrics.ResultNoop
	}
	tags := map[string]string{"result": result, "error_class": obserrors.Classify(err)}
	s.metrics.Count("reaper.sweep", 1, tags)
	s.metrics.Timing("reaper.sweep_duration", elapsed, map[string]string{"result": result})

	metrics.EmitReaperSweep(s.metrics, string(domainjob.RecoveryStamp), report.Stamped)
	metrics.EmitReaperSweep(s.metrics, string(domainjob.RecoveryAck), report.Acked)
	metrics.EmitReaperSweep(s.metrics, string(domainjob.RecoveryRequeue), report.Requeued)
	metrics.EmitReaperSweep(s.metrics, string(domainjob.RecoveryFail), report.Failed)
}

func (s *ReaperService) logSweepError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}
	s.logger.Error(label+" failed", "error", err)
}
