// Package reaper provides adapters for running the lease reaper.
package reaper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/launchlens/config"
	"github.com/target/launchlens/internal/core"
	domainjob "github.com/target/launchlens/internal/domain/job"
	"github.com/target/launchlens/internal/observability/statsd"
	"github.com/target/launchlens/internal/service"
)

// Runner provides a simple adapter to run the reaper loop.
// It constructs the reaper service and runs the sweep loop.
type Runner struct {
	reaper *service.ReaperService
	logger *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Storage core.Storage
	Policy  *domainjob.DeliveryPolicy
	Config  config.ReaperConfig
	Logger  *slog.Logger
	Metrics statsd.Sink
	Now     func() time.Time // Optional: clock override
}

// NewRunner creates a new reaper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	reaper, err := service.NewReaperService(service.ReaperServiceOptions{
		Jobs:    opts.Storage.Jobs,
		Queue:   opts.Storage.Queue,
		Policy:  opts.Policy,
		Config:  opts.Config,
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
		Now:     opts.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("wire reaper service: %w", err)
	}

	return &Runner{reaper: reaper, logger: opts.Logger}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.Storage.Jobs == nil || opts.Storage.Queue == nil {
		return errors.New("job registry and work queue are required")
	}
	if opts.Policy == nil {
		return errors.New("delivery policy is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

// Run starts the reaper loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting reaper runner")
	return r.reaper.Run(ctx)
}

// Sweep runs a single recovery pass.
func (r *Runner) Sweep(ctx context.Context) (service.SweepReport, error) {
	return r.reaper.RunOnce(ctx)
}
