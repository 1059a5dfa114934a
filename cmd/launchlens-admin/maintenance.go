package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/target/launchlens/internal/adapters/jobrunner"
	"github.com/target/launchlens/internal/adapters/reaper"
	"github.com/target/launchlens/internal/domain/model"
	"github.com/target/launchlens/internal/service"
)

func newQueueCmd(a *app) *cobra.Command {
	depth := func(cmd *cobra.Command, _ []string) error {
		d, err := a.services.Jobs.QueueDepth(cmd.Context())
		if err != nil {
			return err
		}
		return a.render(d, func(w io.Writer) error {
			return writef(w, "pending: %d\nin flight: %d\n", d.Pending, d.InFlight)
		})
	}

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show work queue depth and in-flight leases",
		Args:  cobra.NoArgs,
		RunE:  depth,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "depth",
			Short: "Count pending and in-flight ids",
			Args:  cobra.NoArgs,
			RunE:  depth,
		},
		&cobra.Command{
			Use:   "inflight",
			Short: "List in-flight ids and their lease deadlines",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				leases, err := a.services.Jobs.InFlight(cmd.Context())
				if err != nil {
					return err
				}
				if leases == nil {
					leases = []model.Lease{}
				}
				now := time.Now()
				return a.render(leases, func(w io.Writer) error {
					tw := newTable(w)
					if err := writef(tw, "JOB\tDEADLINE\tEXPIRED\n"); err != nil {
						return err
					}
					for _, l := range leases {
						deadline := "unstamped"
						if !l.Deadline.IsZero() {
							deadline = l.Deadline.Format(time.RFC3339)
						}
						if err := writef(tw, "%s\t%s\t%t\n", l.JobID, deadline, l.Expired(now)); err != nil {
							return err
						}
					}
					return tw.Flush()
				})
			},
		},
	)
	return cmd
}

type drainResult struct {
	Processed int `json:"processed"`
}

func newDrainCmd(a *app) *cobra.Command {
	var idle time.Duration
	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Process queued jobs in this process until the queue is idle",
		Long: `Run the worker loop in the foreground, one job at a time, and exit once no
job arrives for --idle. Interrupting finishes the current job first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner, err := jobrunner.NewRunner(jobrunner.RunnerOptions{
				Storage:  a.services.Storage,
				Policy:   a.services.Policy,
				Analyzer: a.services.Analysis,
				Logger:   a.logger,
				Metrics:  a.services.Observability.Sink,
			})
			if err != nil {
				return err
			}
			n, err := runner.Drain(ctx, idle)
			if err != nil && ctx.Err() == nil {
				return err
			}
			res := drainResult{Processed: n}
			return a.render(res, func(w io.Writer) error {
				return writef(w, "processed %d job(s)\n", res.Processed)
			})
		},
	}
	cmd.Flags().DurationVar(&idle, "idle", 2*time.Second, "stop after the queue stays empty this long")
	return cmd
}

func newReapCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reap",
		Short: "Run one reaper sweep over in-flight leases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := reaper.NewRunner(reaper.RunnerOptions{
				Storage: a.services.Storage,
				Policy:  a.services.Policy,
				Config:  a.cfg.Reaper,
				Logger:  a.logger,
				Metrics: a.services.Observability.Sink,
			})
			if err != nil {
				return err
			}
			report, err := runner.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(report, func(w io.Writer) error {
				return writef(w, "inspected %d, stamped %d, acked %d, requeued %d, failed %d\n",
					report.Inspected, report.Stamped, report.Acked, report.Requeued, report.Failed)
			})
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every record, job, result and queue entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.confirm(yes, "wipe the launchlens store (key prefix "+a.cfg.Store.KeyPrefix+")"); err != nil {
				return err
			}
			if err := service.ResetStorage(cmd.Context(), a.services.Storage, a.logger); err != nil {
				return err
			}
			return a.render(map[string]string{"status": "store reset"}, func(w io.Writer) error {
				return writef(w, "store reset\n")
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
