package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/target/launchlens/internal/domain/model"
	"github.com/target/launchlens/internal/util"
)

func newSubmitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "submit <type>",
		Short:     "Register an analysis job and queue it",
		Args:      cobra.ExactArgs(1),
		ValidArgs: jobTypeNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := a.services.Jobs.Submit(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render(job, func(w io.Writer) error {
				return writef(w, "submitted %s job %s\n", job.Type, job.ID)
			})
		},
	}
}

func jobTypeNames() []string {
	types := model.JobTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a job's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.services.Jobs.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render(st, func(w io.Writer) error {
				tw := newTable(w)
				rows := [][2]string{
					{"ID", st.ID},
					{"Type", string(st.Type)},
					{"Status", string(st.Status)},
					{"Attempts", fmt.Sprint(st.Attempts)},
					{"Result ready", fmt.Sprint(st.ResultReady)},
					{"Created", st.CreatedAt.Format(time.RFC3339)},
					{"Elapsed", util.FormatElapsed(st.UpdatedAt.Sub(st.CreatedAt))},
				}
				if st.Error != "" {
					rows = append(rows, [2]string{"Error", st.Error})
				}
				for _, r := range rows {
					if err := writef(tw, "%s:\t%s\n", r[0], r[1]); err != nil {
						return err
					}
				}
				return tw.Flush()
			})
		},
	}
}

type fetchResult struct {
	JobID string `json:"job_id"`
	File  string `json:"file"`
	Bytes int    `json:"bytes"`
}

func newFetchCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "fetch <job-id>",
		Short: "Write a completed job's PNG to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			data, err := a.services.Jobs.Result(cmd.Context(), id)
			if err != nil {
				return err
			}
			path := file
			if path == "" {
				path = id + ".png"
			}
			if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // charts are not secret
				return fmt.Errorf("write result: %w", err)
			}
			res := fetchResult{JobID: id, File: path, Bytes: len(data)}
			return a.render(res, func(w io.Writer) error {
				return writef(w, "wrote %d bytes to %s\n", res.Bytes, res.File)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "destination path (default <job-id>.png)")
	return cmd
}

func newJobsCmd(a *app) *cobra.Command {
	var (
		status string
		typ    string
		limit  int
	)
	list := func(cmd *cobra.Command, _ []string) error {
		opts := model.JobListOptions{Limit: limit}
		if status != "" {
			opts.Status = model.JobStatus(status)
			if !opts.Status.Valid() {
				return fmt.Errorf("invalid status %q", status)
			}
		}
		if typ != "" {
			t, err := model.ParseJobType(typ)
			if err != nil {
				return err
			}
			opts.Type = t
		}
		jobs, err := a.services.Jobs.List(cmd.Context(), opts)
		if err != nil {
			return err
		}
		if jobs == nil {
			jobs = []*model.Job{}
		}
		return a.render(jobs, func(w io.Writer) error {
			tw := newTable(w)
			if err := writef(tw, "ID\tTYPE\tSTATUS\tATTEMPTS\tCREATED\tERROR\n"); err != nil {
				return err
			}
			for _, j := range jobs {
				if err := writef(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
					j.ID, j.Type, j.Status, j.Attempts, j.CreatedAt.Format(time.RFC3339), j.Error); err != nil {
					return err
				}
			}
			return tw.Flush()
		})
	}

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List jobs or show job statistics",
		Long: `List registered jobs, newest first.

Subcommands:
  list   List jobs (default)
  stats  Count jobs per status`,
		Args: cobra.NoArgs,
		RunE: list,
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		Args:  cobra.NoArgs,
		RunE:  list,
	}
	for _, c := range []*cobra.Command{cmd, listCmd} {
		c.Flags().StringVarP(&status, "status", "s", "", "filter by status")
		c.Flags().StringVarP(&typ, "type", "t", "", "filter by job type")
		c.Flags().IntVarP(&limit, "limit", "n", 50, "max results")
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Count jobs per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.services.Jobs.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(st, func(w io.Writer) error {
				tw := newTable(w)
				for _, r := range []struct {
					label string
					n     int
				}{
					{"queued", st.Queued},
					{"running", st.Running},
					{"complete", st.Complete},
					{"failed", st.Failed},
				} {
					if err := writef(tw, "%s\t%d\n", r.label, r.n); err != nil {
						return err
					}
				}
				return tw.Flush()
			})
		},
	}

	cmd.AddCommand(listCmd, stats)
	return cmd
}
