package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/target/launchlens/internal/ingest"
	"github.com/target/launchlens/internal/service"
)

type ingestResult struct {
	Count   int      `json:"count"`
	Sources []string `json:"sources"`
}

func newIngestCmd(a *app) *cobra.Command {
	var (
		selector    string
		concurrency int
		refresh     bool
	)
	cmd := &cobra.Command{
		Use:   "ingest [file-or-url...]",
		Short: "Load launch datasets into the record store",
		Long: `Load one or more CSV or JSON datasets, from local paths or http(s) URLs,
and append their rows to the record store. Sources are fetched concurrently.

Without arguments the dataset configured by INGEST_SOURCE_PATH is loaded.`,
		Example: `  launchlens-admin ingest data/launches.csv
  launchlens-admin ingest https://example.com/launches.json --selector data.items
  launchlens-admin ingest --refresh`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 0 {
				n, err := a.services.Records.LoadDataset(ctx, refresh)
				if err != nil {
					return err
				}
				return a.renderIngest(ingestResult{Count: n, Sources: []string{a.services.Dataset.Source().String()}})
			}

			if err := ingest.ValidateSelector(selector); err != nil {
				return err
			}
			loader := ingest.NewLoader(ingest.LoaderOptions{Logger: a.logger})
			records, err := loader.LoadAll(ctx, ingest.SourcesFromPaths(args, selector), concurrency)
			if err != nil {
				return err
			}
			n, err := a.services.Records.Ingest(ctx, records, service.OriginFile)
			if err != nil {
				return err
			}
			return a.renderIngest(ingestResult{Count: n, Sources: args})
		},
	}
	cmd.Flags().StringVar(&selector, "selector", "", "JMESPath expression selecting the record array in JSON sources")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "maximum sources fetched at once")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-fetch the configured dataset instead of using the cache")
	return cmd
}

func (a *app) renderIngest(res ingestResult) error {
	return a.render(res, func(w io.Writer) error {
		return writef(w, "ingested %d records from %d source(s)\n", res.Count, len(res.Sources))
	})
}

func newRecordsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect or clear the record store",
	}

	countCmd := &cobra.Command{
		Use:   "count",
		Short: "Print how many records are stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.services.Records.Count(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(map[string]int{"count": n}, func(w io.Writer) error {
				return writef(w, "%d records\n", n)
			})
		},
	}

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.confirm(yes, "delete all records"); err != nil {
				return err
			}
			if err := a.services.Records.Clear(cmd.Context()); err != nil {
				return err
			}
			return a.render(map[string]string{"status": "all records deleted"}, func(w io.Writer) error {
				return writef(w, "all records deleted\n")
			})
		},
	}
	clearCmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	cmd.AddCommand(countCmd, clearCmd)
	return cmd
}
