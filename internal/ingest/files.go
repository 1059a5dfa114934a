package ingest

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/target/launchlens/internal/domain/model"
)

// LoadAll loads sources concurrently, at most limit at a time, and returns
// their records concatenated in source order. The first failure cancels the rest.
func (l *Loader) LoadAll(ctx context.Context, sources []Source, limit int) ([]model.Record, error) {
	results := make([][]model.Record, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, src := range sources {
		g.Go(func() error {
			ds, err := l.Load(gctx, src)
			if err != nil {
				return err
			}
			results[i] = ds.Records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, r := range results {
		total += len(r)
	}
	out := make([]model.Record, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// SourcesFromPaths builds auto-detected sources for each location.
func SourcesFromPaths(locations []string, selector string) []Source {
	out := make([]Source, len(locations))
	for i, loc := range locations {
		out[i] = Source{Location: loc, Selector: selector}
	}
	return out
}
