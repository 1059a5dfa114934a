package ingest

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/target/launchlens/internal/domain/model"
)

// DatasetCache memoizes one dataset source for the life of the process.
// Concurrent first loads share a single fetch.
type DatasetCache struct {
	loader *Loader
	source Source
	logger *slog.Logger

	group singleflight.Group

	mu      sync.RWMutex
	records []model.Record
	loaded  bool
}

// NewDatasetCache constructs a cache over source.
func NewDatasetCache(loader *Loader, source Source, logger *slog.Logger) *DatasetCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetCache{
		loader: loader,
		source: source,
		logger: logger.With("component", "dataset_cache"),
	}
}

// Source returns the cached source.
func (c *DatasetCache) Source() Source { return c.source }

// Load returns the dataset, fetching it on first use.
func (c *DatasetCache) Load(ctx context.Context) ([]model.Record, error) {
	c.mu.RLock()
	if c.loaded {
		out := cloneRecords(c.records)
		c.mu.RUnlock()
		return out, nil
	}
	c.mu.RUnlock()
	return c.fill(ctx)
}

// Refresh discards the cached copy and fetches the source again.
func (c *DatasetCache) Refresh(ctx context.Context) ([]model.Record, error) {
	c.Invalidate()
	return c.fill(ctx)
}

// Invalidate drops the cached copy without fetching.
func (c *DatasetCache) Invalidate() {
	c.mu.Lock()
	c.records = nil
	c.loaded = false
	c.mu.Unlock()
}

// Loaded reports whether a copy is cached.
func (c *DatasetCache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *DatasetCache) fill(ctx context.Context) ([]model.Record, error) {
	v, err, shared := c.group.Do(c.source.Location, func() (any, error) {
		ds, err := c.loader.Load(ctx, c.source)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.records = ds.Records
		c.loaded = true
		c.mu.Unlock()
		return ds.Records, nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "dataset load failed", "source", c.source.Location, "error", err)
		return nil, err
	}
	if shared {
		c.logger.DebugContext(ctx, "dataset load shared", "source", c.source.Location)
	}
	return cloneRecords(v.([]model.Record)), nil
}

func cloneRecords(in []model.Record) []model.Record {
	out := make([]model.Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
