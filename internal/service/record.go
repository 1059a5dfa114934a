package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/target/launchlens/internal/core"
	"github.com/target/launchlens/internal/domain/model"
	apperrors "github.com/target/launchlens/internal/errors"
	"github.com/target/launchlens/internal/ingest"
	"github.com/target/launchlens/internal/observability/metrics"
	"github.com/target/launchlens/internal/observability/statsd"
)

// Ingest origins used for logging and metrics.
const (
	OriginJSON    = "json"
	OriginCSV     = "csv"
	OriginDataset = "dataset"
	OriginFile    = "file"
)

// RecordServiceOptions groups dependencies for RecordService.
type RecordServiceOptions struct {
	Records core.RecordRepository // Required: record store
	Dataset *ingest.DatasetCache  // Optional: configured launch dataset
	Logger  *slog.Logger          // Optional: structured logger
	Metrics statsd.Sink           // Optional: metrics sink
}

// RecordService validates and stores launch records.
type RecordService struct {
	records core.RecordRepository
	dataset *ingest.DatasetCache
	logger  *slog.Logger
	metrics statsd.Sink
}

// ErrNoDataset is returned by LoadDataset when no dataset source is configured.
var ErrNoDataset = errors.New("no dataset source configured")

// NewRecordService constructs a new RecordService.
func NewRecordService(opts RecordServiceOptions) (*RecordService, error) {
	if opts.Records == nil {
		return nil, errors.New("RecordRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordService{
		records: opts.Records,
		dataset: opts.Dataset,
		logger:  logger.With("component", "record_service"),
		metrics: opts.Metrics,
	}, nil
}

// Ingest stores records. Every record gets a fresh id; any client-supplied
// "id" is discarded.
func (s *RecordService) Ingest(ctx context.Context, records []model.Record, origin string) (int, error) {
	if len(records) == 0 {
		return 0, apperrors.Validation("no records provided")
	}
	clean := make([]model.Record, len(records))
	for i, rec := range records {
		if rec == nil {
			return 0, apperrors.ValidationField(fmt.Sprintf("[%d]", i), "record must be an object")
		}
		cp := rec.Clone()
		delete(cp, model.RecordIDField)
		clean[i] = cp
	}

	n, err := s.records.Put(ctx, clean)
	metrics.EmitIngest(s.metrics, origin, n, err)
	if err != nil {
		return 0, fmt.Errorf("store records: %w", err)
	}
	s.logger.InfoContext(ctx, "records ingested", "origin", origin, "count", n)
	return n, nil
}

// IngestCSV parses a CSV upload and stores its rows.
func (s *RecordService) IngestCSV(ctx context.Context, r io.Reader) (int, error) {
	ds, err := ingest.ParseCSV(r)
	if err != nil {
		return 0, err
	}
	return s.Ingest(ctx, ds.Records, OriginCSV)
}

// IngestJSON parses a JSON object or array upload and stores it.
func (s *RecordService) IngestJSON(ctx context.Context, body []byte, selector string) (int, error) {
	ds, err := ingest.ParseJSON(body, selector)
	if err != nil {
		return 0, err
	}
	return s.Ingest(ctx, ds.Records, OriginJSON)
}

// LoadDataset stores the configured dataset. With refresh the source is
// fetched again instead of served from the cache.
func (s *RecordService) LoadDataset(ctx context.Context, refresh bool) (int, error) {
	if s.dataset == nil {
		return 0, ErrNoDataset
	}
	load := s.dataset.Load
	if refresh {
		load = s.dataset.Refresh
	}
	records, err := load(ctx)
	if err != nil {
		metrics.EmitIngest(s.metrics, OriginDataset, 0, err)
		return 0, fmt.Errorf("load dataset: %w", err)
	}
	return s.Ingest(ctx, records, OriginDataset)
}

// List returns every stored record.
func (s *RecordService) List(ctx context.Context) ([]model.Record, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Count returns how many records are stored.
func (s *RecordService) Count(ctx context.Context) (int, error) {
	n, err := s.records.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Clear removes every record.
func (s *RecordService) Clear(ctx context.Context) error {
	if err := s.records.Clear(ctx); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	s.logger.InfoContext(ctx, "records cleared")
	return nil
}
