// Package core defines the storage ports the launchlens services depend on.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/target/launchlens/internal/domain/model"
)

// These interfaces are the contract between the service layer and the data layer.
// The Redis implementation lives in internal/data; an in-memory double lives in
// internal/mocks/storage.

// RecordRepository stores ingested launch records.
type RecordRepository interface {
	// Put assigns an id to every record lacking one, stores them and returns how many were written.
	Put(ctx context.Context, records []model.Record) (int, error)
	List(ctx context.Context) ([]model.Record, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// JobRepository stores job metadata and lifecycle state.
type JobRepository interface {
	Create(ctx context.Context, jobType model.JobType) (*model.Job, error)
	Get(ctx context.Context, id string) (*model.Job, error)
	// SetStatus overwrites the status without any transition check. It reports
	// false when the job does not exist.
	SetStatus(ctx context.Context, id string, status model.JobStatus) (bool, error)
	// Transition atomically moves a job to params.To, returning model.ErrInvalidTransition
	// when the current status does not allow it.
	Transition(ctx context.Context, params model.TransitionParams) (*model.Job, error)
	IncrementAttempts(ctx context.Context, id string) (int, error)
	List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error)
	Stats(ctx context.Context) (*model.JobStats, error)
	Clear(ctx context.Context) error
}

// ResultRepository stores rendered analysis artifacts.
type ResultRepository interface {
	Put(ctx context.Context, jobID string, data []byte) error
	Get(ctx context.Context, jobID string) ([]byte, error)
	Exists(ctx context.Context, jobID string) (bool, error)
	Delete(ctx context.Context, jobID string) error
	Clear(ctx context.Context) error
}

// WorkQueue hands job ids from producers to workers with at-least-once delivery.
type WorkQueue interface {
	Enqueue(ctx context.Context, jobID string) error
	// Dequeue moves the oldest pending id to the in-flight list. A zero timeout
	// blocks until an id is available; otherwise model.ErrQueueEmpty is returned
	// when the timeout elapses.
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)
	Ack(ctx context.Context, jobID string) error
	// Requeue moves an in-flight id back to the front of the pending list. It
	// reports false when the id was no longer in flight.
	Requeue(ctx context.Context, jobID string) (bool, error)
	ExtendLease(ctx context.Context, jobID string, until time.Time) error
	InFlight(ctx context.Context) ([]model.Lease, error)
	Depth(ctx context.Context) (model.QueueDepth, error)
	Clear(ctx context.Context) error
}

// Storage bundles the four capability groups of the shared store.
type Storage struct {
	Records RecordRepository
	Jobs    JobRepository
	Results ResultRepository
	Queue   WorkQueue
}

// Validate reports the first missing capability.
func (s Storage) Validate() error {
	switch {
	case s.Records == nil:
		return errors.New("records repository is required")
	case s.Jobs == nil:
		return errors.New("jobs repository is required")
	case s.Results == nil:
		return errors.New("results repository is required")
	case s.Queue == nil:
		return errors.New("work queue is required")
	}
	return nil
}

// Reset clears every capability group. It stops at the first failure.
func (s Storage) Reset(ctx context.Context) error {
	steps := []struct {
		name  string
		clear func(context.Context) error
	}{
		{"queue", s.Queue.Clear},
		{"jobs", s.Jobs.Clear},
		{"results", s.Results.Clear},
		{"records", s.Records.Clear},
	}
	for _, step := range steps {
		if err := step.clear(ctx); err != nil {
			return fmt.Errorf("reset %s: %w", step.name, err)
		}
	}
	return nil
}
