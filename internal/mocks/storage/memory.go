// Package storage contains an in-memory implementation of every storage port.
// It follows the Redis implementation's semantics closely enough for service,
// worker and handler tests to run without Redis.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/target/launchlens/internal/core"
	"github.com/target/launchlens/internal/domain/model"
	apperrors "github.com/target/launchlens/internal/errors"
)

// Ensure compile-time conformance to the core ports.
var (
	_ core.RecordRepository = (*MemoryRecords)(nil)
	_ core.JobRepository    = (*MemoryJobs)(nil)
	_ core.ResultRepository = (*MemoryResults)(nil)
	_ core.WorkQueue        = (*MemoryQueue)(nil)
)

// Memory holds all state behind one mutex. Use Storage to obtain the ports.
type Memory struct {
	mu sync.Mutex

	records map[string]model.Record
	jobs    map[string]*model.Job
	results map[string][]byte

	pending    []string // front is the next id to deliver
	processing []string
	leases     map[string]time.Time
	wake       chan struct{}

	visibility time.Duration
	now        func() time.Time

	// fail, when set, is returned by every operation to simulate an outage.
	fail error
}

// NewMemory creates an empty store. visibility is the lease stamped on dequeue; zero disables leases.
func NewMemory(visibility time.Duration) *Memory {
	return &Memory{
		records:    make(map[string]model.Record),
		jobs:       make(map[string]*model.Job),
		results:    make(map[string][]byte),
		leases:     make(map[string]time.Time),
		wake:       make(chan struct{}, 1),
		visibility: visibility,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// SetFailure makes every subsequent call return err until cleared with nil.
func (m *Memory) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// Storage returns the four ports backed by m.
func (m *Memory) Storage() core.Storage {
	return core.Storage{Records: m.Records(), Jobs: m.Jobs(), Results: m.Results(), Queue: m.Queue()}
}

// Records returns the record port.
func (m *Memory) Records() *MemoryRecords { return (*MemoryRecords)(m) }

// Jobs returns the job port.
func (m *Memory) Jobs() *MemoryJobs { return (*MemoryJobs)(m) }

// Results returns the result port.
func (m *Memory) Results() *MemoryResults { return (*MemoryResults)(m) }

// Queue returns the queue port.
func (m *Memory) Queue() *MemoryQueue { return (*MemoryQueue)(m) }

func (m *Memory) failure(op string) error {
	if m.fail != nil {
		return apperrors.Unavailable(m.fail, op)
	}
	return nil
}

// MemoryRecords implements core.RecordRepository.
type MemoryRecords Memory

func (r *MemoryRecords) m() *Memory { return (*Memory)(r) }

func (r *MemoryRecords) Put(_ context.Context, records []model.Record) (int, error) {
	m := r.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("put records"); err != nil {
		return 0, err
	}

	staged := make([]model.Record, 0, len(records))
	for i, rec := range records {
		if rec == nil {
			return 0, apperrors.Validationf("record %d is null", i)
		}
		stored := rec.Clone()
		if stored.ID() == "" {
			stored[model.RecordIDField] = uuid.NewString()
		}
		// Round-trip through JSON so stored values look like Redis-decoded ones.
		raw, err := json.Marshal(stored)
		if err != nil {
			return 0, apperrors.Wrapf(err, apperrors.ErrCodeValidation, "record %d cannot be encoded", i)
		}
		var decoded model.Record
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return 0, fmt.Errorf("decode record: %w", err)
		}
		staged = append(staged, decoded)
	}
	for _, rec := range staged {
		m.records[rec.ID()] = rec
	}
	return len(staged), nil
}

func (r *MemoryRecords) List(context.Context) ([]model.Record, error) {
	m := r.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("list records"); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]model.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.records[id].Clone())
	}
	return out, nil
}

func (r *MemoryRecords) Count(context.Context) (int, error) {
	m := r.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("count records"); err != nil {
		return 0, err
	}
	return len(m.records), nil
}

func (r *MemoryRecords) Clear(context.Context) error {
	m := r.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("clear records"); err != nil {
		return err
	}
	m.records = make(map[string]model.Record)
	return nil
}

// MemoryJobs implements core.JobRepository.
type MemoryJobs Memory

func (j *MemoryJobs) m() *Memory { return (*Memory)(j) }

func (j *MemoryJobs) Create(_ context.Context, jobType model.JobType) (*model.Job, error) {
	m := j.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("create job"); err != nil {
		return nil, err
	}
	now := m.now()
	job := &model.Job{ID: uuid.NewString(), Type: jobType, Status: model.JobStatusQueued, CreatedAt: now, UpdatedAt: now}
	m.jobs[job.ID] = job
	cp := *job
	return &cp, nil
}

func (j *MemoryJobs) Get(_ context.Context, id string) (*model.Job, error) {
	m := j.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("get job"); err != nil {
		return nil, err
	}
	job, ok := m.jobs[id]
	if !ok {
		return nil, model.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (j *MemoryJobs) SetStatus(_ context.Context, id string, status model.JobStatus) (bool, error) {
	m := j.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("set job status"); err != nil {
		return false, err
	}
	job, ok := m.jobs[id]
	if !ok {
		return false, nil
	}
	job.Status = status
	job.UpdatedAt = m.now()
	return true, nil
}

func (j *MemoryJobs) Transition(_ context.Context, params model.TransitionParams) (*model.Job, error) {
	m := j.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("transition job"); err != nil {
		return nil, err
	}
	if !params.To.Valid() {
		return nil, apperrors.ValidationField("status", fmt.Sprintf("unknown status %q", params.To))
	}
	job, ok := m.jobs[params.ID]
	if !ok {
		return nil, model.ErrJobNotFound
	}
	if !job.Status.CanTransitionTo(params.To) {
		cp := *job
		return &cp, fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, job.Status, params.To)
	}
	job.Status = params.To
	job.UpdatedAt = m.now()
	if params.To == model.JobStatusFailed && params.Reason != "" {
		job.Error = params.Reason
	}
	cp := *job
	return &cp, nil
}

func (j *MemoryJobs) IncrementAttempts(_ context.Context, id string) (int, error) {
	m := j.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("increment attempts"); err != nil {
		return 0, err
	}
	job, ok := m.jobs[id]
	if !ok {
		return 0, model.ErrJobNotFound
	}
	job.Attempts++
	job.UpdatedAt = m.now()
	return job.Attempts, nil
}

func (j *MemoryJobs) List(_ context.Context, opts model.JobListOptions) ([]*model.Job, error) {
	m := j.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("list jobs"); err != nil {
		return nil, err
	}
	var out []*model.Job
	for _, job := range m.jobs {
		if opts.Matches(job) {
			cp := *job
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (j *MemoryJobs) Stats(context.Context) (*model.JobStats, error) {
	m := j.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("job stats"); err != nil {
		return nil, err
	}
	stats := &model.JobStats{}
	for _, job := range m.jobs {
		stats.Add(job.Status)
	}
	return stats, nil
}

func (j *MemoryJobs) Clear(context.Context) error {
	m := j.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("clear jobs"); err != nil {
		return err
	}
	m.jobs = make(map[string]*model.Job)
	return nil
}

// MemoryResults implements core.ResultRepository.
type MemoryResults Memory

func (r *MemoryResults) m() *Memory { return (*Memory)(r) }

func (r *MemoryResults) Put(_ context.Context, jobID string, data []byte) error {
	m := r.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("put result"); err != nil {
		return err
	}
	m.results[jobID] = append([]byte(nil), data...)
	return nil
}

func (r *MemoryResults) Get(_ context.Context, jobID string) ([]byte, error) {
	m := r.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("get result"); err != nil {
		return nil, err
	}
	data, ok := m.results[jobID]
	if !ok {
		return nil, model.ErrResultNotFound
	}
	return append([]byte(nil), data...), nil
}

func (r *MemoryResults) Exists(_ context.Context, jobID string) (bool, error) {
	m := r.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("result exists"); err != nil {
		return false, err
	}
	_, ok := m.results[jobID]
	return ok, nil
}

func (r *MemoryResults) Delete(_ context.Context, jobID string) error {
	m := r.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("delete result"); err != nil {
		return err
	}
	delete(m.results, jobID)
	return nil
}

func (r *MemoryResults) Clear(context.Context) error {
	m := r.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("clear results"); err != nil {
		return err
	}
	m.results = make(map[string][]byte)
	return nil
}

// MemoryQueue implements core.WorkQueue.
type MemoryQueue Memory

func (q *MemoryQueue) m() *Memory { return (*Memory)(q) }

func (q *MemoryQueue) Enqueue(_ context.Context, jobID string) error {
	m := q.m()
	m.mu.Lock()
	if err := m.failure("enqueue"); err != nil {
		m.mu.Unlock()
		return err
	}
	m.pending = append(m.pending, jobID)
	m.mu.Unlock()
	m.signal()
	return nil
}

func (m *Memory) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	m := q.m()
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		m.mu.Lock()
		if err := m.failure("dequeue"); err != nil {
			m.mu.Unlock()
			return "", err
		}
		if len(m.pending) > 0 {
			id := m.pending[0]
			m.pending = m.pending[1:]
			m.processing = append(m.processing, id)
			if m.visibility > 0 {
				m.leases[id] = m.now().Add(m.visibility)
			}
			more := len(m.pending) > 0
			m.mu.Unlock()
			if more {
				m.signal()
			}
			return id, nil
		}
		m.mu.Unlock()

		select {
		case <-m.wake:
		case <-deadline:
			return "", model.ErrQueueEmpty
		case <-ctx.Done():
			return "", apperrors.Wrap(ctx.Err(), apperrors.ErrCodeCanceled, "dequeue: canceled")
		}
	}
}

func (q *MemoryQueue) Ack(_ context.Context, jobID string) error {
	m := q.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("ack"); err != nil {
		return err
	}
	m.processing = removeAll(m.processing, jobID)
	delete(m.leases, jobID)
	return nil
}

func (q *MemoryQueue) Requeue(_ context.Context, jobID string) (bool, error) {
	m := q.m()
	m.mu.Lock()
	if err := m.failure("requeue"); err != nil {
		m.mu.Unlock()
		return false, err
	}
	delete(m.leases, jobID)
	idx := -1
	for i, id := range m.processing {
		if id == jobID {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return false, nil
	}
	m.processing = append(m.processing[:idx], m.processing[idx+1:]...)
	m.pending = append([]string{jobID}, m.pending...)
	m.mu.Unlock()
	m.signal()
	return true, nil
}

func (q *MemoryQueue) ExtendLease(_ context.Context, jobID string, until time.Time) error {
	m := q.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("extend lease"); err != nil {
		return err
	}
	m.leases[jobID] = until
	return nil
}

func (q *MemoryQueue) InFlight(context.Context) ([]model.Lease, error) {
	m := q.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("list in-flight"); err != nil {
		return nil, err
	}
	var out []model.Lease
	for _, id := range m.processing {
		out = append(out, model.Lease{JobID: id, Deadline: m.leases[id]})
	}
	return out, nil
}

func (q *MemoryQueue) Depth(context.Context) (model.QueueDepth, error) {
	m := q.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("queue depth"); err != nil {
		return model.QueueDepth{}, err
	}
	return model.QueueDepth{Pending: int64(len(m.pending)), InFlight: int64(len(m.processing))}, nil
}

func (q *MemoryQueue) Clear(context.Context) error {
	m := q.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("clear queue"); err != nil {
		return err
	}
	m.pending = nil
	m.processing = nil
	m.leases = make(map[string]time.Time)
	return nil
}

// Pending returns a copy of the pending ids, next delivery first.
func (m *Memory) Pending() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.pending...)
}

func removeAll(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
