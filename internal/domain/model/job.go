// Package model defines the core data types shared by the launchlens store, worker and API.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobType names the analysis a job runs.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobType string

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobTypeTimeline plots launches per year split by sector.
	JobTypeTimeline JobType = "timeline"
	// JobTypeSector compares private and state launch counts.
	JobTypeSector JobType = "sector"
	// JobTypeGeography aggregates launches by country.
	JobTypeGeography JobType = "geography"
	// JobTypeTopPrivate ranks the most active private companies.
	JobTypeTopPrivate JobType = "top-private"

	// JobStatusQueued indicates a job is registered and waiting on the queue.
	JobStatusQueued JobStatus = "queued"
	// JobStatusRunning indicates a worker has picked the job up.
	JobStatusRunning JobStatus = "running"
	// JobStatusComplete indicates the result artifact was stored.
	JobStatusComplete JobStatus = "complete"
	// JobStatusFailed indicates the job ended without a result.
	JobStatusFailed JobStatus = "failed"
)

var (
	// ErrJobNotFound is returned when no job exists for an id.
	ErrJobNotFound = errors.New("job not found")
	// ErrResultNotFound is returned when no result artifact exists for an id.
	ErrResultNotFound = errors.New("result not found")
	// ErrInvalidTransition is returned when a status change would move a job backwards.
	ErrInvalidTransition = errors.New("invalid job status transition")
	// ErrQueueEmpty is returned when a dequeue times out without an id.
	ErrQueueEmpty = errors.New("queue empty")
)

// JobTypes returns every supported job type in display order.
func JobTypes() []JobType {
	return []JobType{JobTypeTimeline, JobTypeSector, JobTypeGeography, JobTypeTopPrivate}
}

// ParseJobType normalises and validates a job type tag.
func ParseJobType(s string) (JobType, error) {
	var t JobType
	if err := t.UnmarshalText([]byte(s)); err != nil {
		return "", err
	}
	return t, nil
}

// UnmarshalText implements encoding.TextUnmarshaler for JobType.
func (t *JobType) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	jt := JobType(v)
	if jt.Valid() {
		*t = jt
		return nil
	}
	return fmt.Errorf("invalid JobType: %q", v)
}

// Valid returns true if the JobType is one of the supported analyses.
func (t JobType) Valid() bool {
	switch t {
	case JobTypeTimeline, JobTypeSector, JobTypeGeography, JobTypeTopPrivate:
		return true
	}
	return false
}

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusQueued || s == JobStatusRunning || s == JobStatusComplete ||
		s == JobStatusFailed
}

// IsTerminal reports whether no further transition is allowed from s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusComplete || s == JobStatusFailed
}

// CanTransitionTo reports whether a job in status s may move to next.
// running -> running is accepted so a redelivered job can be picked up again.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusQueued:
		return next == JobStatusRunning || next == JobStatusFailed
	case JobStatusRunning:
		return next == JobStatusRunning || next.IsTerminal()
	default:
		return false
	}
}

// TransitionSources lists the statuses from which a job may move to next.
func TransitionSources(next JobStatus) []JobStatus {
	var out []JobStatus
	for _, s := range []JobStatus{JobStatusQueued, JobStatusRunning, JobStatusComplete, JobStatusFailed} {
		if s.CanTransitionTo(next) {
			out = append(out, s)
		}
	}
	return out
}

// Job represents an analysis request and its lifecycle state.
type Job struct {
	ID        string    `json:"id"`
	Type      JobType   `json:"type"`
	Status    JobStatus `json:"status"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransitionParams describes a guarded status change.
type TransitionParams struct {
	ID     string
	To     JobStatus
	Reason string // stored as Job.Error; ignored unless To is failed
}

// JobListOptions filters job listings. Zero values mean "any".
type JobListOptions struct {
	Status JobStatus
	Type   JobType
	Limit  int
}

// Matches reports whether job passes the status and type filters.
func (o JobListOptions) Matches(job *Job) bool {
	if o.Status != "" && job.Status != o.Status {
		return false
	}
	if o.Type != "" && job.Type != o.Type {
		return false
	}
	return true
}

// JobStats represents statistics about jobs in different states.
type JobStats struct {
	Queued   int `json:"queued"`
	Running  int `json:"running"`
	Complete int `json:"complete"`
	Failed   int `json:"failed"`
}

// Add counts one job in the bucket for its status.
func (s *JobStats) Add(status JobStatus) {
	switch status {
	case JobStatusQueued:
		s.Queued++
	case JobStatusRunning:
		s.Running++
	case JobStatusComplete:
		s.Complete++
	case JobStatusFailed:
		s.Failed++
	}
}

// JobStatusResponse is the job view returned to pollers.
type JobStatusResponse struct {
	*Job
	ResultReady bool `json:"result_ready"`
}

// Lease is an in-flight queue entry and the time after which it is considered abandoned.
// A zero Deadline means the lease was never recorded.
type Lease struct {
	JobID    string    `json:"job_id"`
	Deadline time.Time `json:"deadline"`
}

// Expired reports whether the lease deadline has passed at now.
func (l Lease) Expired(now time.Time) bool {
	return !l.Deadline.IsZero() && !now.Before(l.Deadline)
}

// QueueDepth reports how many ids wait on the queue and how many are in flight.
type QueueDepth struct {
	Pending  int64 `json:"pending"`
	InFlight int64 `json:"in_flight"`
}
