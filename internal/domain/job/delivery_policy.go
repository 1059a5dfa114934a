// Package job holds the delivery rules shared by the worker and the reaper.
package job

import (
	"errors"
	"fmt"
	"time"

	"github.com/target/launchlens/internal/domain/model"
)

var (
	// ErrInvalidVisibilityTimeout indicates the configured visibility timeout is not positive.
	ErrInvalidVisibilityTimeout = errors.New("visibility timeout must be positive")
	// ErrInvalidMaxDeliveries indicates the configured delivery cap is below one.
	ErrInvalidMaxDeliveries = errors.New("max deliveries must be at least 1")
)

// RecoveryAction is what the reaper should do with one in-flight entry.
type RecoveryAction string

const (
	// RecoveryKeep leaves a live lease alone.
	RecoveryKeep RecoveryAction = "keep"
	// RecoveryStamp records a deadline for an entry whose lease was never written.
	RecoveryStamp RecoveryAction = "stamp"
	// RecoveryAck drops an entry whose job is gone or already terminal.
	RecoveryAck RecoveryAction = "ack"
	// RecoveryRequeue hands an abandoned job back to the pending queue.
	RecoveryRequeue RecoveryAction = "requeue"
	// RecoveryFail marks an abandoned job failed because it used up its deliveries.
	RecoveryFail RecoveryAction = "fail"
)

// DeliveryPolicy bounds how long a job may stay in flight and how often it may be delivered.
type DeliveryPolicy struct {
	visibility    time.Duration
	maxDeliveries int
}

// NewDeliveryPolicy constructs a DeliveryPolicy.
func NewDeliveryPolicy(visibility time.Duration, maxDeliveries int) (*DeliveryPolicy, error) {
	if visibility <= 0 {
		return nil, ErrInvalidVisibilityTimeout
	}
	if maxDeliveries < 1 {
		return nil, ErrInvalidMaxDeliveries
	}
	return &DeliveryPolicy{visibility: visibility, maxDeliveries: maxDeliveries}, nil
}

// VisibilityTimeout returns the configured in-flight window.
func (p *DeliveryPolicy) VisibilityTimeout() time.Duration {
	return p.visibility
}

// MaxDeliveries returns the configured delivery cap.
func (p *DeliveryPolicy) MaxDeliveries() int {
	return p.maxDeliveries
}

// Deadline returns the lease deadline for an entry dequeued at now.
func (p *DeliveryPolicy) Deadline(now time.Time) time.Time {
	return now.Add(p.visibility)
}

// Exhausted reports whether a job delivered attempts times has gone over the cap.
func (p *DeliveryPolicy) Exhausted(attempts int) bool {
	return attempts > p.maxDeliveries
}

// ExhaustedReason is the error message stored on a job failed for running out of deliveries.
func (p *DeliveryPolicy) ExhaustedReason(attempts int) string {
	return fmt.Sprintf("abandoned after %d deliveries (max %d)", attempts, p.maxDeliveries)
}

// Recover decides what to do with an in-flight lease. job is nil when the
// registry has no entry for the leased id.
func (p *DeliveryPolicy) Recover(lease model.Lease, job *model.Job, now time.Time) RecoveryAction {
	if job == nil || job.Status.IsTerminal() {
		return RecoveryAck
	}
	if lease.Deadline.IsZero() {
		return RecoveryStamp
	}
	if !lease.Expired(now) {
		return RecoveryKeep
	}
	// The next delivery would be attempts+1.
	if p.Exhausted(job.Attempts + 1) {
		return RecoveryFail
	}
	return RecoveryRequeue
}
