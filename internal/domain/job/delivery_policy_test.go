package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/launchlens/internal/domain/model"
)

func TestNewDeliveryPolicy(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		policy, err := NewDeliveryPolicy(30*time.Second, 3)
		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, policy.VisibilityTimeout())
		assert.Equal(t, 3, policy.MaxDeliveries())
	})

	t.Run("invalid visibility timeout", func(t *testing.T) {
		policy, err := NewDeliveryPolicy(0, 3)
		require.ErrorIs(t, err, ErrInvalidVisibilityTimeout)
		assert.Nil(t, policy)
	})

	t.Run("invalid max deliveries", func(t *testing.T) {
		policy, err := NewDeliveryPolicy(time.Second, 0)
		require.ErrorIs(t, err, ErrInvalidMaxDeliveries)
		assert.Nil(t, policy)
	})
}

func TestDeliveryPolicy_Exhausted(t *testing.T) {
	policy, err := NewDeliveryPolicy(time.Minute, 2)
	require.NoError(t, err)

	assert.False(t, policy.Exhausted(1))
	assert.False(t, policy.Exhausted(2))
	assert.True(t, policy.Exhausted(3))
	assert.Contains(t, policy.ExhaustedReason(3), "3 deliveries")
}

func TestDeliveryPolicy_Recover(t *testing.T) {
	policy, err := NewDeliveryPolicy(time.Minute, 2)
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	expired := model.Lease{JobID: "j", Deadline: now.Add(-time.Second)}
	live := model.Lease{JobID: "j", Deadline: now.Add(time.Second)}

	tests := []struct {
		name  string
		lease model.Lease
		job   *model.Job
		want  RecoveryAction
	}{
		{"missing job", expired, nil, RecoveryAck},
		{"terminal job", expired, &model.Job{Status: model.JobStatusComplete}, RecoveryAck},
		{"unstamped lease", model.Lease{JobID: "j"}, &model.Job{Status: model.JobStatusRunning, Attempts: 1}, RecoveryStamp},
		{"live lease", live, &model.Job{Status: model.JobStatusRunning, Attempts: 1}, RecoveryKeep},
		{"expired with deliveries left", expired, &model.Job{Status: model.JobStatusRunning, Attempts: 1}, RecoveryRequeue},
		{"expired before first attempt", expired, &model.Job{Status: model.JobStatusQueued}, RecoveryRequeue},
		{"expired and exhausted", expired, &model.Job{Status: model.JobStatusRunning, Attempts: 2}, RecoveryFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Recover(tt.lease, tt.job, now))
		})
	}
}
