package data

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/launchlens/internal/domain/model"
	apperrors "github.com/target/launchlens/internal/errors"
)

// requeueScript moves one in-flight id back to the consuming end of the pending
// list and drops its lease. Returns the number of in-flight entries removed.
var requeueScript = redis.NewScript(`
local removed = redis.call('LREM', KEYS[1], 1, ARGV[1])
redis.call('HDEL', KEYS[3], ARGV[1])
if removed > 0 then
  redis.call('RPUSH', KEYS[2], ARGV[1])
end
return removed
`)

// QueueOptions configures a Queue.
type QueueOptions struct {
	Keys              Keyspace
	VisibilityTimeout time.Duration
	TimeProvider      TimeProvider
	Logger            *slog.Logger // Optional: reports lease writes that fail after a dequeue
}

// Queue is a reliable FIFO built from two Redis lists. Producers LPUSH onto the
// pending list; consumers BLMOVE from its right end onto the processing list
// and remove the id there once done.
type Queue struct {
	client     redis.UniversalClient
	keys       Keyspace
	visibility time.Duration
	clock      TimeProvider
	logger     *slog.Logger
}

// NewQueue creates a Queue.
func NewQueue(client redis.UniversalClient, opts QueueOptions) *Queue {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		client:     client,
		keys:       opts.Keys,
		visibility: opts.VisibilityTimeout,
		clock:      timeProviderOrDefault(opts.TimeProvider),
		logger:     logger.With("component", "work_queue"),
	}
}

// Enqueue appends jobID to the pending list.
func (q *Queue) Enqueue(ctx context.Context, jobID string) error {
	return apperrors.MapRedisError(q.client.LPush(ctx, q.keys.Pending, jobID).Err(), "enqueue")
}

// Dequeue blocks for up to timeout (forever when zero) and moves the oldest
// pending id onto the processing list.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	id, err := q.client.BLMove(ctx, q.keys.Pending, q.keys.Processing, "RIGHT", "LEFT", timeout).Result()
	if errors.Is(err, redis.Nil) {
		return "", model.ErrQueueEmpty
	}
	if err != nil {
		return "", apperrors.MapRedisError(err, "dequeue")
	}

	// A lease that fails to record is stamped later by the reaper.
	if q.visibility > 0 {
		if lerr := q.ExtendLease(ctx, id, q.clock.Now().Add(q.visibility)); lerr != nil {
			q.logger.WarnContext(ctx, "record lease failed; reaper will stamp it", "job_id", id, "error", lerr)
		}
	}
	return id, nil
}

// Ack removes jobID from the processing list and drops its lease.
func (q *Queue) Ack(ctx context.Context, jobID string) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.keys.Processing, 0, jobID)
		pipe.HDel(ctx, q.keys.Leases, jobID)
		return nil
	})
	return apperrors.MapRedisError(err, "ack")
}

// Requeue returns an in-flight id to the pending list so it is delivered next.
func (q *Queue) Requeue(ctx context.Context, jobID string) (bool, error) {
	n, err := requeueScript.Run(ctx, q.client,
		[]string{q.keys.Processing, q.keys.Pending, q.keys.Leases}, jobID).Int()
	if err != nil {
		return false, apperrors.MapRedisError(err, "requeue")
	}
	return n > 0, nil
}

// ExtendLease sets the lease deadline for an in-flight id.
func (q *Queue) ExtendLease(ctx context.Context, jobID string, until time.Time) error {
	err := q.client.HSet(ctx, q.keys.Leases, jobID, until.UnixMilli()).Err()
	return apperrors.MapRedisError(err, "extend lease")
}

// InFlight lists the ids on the processing list with their lease deadlines,
// oldest delivery first.
func (q *Queue) InFlight(ctx context.Context) ([]model.Lease, error) {
	ids, err := q.client.LRange(ctx, q.keys.Processing, 0, -1).Result()
	if err != nil {
		return nil, apperrors.MapRedisError(err, "list in-flight")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	deadlines, err := q.client.HMGet(ctx, q.keys.Leases, ids...).Result()
	if err != nil {
		return nil, apperrors.MapRedisError(err, "list leases")
	}

	leases := make([]model.Lease, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		lease := model.Lease{JobID: ids[i]}
		if raw, ok := deadlines[i].(string); ok {
			if ms, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
				lease.Deadline = time.UnixMilli(ms).UTC()
			}
		}
		leases = append(leases, lease)
	}
	return leases, nil
}

// Depth reports pending and in-flight counts.
func (q *Queue) Depth(ctx context.Context) (model.QueueDepth, error) {
	var pending, inFlight *redis.IntCmd
	_, err := q.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pending = pipe.LLen(ctx, q.keys.Pending)
		inFlight = pipe.LLen(ctx, q.keys.Processing)
		return nil
	})
	if err != nil {
		return model.QueueDepth{}, apperrors.MapRedisError(err, "queue depth")
	}
	return model.QueueDepth{Pending: pending.Val(), InFlight: inFlight.Val()}, nil
}

// Clear drops every pending and in-flight id.
func (q *Queue) Clear(ctx context.Context) error {
	err := q.client.Del(ctx, q.keys.Pending, q.keys.Processing, q.keys.Leases).Err()
	return apperrors.MapRedisError(err, "clear queue")
}
