package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/target/launchlens/internal/domain/model"
	apperrors "github.com/target/launchlens/internal/errors"
)

// Job documents are read, modified and written back inside Lua so concurrent
// writers never lose each other's fields. Each script touches a single key.

// transitionScript moves a job to ARGV[2] only when its current status is one of ARGV[5..].
// Returns {0, ""} when missing, {2, current} when refused, {1, updated} on success.
var transitionScript = redis.NewScript(`
local raw = redis.call('HGET', KEYS[1], ARGV[1])
if not raw then
  return {0, ''}
end
local job = cjson.decode(raw)
local allowed = false
for i = 5, #ARGV do
  if job['status'] == ARGV[i] then
    allowed = true
    break
  end
end
if not allowed then
  return {2, raw}
end
job['status'] = ARGV[2]
job['updated_at'] = ARGV[3]
if ARGV[4] ~= '' then
  job['error'] = ARGV[4]
end
local encoded = cjson.encode(job)
redis.call('HSET', KEYS[1], ARGV[1], encoded)
return {1, encoded}
`)

var setStatusScript = redis.NewScript(`
local raw = redis.call('HGET', KEYS[1], ARGV[1])
if not raw then
  return 0
end
local job = cjson.decode(raw)
job['status'] = ARGV[2]
job['updated_at'] = ARGV[3]
redis.call('HSET', KEYS[1], ARGV[1], cjson.encode(job))
return 1
`)

var incrementAttemptsScript = redis.NewScript(`
local raw = redis.call('HGET', KEYS[1], ARGV[1])
if not raw then
  return -1
end
local job = cjson.decode(raw)
job['attempts'] = (tonumber(job['attempts']) or 0) + 1
job['updated_at'] = ARGV[2]
redis.call('HSET', KEYS[1], ARGV[1], cjson.encode(job))
return job['attempts']
`)

const (
	transitionMissing = 0
	transitionApplied = 1
	transitionRefused = 2
)

// JobRepoOptions configures a JobRepo.
type JobRepoOptions struct {
	Key          string
	TimeProvider TimeProvider
}

// JobRepo keeps job documents as JSON values in one Redis hash.
type JobRepo struct {
	client redis.UniversalClient
	key    string
	clock  TimeProvider
}

// NewJobRepo creates a JobRepo.
func NewJobRepo(client redis.UniversalClient, opts JobRepoOptions) *JobRepo {
	return &JobRepo{
		client: client,
		key:    opts.Key,
		clock:  timeProviderOrDefault(opts.TimeProvider),
	}
}

// Create registers a new queued job.
func (r *JobRepo) Create(ctx context.Context, jobType model.JobType) (*model.Job, error) {
	now := r.clock.Now()
	job := &model.Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    model.JobStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	raw, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal job: %w", err)
	}
	if err := r.client.HSet(ctx, r.key, job.ID, raw).Err(); err != nil {
		return nil, apperrors.MapRedisError(err, "create job")
	}
	return job, nil
}

// Get returns the job with id or model.ErrJobNotFound.
func (r *JobRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	raw, err := r.client.HGet(ctx, r.key, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrJobNotFound
	}
	if err != nil {
		return nil, apperrors.MapRedisError(err, "get job")
	}
	return decodeJob(raw)
}

// SetStatus overwrites the status of a job, keeping every other field.
func (r *JobRepo) SetStatus(ctx context.Context, id string, status model.JobStatus) (bool, error) {
	n, err := setStatusScript.Run(ctx, r.client, []string{r.key}, id, string(status), r.stamp()).Int()
	if err != nil {
		return false, apperrors.MapRedisError(err, "set job status")
	}
	return n == 1, nil
}

// Transition applies a guarded status change.
func (r *JobRepo) Transition(ctx context.Context, params model.TransitionParams) (*model.Job, error) {
	if !params.To.Valid() {
		return nil, apperrors.ValidationField("status", fmt.Sprintf("unknown status %q", params.To))
	}

	reason := ""
	if params.To == model.JobStatusFailed {
		reason = params.Reason
	}
	args := []any{params.ID, string(params.To), r.stamp(), reason}
	for _, from := range model.TransitionSources(params.To) {
		args = append(args, string(from))
	}

	res, err := transitionScript.Run(ctx, r.client, []string{r.key}, args...).Slice()
	if err != nil {
		return nil, apperrors.MapRedisError(err, "transition job")
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("transition job: unexpected reply %v", res)
	}
	code, _ := res[0].(int64)
	doc, _ := res[1].(string)

	switch code {
	case transitionMissing:
		return nil, model.ErrJobNotFound
	case transitionRefused:
		current, err := decodeJob(doc)
		if err != nil {
			return nil, err
		}
		return current, fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, current.Status, params.To)
	default:
		return decodeJob(doc)
	}
}

// IncrementAttempts bumps the delivery counter and returns the new value.
func (r *JobRepo) IncrementAttempts(ctx context.Context, id string) (int, error) {
	n, err := incrementAttemptsScript.Run(ctx, r.client, []string{r.key}, id, r.stamp()).Int()
	if err != nil {
		return 0, apperrors.MapRedisError(err, "increment attempts")
	}
	if n < 0 {
		return 0, model.ErrJobNotFound
	}
	return n, nil
}

// List returns jobs matching opts, newest first.
func (r *JobRepo) List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error) {
	jobs, err := r.all(ctx)
	if err != nil {
		return nil, err
	}

	out := jobs[:0]
	for _, job := range jobs {
		if opts.Matches(job) {
			out = append(out, job)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Stats counts jobs per status.
func (r *JobRepo) Stats(ctx context.Context) (*model.JobStats, error) {
	jobs, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	stats := &model.JobStats{}
	for _, job := range jobs {
		stats.Add(job.Status)
	}
	return stats, nil
}

// Clear removes every job.
func (r *JobRepo) Clear(ctx context.Context) error {
	return apperrors.MapRedisError(r.client.Del(ctx, r.key).Err(), "clear jobs")
}

func (r *JobRepo) all(ctx context.Context) ([]*model.Job, error) {
	vals, err := r.client.HVals(ctx, r.key).Result()
	if err != nil {
		return nil, apperrors.MapRedisError(err, "list jobs")
	}
	jobs := make([]*model.Job, 0, len(vals))
	for _, raw := range vals {
		job, err := decodeJob(raw)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (r *JobRepo) stamp() string {
	return r.clock.Now().UTC().Format(time.RFC3339Nano)
}

func decodeJob(raw string) (*model.Job, error) {
	var job model.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}
