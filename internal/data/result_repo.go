package data

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/target/launchlens/internal/domain/model"
	apperrors "github.com/target/launchlens/internal/errors"
)

// ResultRepo stores rendered artifacts keyed by job id in one Redis hash.
type ResultRepo struct {
	client redis.UniversalClient
	key    string
}

// NewResultRepo creates a ResultRepo writing to key.
func NewResultRepo(client redis.UniversalClient, key string) *ResultRepo {
	return &ResultRepo{client: client, key: key}
}

// Put stores data for jobID, replacing any previous artifact.
func (r *ResultRepo) Put(ctx context.Context, jobID string, data []byte) error {
	if jobID == "" {
		return apperrors.ValidationField("job_id", "job id is required")
	}
	return apperrors.MapRedisError(r.client.HSet(ctx, r.key, jobID, data).Err(), "put result")
}

// Get returns the artifact for jobID or model.ErrResultNotFound.
func (r *ResultRepo) Get(ctx context.Context, jobID string) ([]byte, error) {
	data, err := r.client.HGet(ctx, r.key, jobID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrResultNotFound
	}
	if err != nil {
		return nil, apperrors.MapRedisError(err, "get result")
	}
	return data, nil
}

// Exists reports whether an artifact is stored for jobID.
func (r *ResultRepo) Exists(ctx context.Context, jobID string) (bool, error) {
	ok, err := r.client.HExists(ctx, r.key, jobID).Result()
	if err != nil {
		return false, apperrors.MapRedisError(err, "result exists")
	}
	return ok, nil
}

// Delete removes the artifact for jobID. A missing artifact is not an error.
func (r *ResultRepo) Delete(ctx context.Context, jobID string) error {
	return apperrors.MapRedisError(r.client.HDel(ctx, r.key, jobID).Err(), "delete result")
}

// Clear removes every artifact.
func (r *ResultRepo) Clear(ctx context.Context) error {
	return apperrors.MapRedisError(r.client.Del(ctx, r.key).Err(), "clear results")
}
