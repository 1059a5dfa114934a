package data

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/target/launchlens/internal/domain/model"
	apperrors "github.com/target/launchlens/internal/errors"
)

// RecordRepo stores launch records as JSON values in a single Redis hash.
type RecordRepo struct {
	client redis.UniversalClient
	key    string
}

// NewRecordRepo creates a RecordRepo writing to key.
func NewRecordRepo(client redis.UniversalClient, key string) *RecordRepo {
	return &RecordRepo{client: client, key: key}
}

// Put assigns ids where missing and upserts every record. The whole batch is
// encoded before anything is written, so an unencodable record rejects the
// batch without touching stored data. Input records are not modified.
func (r *RecordRepo) Put(ctx context.Context, records []model.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	values := make([]any, 0, len(records)*2)
	for i, rec := range records {
		if rec == nil {
			return 0, apperrors.Validationf("record %d is null", i)
		}
		stored := rec.Clone()
		if stored.ID() == "" {
			stored[model.RecordIDField] = uuid.NewString()
		}
		raw, err := json.Marshal(stored)
		if err != nil {
			return 0, apperrors.Wrapf(err, apperrors.ErrCodeValidation, "record %d cannot be encoded", i)
		}
		values = append(values, stored.ID(), raw)
	}

	if err := r.client.HSet(ctx, r.key, values...).Err(); err != nil {
		return 0, apperrors.MapRedisError(err, "put records")
	}
	return len(records), nil
}

// List returns a snapshot of every stored record ordered by id.
func (r *RecordRepo) List(ctx context.Context) ([]model.Record, error) {
	raw, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, apperrors.MapRedisError(err, "list records")
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]model.Record, 0, len(ids))
	for _, id := range ids {
		var rec model.Record
		if err := json.Unmarshal([]byte(raw[id]), &rec); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", id, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Count returns the number of stored records.
func (r *RecordRepo) Count(ctx context.Context) (int, error) {
	n, err := r.client.HLen(ctx, r.key).Result()
	if err != nil {
		return 0, apperrors.MapRedisError(err, "count records")
	}
	return int(n), nil
}

// Clear removes every record.
func (r *RecordRepo) Clear(ctx context.Context) error {
	return apperrors.MapRedisError(r.client.Del(ctx, r.key).Err(), "clear records")
}
