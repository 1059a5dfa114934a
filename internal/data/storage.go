package data

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/launchlens/internal/core"
)

// StorageOptions configures NewRedisStorage.
type StorageOptions struct {
	KeyPrefix         string
	VisibilityTimeout time.Duration
	TimeProvider      TimeProvider
	Logger            *slog.Logger
}

// NewRedisStorage wires every repository onto one Redis client.
func NewRedisStorage(client redis.UniversalClient, opts StorageOptions) core.Storage {
	keys := NewKeyspace(opts.KeyPrefix)
	return core.Storage{
		Records: NewRecordRepo(client, keys.Records),
		Jobs:    NewJobRepo(client, JobRepoOptions{Key: keys.Jobs, TimeProvider: opts.TimeProvider}),
		Results: NewResultRepo(client, keys.Results),
		Queue: NewQueue(client, QueueOptions{
			Keys:              keys,
			VisibilityTimeout: opts.VisibilityTimeout,
			TimeProvider:      opts.TimeProvider,
			Logger:            opts.Logger,
		}),
	}
}

var (
	_ core.RecordRepository = (*RecordRepo)(nil)
	_ core.JobRepository    = (*JobRepo)(nil)
	_ core.ResultRepository = (*ResultRepo)(nil)
	_ core.WorkQueue        = (*Queue)(nil)
)
