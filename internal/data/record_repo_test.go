package data

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/launchlens/internal/domain/model"
	apperrors "github.com/target/launchlens/internal/errors"
)

func TestRecordRepo_PutListClear(t *testing.T) {
	client := setupTestRedis(t)
	repo := NewRecordRepo(client, testKeys().Records)
	ctx := context.Background()

	t.Run("assigns ids and stores every record", func(t *testing.T) {
		in := []model.Record{
			{"Company Name": "SpaceX", "Year": float64(2020)},
			{"Company Name": "CASC", "Year": float64(2021)},
		}
		n, err := repo.Put(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Empty(t, in[0].ID(), "input records are not modified")

		records, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)
		for _, rec := range records {
			_, err := uuid.Parse(rec.ID())
			assert.NoError(t, err)
		}

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("keeps supplied ids", func(t *testing.T) {
		_, err := repo.Put(ctx, []model.Record{{model.RecordIDField: "fixed", "Year": "1999"}})
		require.NoError(t, err)

		records, err := repo.List(ctx)
		require.NoError(t, err)
		ids := make([]string, 0, len(records))
		for _, rec := range records {
			ids = append(ids, rec.ID())
		}
		assert.Contains(t, ids, "fixed")
	})

	t.Run("unencodable batch is rejected without writes", func(t *testing.T) {
		before, err := repo.Count(ctx)
		require.NoError(t, err)

		_, err = repo.Put(ctx, []model.Record{{"ok": 1}, {"bad": math.NaN()}})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))

		after, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		n, err := repo.Put(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("clear empties the store", func(t *testing.T) {
		require.NoError(t, repo.Clear(ctx))
		records, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}
