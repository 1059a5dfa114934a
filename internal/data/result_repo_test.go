package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/launchlens/internal/domain/model"
)

func TestResultRepo_PutGetExists(t *testing.T) {
	client := setupTestRedis(t)
	repo := NewResultRepo(client, testKeys().Results)
	ctx := context.Background()

	png := []byte("\x89PNG\r\n\x1a\nrest")
	require.NoError(t, repo.Put(ctx, "job-1", png))

	got, err := repo.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, png, got)

	ok, err := repo.Exists(ctx, "job-1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrResultNotFound)

	ok, err = repo.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Clear(ctx))
	_, err = repo.Get(ctx, "job-1")
	assert.ErrorIs(t, err, model.ErrResultNotFound)
}

func TestResultRepo_Delete(t *testing.T) {
	client := setupTestRedis(t)
	repo := NewResultRepo(client, testKeys().Results)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "job-1", []byte("a")))
	require.NoError(t, repo.Put(ctx, "job-2", []byte("b")))

	require.NoError(t, repo.Delete(ctx, "job-1"))
	require.NoError(t, repo.Delete(ctx, "job-1"), "deleting twice is harmless")

	ok, err := repo.Exists(ctx, "job-1")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = repo.Exists(ctx, "job-2")
	require.NoError(t, err)
	assert.True(t, ok)
}
