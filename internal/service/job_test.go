package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/launchlens/internal/domain/model"
	apperrors "github.com/target/launchlens/internal/errors"
	"github.com/target/launchlens/internal/mocks"
	"github.com/target/launchlens/internal/mocks/storage"
)

type jobServiceMocks struct {
	jobs    *mocks.MockJobRepository
	results *mocks.MockResultRepository
	queue   *mocks.MockWorkQueue
}

func newMockedJobService(t *testing.T) (*JobService, jobServiceMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := jobServiceMocks{
		jobs:    mocks.NewMockJobRepository(ctrl),
		results: mocks.NewMockResultRepository(ctrl),
		queue:   mocks.NewMockWorkQueue(ctrl),
	}
	svc := MustNewJobService(JobServiceOptions{Jobs: m.jobs, Results: m.results, Queue: m.queue})
	return svc, m
}

func TestNewJobService_RequiresDependencies(t *testing.T) {
	mem := storage.NewMemory(time.Minute)

	_, err := NewJobService(JobServiceOptions{Results: mem.Results(), Queue: mem.Queue()})
	require.Error(t, err)
	_, err = NewJobService(JobServiceOptions{Jobs: mem.Jobs(), Queue: mem.Queue()})
	require.Error(t, err)
	_, err = NewJobService(JobServiceOptions{Jobs: mem.Jobs(), Results: mem.Results()})
	require.Error(t, err)
	assert.Panics(t, func() { MustNewJobService(JobServiceOptions{}) })
}

func TestJobService_SubmitRegistersBeforeEnqueue(t *testing.T) {
	svc, m := newMockedJobService(t)
	ctx := context.Background()
	job := &model.Job{ID: "job-1", Type: model.JobTypeSector, Status: model.JobStatusQueued}

	gomock.InOrder(
		m.jobs.EXPECT().Create(ctx, model.JobTypeSector).Return(job, nil),
		m.queue.EXPECT().Enqueue(ctx, "job-1").Return(nil),
	)

	got, err := svc.Submit(ctx, " Sector ")
	require.NoError(t, err)
	assert.Equal(t, "job-1", got.ID)
	assert.Equal(t, model.JobStatusQueued, got.Status)
}

func TestJobService_SubmitRejectsUnknownType(t *testing.T) {
	svc, _ := newMockedJobService(t)

	_, err := svc.Submit(context.Background(), "orbits")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "type", apperrors.GetField(err))
}

func TestJobService_SubmitRespectsSupports(t *testing.T) {
	mem := storage.NewMemory(time.Minute)
	svc := MustNewJobService(JobServiceOptions{
		Jobs: mem.Jobs(), Results: mem.Results(), Queue: mem.Queue(),
		Supports: func(t model.JobType) bool { return t == model.JobTypeTimeline },
	})

	_, err := svc.Submit(context.Background(), "sector")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Submit(context.Background(), "timeline")
	require.NoError(t, err)
}

func TestJobService_SubmitCreateFailure(t *testing.T) {
	svc, m := newMockedJobService(t)
	ctx := context.Background()
	outage := apperrors.Unavailable(errors.New("connection refused"), "create job")

	m.jobs.EXPECT().Create(ctx, model.JobTypeTimeline).Return(nil, outage)

	_, err := svc.Submit(ctx, "timeline")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
}

func TestJobService_SubmitEnqueueFailureMarksJobFailed(t *testing.T) {
	svc, m := newMockedJobService(t)
	ctx := context.Background()
	job := &model.Job{ID: "job-2", Type: model.JobTypeGeography, Status: model.JobStatusQueued}
	outage := apperrors.Unavailable(errors.New("broken pipe"), "enqueue")

	m.jobs.EXPECT().Create(ctx, model.JobTypeGeography).Return(job, nil)
	m.queue.EXPECT().Enqueue(ctx, "job-2").Return(outage)
	m.jobs.EXPECT().Transition(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, p model.TransitionParams) (*model.Job, error) {
			assert.Equal(t, "job-2", p.ID)
			assert.Equal(t, model.JobStatusFailed, p.To)
			assert.Contains(t, p.Reason, "enqueue failed")
			return &model.Job{ID: "job-2", Status: model.JobStatusFailed}, nil
		})

	_, err := svc.Submit(ctx, "geography")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
	assert.Equal(t, model.JobStatusFailed, job.Status)
}

func TestJobService_Status(t *testing.T) {
	svc, m := newMockedJobService(t)
	ctx := context.Background()

	m.jobs.EXPECT().Get(ctx, "done").Return(&model.Job{ID: "done", Status: model.JobStatusComplete}, nil)
	m.results.EXPECT().Exists(ctx, "done").Return(true, nil)

	resp, err := svc.Status(ctx, "done")
	require.NoError(t, err)
	assert.True(t, resp.ResultReady)

	m.jobs.EXPECT().Get(ctx, "busy").Return(&model.Job{ID: "busy", Status: model.JobStatusRunning}, nil)
	resp, err = svc.Status(ctx, "busy")
	require.NoError(t, err)
	assert.False(t, resp.ResultReady)

	m.jobs.EXPECT().Get(ctx, "gone").Return(nil, model.ErrJobNotFound)
	_, err = svc.Status(ctx, "gone")
	require.ErrorIs(t, err, model.ErrJobNotFound)
}

func TestJobService_Result(t *testing.T) {
	svc, m := newMockedJobService(t)
	ctx := context.Background()

	m.results.EXPECT().Get(ctx, "a").Return([]byte("png"), nil)
	m.results.EXPECT().Get(ctx, "b").Return(nil, model.ErrResultNotFound)

	data, err := svc.Result(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	_, err = svc.Result(ctx, "b")
	require.ErrorIs(t, err, model.ErrResultNotFound)
}

func TestJobService_ListValidatesFilters(t *testing.T) {
	svc, m := newMockedJobService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		opts  model.JobListOptions
		field string
	}{
		{name: "status", opts: model.JobListOptions{Status: "paused"}, field: "status"},
		{name: "type", opts: model.JobListOptions{Type: "orbit"}, field: "type"},
		{name: "limit", opts: model.JobListOptions{Limit: -1}, field: "limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.List(ctx, tt.opts)
			require.Error(t, err)
			assert.Equal(t, tt.field, apperrors.GetField(err))
		})
	}

	opts := model.JobListOptions{Status: model.JobStatusFailed, Limit: 5}
	m.jobs.EXPECT().List(ctx, opts).Return([]*model.Job{{ID: "x"}}, nil)
	jobs, err := svc.List(ctx, opts)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestJobService_MemoryRoundTrip(t *testing.T) {
	mem := storage.NewMemory(time.Minute)
	svc := MustNewJobService(JobServiceOptions{Jobs: mem.Jobs(), Results: mem.Results(), Queue: mem.Queue()})
	ctx := context.Background()

	job, err := svc.Submit(ctx, "top-private")
	require.NoError(t, err)
	assert.Equal(t, []string{job.ID}, mem.Pending())

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Queued)

	depth, err := svc.QueueDepth(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.QueueDepth{Pending: 1}, depth)

	leases, err := svc.InFlight(ctx)
	require.NoError(t, err)
	assert.Empty(t, leases)
}
