package jobrunner

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainjob "github.com/target/launchlens/internal/domain/job"
	"github.com/target/launchlens/internal/domain/model"
	"github.com/target/launchlens/internal/mocks/storage"
	"github.com/target/launchlens/internal/testutil"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

type analyzerFunc func(model.JobType, []model.Record) ([]byte, error)

func (f analyzerFunc) Run(t model.JobType, records []model.Record) ([]byte, error) {
	return f(t, records)
}

type fixture struct {
	mem    *storage.Memory
	runner *Runner
}

func newFixture(t *testing.T, analyzer Analyzer, maxDeliveries int) fixture {
	t.Helper()
	mem := storage.NewMemory(time.Minute)
	policy, err := domainjob.NewDeliveryPolicy(time.Minute, maxDeliveries)
	require.NoError(t, err)

	runner, err := NewRunner(RunnerOptions{
		Storage:      mem.Storage(),
		Policy:       policy,
		Analyzer:     analyzer,
		Logger:       slog.Default(),
		RetryInitial: time.Millisecond,
		RetryMax:     5 * time.Millisecond,
	})
	require.NoError(t, err)
	return fixture{mem: mem, runner: runner}
}

func (f fixture) submit(t *testing.T, jobType model.JobType) *model.Job {
	t.Helper()
	ctx := context.Background()
	job, err := f.mem.Jobs().Create(ctx, jobType)
	require.NoError(t, err)
	require.NoError(t, f.mem.Queue().Enqueue(ctx, job.ID))
	return job
}

func (f fixture) seed(t *testing.T, records []model.Record) {
	t.Helper()
	_, err := f.mem.Records().Put(context.Background(), records)
	require.NoError(t, err)
}

func (f fixture) job(t *testing.T, id string) *model.Job {
	t.Helper()
	job, err := f.mem.Jobs().Get(context.Background(), id)
	require.NoError(t, err)
	return job
}

func (f fixture) processOne(t *testing.T) bool {
	t.Helper()
	took, err := f.runner.ProcessNext(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	return took
}

func (f fixture) assertDrained(t *testing.T) {
	t.Helper()
	depth, err := f.mem.Queue().Depth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.QueueDepth{}, depth)
}

func TestNewRunner_RequiresDependencies(t *testing.T) {
	mem := storage.NewMemory(time.Minute)
	policy, err := domainjob.NewDeliveryPolicy(time.Minute, 3)
	require.NoError(t, err)

	_, err = NewRunner(RunnerOptions{Policy: policy})
	require.Error(t, err)
	_, err = NewRunner(RunnerOptions{Storage: mem.Storage()})
	require.Error(t, err)

	r, err := NewRunner(RunnerOptions{Storage: mem.Storage(), Policy: policy})
	require.NoError(t, err)
	assert.Equal(t, 1, r.workers)
	assert.Equal(t, dequeueSlice, r.sliceTimeout())
}

func TestProcessNext_EmptyQueue(t *testing.T) {
	f := newFixture(t, nil, 3)
	assert.False(t, f.processOne(t))
}

func TestProcessNext_CompletesEveryJobType(t *testing.T) {
	for _, jobType := range model.JobTypes() {
		t.Run(string(jobType), func(t *testing.T) {
			f := newFixture(t, nil, 3)
			f.seed(t, testutil.CrossoverRecords())
			job := f.submit(t, jobType)

			require.True(t, f.processOne(t))

			got := f.job(t, job.ID)
			assert.Equal(t, model.JobStatusComplete, got.Status)
			assert.Equal(t, 1, got.Attempts)
			assert.Empty(t, got.Error)

			data, err := f.mem.Results().Get(context.Background(), job.ID)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, pngMagic))
			f.assertDrained(t)
		})
	}
}

func TestProcessNext_EmptyStoreFailsWithoutResult(t *testing.T) {
	f := newFixture(t, nil, 3)
	job := f.submit(t, model.JobTypeTimeline)

	require.True(t, f.processOne(t))

	got := f.job(t, job.ID)
	assert.Equal(t, model.JobStatusFailed, got.Status)
	assert.Equal(t, ErrNoRecords.Error(), got.Error)

	_, err := f.mem.Results().Get(context.Background(), job.ID)
	require.ErrorIs(t, err, model.ErrResultNotFound)
	f.assertDrained(t)
}

func TestProcessNext_AnalysisErrorFailsJob(t *testing.T) {
	f := newFixture(t, analyzerFunc(func(model.JobType, []model.Record) ([]byte, error) {
		return nil, errors.New("missing Sector column")
	}), 3)
	f.seed(t, testutil.CrossoverRecords())
	job := f.submit(t, model.JobTypeSector)

	require.True(t, f.processOne(t))

	got := f.job(t, job.ID)
	assert.Equal(t, model.JobStatusFailed, got.Status)
	assert.Contains(t, got.Error, "missing Sector column")
	ok, err := f.mem.Results().Exists(context.Background(), job.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	f.assertDrained(t)
}

func TestProcessNext_MalformedRecordsFailJob(t *testing.T) {
	f := newFixture(t, nil, 3)
	f.seed(t, []model.Record{{"Year": float64(2000), "Sector": []int{1}}})
	job := f.submit(t, model.JobTypeSector)

	require.True(t, f.processOne(t))

	got := f.job(t, job.ID)
	assert.Equal(t, model.JobStatusFailed, got.Status)
	assert.NotEmpty(t, got.Error)
	f.assertDrained(t)
}

func TestProcessNext_MissingJobIsDropped(t *testing.T) {
	f := newFixture(t, nil, 3)
	require.NoError(t, f.mem.Queue().Enqueue(context.Background(), "ghost"))

	require.True(t, f.processOne(t))
	f.assertDrained(t)
}

func TestProcessNext_SkipsTerminalRedelivery(t *testing.T) {
	var calls atomic.Int32
	f := newFixture(t, analyzerFunc(func(model.JobType, []model.Record) ([]byte, error) {
		calls.Add(1)
		return pngMagic, nil
	}), 3)
	f.seed(t, testutil.CrossoverRecords())
	job := f.submit(t, model.JobTypeGeography)

	require.True(t, f.processOne(t))
	require.NoError(t, f.mem.Queue().Enqueue(context.Background(), job.ID))
	require.True(t, f.processOne(t))

	assert.Equal(t, int32(1), calls.Load())
	got := f.job(t, job.ID)
	assert.Equal(t, model.JobStatusComplete, got.Status)
	assert.Equal(t, 1, got.Attempts)
	f.assertDrained(t)
}

func TestProcessNext_FailsAfterMaxDeliveries(t *testing.T) {
	f := newFixture(t, nil, 1)
	f.seed(t, testutil.CrossoverRecords())
	job := f.submit(t, model.JobTypeTimeline)

	// An earlier delivery that never finished.
	_, err := f.mem.Jobs().IncrementAttempts(context.Background(), job.ID)
	require.NoError(t, err)

	require.True(t, f.processOne(t))

	got := f.job(t, job.ID)
	assert.Equal(t, model.JobStatusFailed, got.Status)
	assert.Contains(t, got.Error, "abandoned after 2 deliveries")
	f.assertDrained(t)
}

func TestProcessNext_StorageOutageLeavesJobInFlight(t *testing.T) {
	f := newFixture(t, analyzerFunc(func(model.JobType, []model.Record) ([]byte, error) {
		return pngMagic, nil
	}), 3)
	f.seed(t, testutil.CrossoverRecords())
	job := f.submit(t, model.JobTypeSector)

	outage := errors.New("connection refused")
	f.mem.SetFailure(outage)
	_, err := f.runner.ProcessNext(context.Background(), 10*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, outage)

	f.mem.SetFailure(nil)
	require.True(t, f.processOne(t))
	assert.Equal(t, model.JobStatusComplete, f.job(t, job.ID).Status)
}

func TestRun_RetriesThroughOutageAndStopsOnCancel(t *testing.T) {
	f := newFixture(t, analyzerFunc(func(model.JobType, []model.Record) ([]byte, error) {
		return pngMagic, nil
	}), 3)
	f.seed(t, testutil.CrossoverRecords())
	job := f.submit(t, model.JobTypeTimeline)
	f.mem.SetFailure(errors.New("connection refused"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.runner.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{job.ID}, f.mem.Pending())
	f.mem.SetFailure(nil)

	require.Eventually(t, func() bool {
		got, err := f.mem.Jobs().Get(context.Background(), job.ID)
		return err == nil && got.Status == model.JobStatusComplete
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

func TestDrain_ProcessesBacklogInOrder(t *testing.T) {
	var order []model.JobType
	f := newFixture(t, analyzerFunc(func(jt model.JobType, _ []model.Record) ([]byte, error) {
		order = append(order, jt)
		return pngMagic, nil
	}), 3)
	f.seed(t, testutil.CrossoverRecords())
	for _, jt := range model.JobTypes() {
		f.submit(t, jt)
	}

	n, err := f.runner.Drain(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, len(model.JobTypes()), n)
	assert.Equal(t, model.JobTypes(), order)
	f.assertDrained(t)
}

func TestProcessNext_UnsupportedTypeFailsWithoutResult(t *testing.T) {
	f := newFixture(t, nil, 3)
	f.seed(t, testutil.CrossoverRecords())
	job := f.submit(t, model.JobType("bogus"))

	require.True(t, f.processOne(t))

	got := f.job(t, job.ID)
	assert.Equal(t, model.JobStatusFailed, got.Status)
	assert.Contains(t, got.Error, "unsupported job type")
	ok, err := f.mem.Results().Exists(context.Background(), job.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	f.assertDrained(t)
}

func TestProcessNext_DiscardsResultWhenJobFailedWhileRendering(t *testing.T) {
	ctx := context.Background()
	var jobID string
	var f fixture
	f = newFixture(t, analyzerFunc(func(model.JobType, []model.Record) ([]byte, error) {
		// The reaper gives up on the job while the chart is still rendering.
		_, err := f.mem.Jobs().Transition(ctx, model.TransitionParams{
			ID: jobID, To: model.JobStatusFailed, Reason: "abandoned after 3 deliveries (max 3)",
		})
		require.NoError(t, err)
		return pngMagic, nil
	}), 3)
	f.seed(t, testutil.CrossoverRecords())
	jobID = f.submit(t, model.JobTypeTimeline).ID

	require.True(t, f.processOne(t))

	got := f.job(t, jobID)
	assert.Equal(t, model.JobStatusFailed, got.Status)
	ok, err := f.mem.Results().Exists(ctx, jobID)
	require.NoError(t, err)
	assert.False(t, ok, "a failed job must not keep a result")
	f.assertDrained(t)
}

func TestProcessNext_ExtendsLeaseBeforeRendering(t *testing.T) {
	ctx := context.Background()
	var leases []model.Lease
	var f fixture
	f = newFixture(t, analyzerFunc(func(model.JobType, []model.Record) ([]byte, error) {
		var err error
		leases, err = f.mem.Queue().InFlight(ctx)
		require.NoError(t, err)
		return pngMagic, nil
	}), 3)
	// Dequeue stamps a lease that is already an hour stale.
	f.mem.SetClock(func() time.Time { return time.Now().Add(-time.Hour) })
	f.seed(t, testutil.CrossoverRecords())
	f.submit(t, model.JobTypeSector)

	require.True(t, f.processOne(t))

	require.Len(t, leases, 1)
	assert.False(t, leases[0].Expired(time.Now()), "lease should be renewed before the render")
}
