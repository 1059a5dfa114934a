package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/launchlens/config"
	"github.com/target/launchlens/internal/mocks/storage"
	"github.com/target/launchlens/internal/observability/statsd"
)

func TestErrorChannelCapacity(t *testing.T) {
	tests := []struct {
		name  string
		modes []config.ServiceMode
		want  int
	}{
		{
			name: "no services enabled",
			want: 0,
		},
		{
			name:  "http only",
			modes: []config.ServiceMode{config.ServiceModeHTTP},
			want:  1,
		},
		{
			name:  "http and worker",
			modes: []config.ServiceMode{config.ServiceModeHTTP, config.ServiceModeWorker},
			want:  2,
		},
		{
			name: "all services enabled",
			modes: []config.ServiceMode{
				config.ServiceModeHTTP,
				config.ServiceModeWorker,
				config.ServiceModeReaper,
			},
			want: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enabled := make(map[config.ServiceMode]bool, len(tt.modes))
			for _, mode := range tt.modes {
				enabled[mode] = true
			}

			if got := errorChannelCapacity(enabled); got != tt.want {
				t.Fatalf("errorChannelCapacity(%v) = %d, want %d", tt.modes, got, tt.want)
			}
			if got := errorChannelBufferSize(enabled); got != tt.want+1 {
				t.Fatalf("errorChannelBufferSize(%v) = %d, want %d", tt.modes, got, tt.want+1)
			}
		})
	}
}

func TestGetEnabledServices_StableOrder(t *testing.T) {
	cfg := &config.AppConfig{Services: "reaper,http,worker"}
	assert.Equal(t, []string{"http", "worker", "reaper"}, GetEnabledServices(cfg))
	assert.Empty(t, GetEnabledServices(&config.AppConfig{Services: "bogus"}))
	assert.Error(t, ValidateServiceConfig(&config.AppConfig{Services: ""}))
	assert.NoError(t, ValidateServiceConfig(cfg))
}

func testConfig() *config.AppConfig {
	cfg := &config.AppConfig{Services: "http,worker"}
	cfg.Worker = config.WorkerConfig{VisibilityTimeout: time.Minute, MaxDeliveries: 3}
	cfg.Sanitize()
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewServices_WiresServices(t *testing.T) {
	mem := storage.NewMemory(time.Minute)
	svc, err := NewServices(&ServiceDeps{Config: testConfig(), Storage: mem.Storage(), Logger: quietLogger()})
	require.NoError(t, err)

	assert.NotNil(t, svc.Jobs)
	assert.NotNil(t, svc.Records)
	assert.Nil(t, svc.Dataset)
	assert.Equal(t, 3, svc.Policy.MaxDeliveries())
	assert.IsType(t, statsd.Nop{}, svc.Observability.Sink)

	_, err = NewServices(&ServiceDeps{Config: testConfig(), Logger: quietLogger()})
	require.Error(t, err)
}

func TestNewServices_PrometheusEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.Observability.Prometheus = config.PrometheusConfig{Enabled: true, Namespace: "launchlens"}
	mem := storage.NewMemory(time.Minute)
	svc, err := NewServices(&ServiceDeps{Config: cfg, Storage: mem.Storage(), Logger: quietLogger()})
	require.NoError(t, err)
	require.NotNil(t, svc.Observability.MetricsHandler)

	_, err = svc.Jobs.Submit(context.Background(), "sector")
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	svc.Observability.MetricsHandler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), "launchlens_job_transition_total")
}

func TestSeedRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "launches.csv")
	require.NoError(t, os.WriteFile(path,
		[]byte("Company Name,Rocket,Year,Private or State Run\nSpaceX,50,2020,P\nCASC,,2019,S\n"), 0o600))

	cfg := testConfig()
	cfg.Ingest = config.IngestConfig{SourcePath: path, LoadOnStart: true}
	mem := storage.NewMemory(time.Minute)
	svc, err := NewServices(&ServiceDeps{Config: cfg, Storage: mem.Storage(), Logger: quietLogger()})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, SeedRecords(ctx, svc, quietLogger()))
	n, err := mem.Records().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Populated stores are left alone.
	require.NoError(t, SeedRecords(ctx, svc, quietLogger()))
	n, err = mem.Records().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestInitLogger_FileFanout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, closer, err := InitLogger(config.LoggingConfig{Level: "debug", File: path})
	require.NoError(t, err)
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil))) })

	logger.Debug("hello", "k", "v")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
