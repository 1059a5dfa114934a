package prom

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_Count(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewSink(reg, "launch-lens")

	sink.Count("job.transition", 1, map[string]string{"job_type": "sector", "result": "success"})
	sink.Count("job.transition", 2, map[string]string{"job_type": "sector", "result": "success"})
	sink.Count("job.transition", 1, map[string]string{"job_type": "timeline", "extra": "dropped"})
	sink.Count("job.transition", -5, nil)

	f := sink.counters["job_transition_total"]
	require.NotNil(t, f)
	assert.Equal(t, []string{"job_type", "result"}, f.labels)
	assert.Equal(t, float64(3), testutil.ToFloat64(f.vec.WithLabelValues("sector", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.vec.WithLabelValues("timeline", "")))

	n, err := testutil.GatherAndCount(reg, "launch_lens_job_transition_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSink_GaugeAndTiming(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewSink(reg, "launchlens")

	sink.Gauge("queue.depth", 4, map[string]string{"state": "pending"})
	sink.Gauge("queue.depth", 2, map[string]string{"state": "pending"})
	sink.Timing("job.duration", 250*time.Millisecond, map[string]string{"job_type": "sector"})

	assert.Equal(t, float64(2), testutil.ToFloat64(sink.gauges["queue_depth"].vec.WithLabelValues("pending")))

	n, err := testutil.GatherAndCount(reg, "launchlens_job_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSink_NilIsSafe(t *testing.T) {
	var sink *Sink
	sink.Count("x", 1, nil)
	sink.Gauge("x", 1, nil)
	sink.Timing("x", time.Second, nil)
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := NewRegistry()
	NewSink(reg, "launchlens").Count("records.ingested", 3, nil)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "launchlens_records_ingested_total 3")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "job_transition", sanitize("job.transition"))
	assert.Equal(t, "_5xx", sanitize("5xx"))
	assert.Equal(t, "launch_lens", sanitize(" launch-lens "))
}
