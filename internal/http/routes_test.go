package httpx

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/launchlens/internal/domain/model"
	"github.com/target/launchlens/internal/mocks/storage"
	"github.com/target/launchlens/internal/service"
)

type apiFixture struct {
	mem     *storage.Memory
	handler http.Handler
}

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()
	mem := storage.NewMemory(time.Minute)
	jobs, err := service.NewJobService(service.JobServiceOptions{
		Jobs:    mem.Jobs(),
		Results: mem.Results(),
		Queue:   mem.Queue(),
	})
	require.NoError(t, err)
	records, err := service.NewRecordService(service.RecordServiceOptions{Records: mem.Records()})
	require.NoError(t, err)

	h := NewRouter(RouterServices{
		Jobs:           jobs,
		Records:        records,
		Metrics:        http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "# metrics\n") }),
		MaxUploadBytes: 1 << 16,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return apiFixture{mem: mem, handler: h}
}

func (f apiFixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func (f apiFixture) postJSON(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return f.do(t, req)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func multipartUpload(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/data", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHelp(t *testing.T) {
	f := newAPIFixture(t)
	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/help", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	eps := decode[[]endpoint](t, rr)
	paths := make([]string, len(eps))
	for i, ep := range eps {
		paths[i] = ep.Path
	}
	assert.Contains(t, paths, "/analyze/{type}")
	assert.Contains(t, rr.Body.String(), "top-private")
}

func TestData_PostJSONObjectThenList(t *testing.T) {
	f := newAPIFixture(t)

	rr := f.postJSON(t, "/data", `{"Company Name":"SpaceX","Country of Launch":"USA","Year":"2020","id":"client-id"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, ingestResponse{Status: "success", Count: 1}, decode[ingestResponse](t, rr))

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/data", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	records := decode[[]map[string]any](t, rr)
	require.Len(t, records, 1)
	assert.Equal(t, "SpaceX", records[0]["Company Name"])
	assert.NotEqual(t, "client-id", records[0]["id"])
	assert.NotEmpty(t, records[0]["id"])
}

func TestData_PostJSONArrayWithSelector(t *testing.T) {
	f := newAPIFixture(t)
	rr := f.postJSON(t, "/data?select=launches", `{"launches":[{"Year":2020},{"Year":2021}]}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, 2, decode[ingestResponse](t, rr).Count)
}

func TestData_PostInvalidJSON(t *testing.T) {
	f := newAPIFixture(t)
	for _, body := range []string{``, `not json`, `[1,2]`, `[]`} {
		rr := f.postJSON(t, "/data", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "body %q", body)
		assert.NotEmpty(t, decode[errorBody](t, rr).Error)
	}
}

func TestData_PostCSVUpload(t *testing.T) {
	f := newAPIFixture(t)
	csv := " Company Name ,Rocket,Year\nSpaceX,50,2020\nCASC,,2019\n"

	rr := f.do(t, multipartUpload(t, "file", "launches.csv", csv))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, 2, decode[ingestResponse](t, rr).Count)

	n, err := f.mem.Records().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestData_PostCSVRequiresCSVFile(t *testing.T) {
	f := newAPIFixture(t)
	for name, req := range map[string]*http.Request{
		"wrong extension": multipartUpload(t, "file", "launches.txt", "a,b\n1,2\n"),
		"wrong field":     multipartUpload(t, "upload", "launches.csv", "a,b\n1,2\n"),
	} {
		t.Run(name, func(t *testing.T) {
			rr := f.do(t, req)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, msgCSVRequired, decode[errorBody](t, rr).Error)
		})
	}
}

func TestData_PostTooLarge(t *testing.T) {
	f := newAPIFixture(t)
	big := `[{"pad":"` + strings.Repeat("x", 1<<17) + `"}]`
	rr := f.postJSON(t, "/data", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestData_Delete(t *testing.T) {
	f := newAPIFixture(t)
	require.Equal(t, http.StatusCreated, f.postJSON(t, "/data", `[{"a":1},{"a":2}]`).Code)

	rr := f.do(t, httptest.NewRequest(http.MethodDelete, "/data", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]string{"status": "all records deleted"}, decode[map[string]string](t, rr))

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/data", nil))
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestData_LoadWithoutDataset(t *testing.T) {
	f := newAPIFixture(t)
	rr := f.do(t, httptest.NewRequest(http.MethodPost, "/data/load", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAnalyze_SubmitAndPoll(t *testing.T) {
	f := newAPIFixture(t)
	for _, jt := range model.JobTypes() {
		rr := f.do(t, httptest.NewRequest(http.MethodPost, "/analyze/"+string(jt), nil))
		require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
		id := decode[map[string]string](t, rr)["job_id"]
		require.NotEmpty(t, id)

		rr = f.do(t, httptest.NewRequest(http.MethodGet, "/jobs/"+id, nil))
		require.Equal(t, http.StatusOK, rr.Code)
		status := decode[map[string]any](t, rr)
		assert.Equal(t, "queued", status["status"])
		assert.Equal(t, string(jt), status["type"])
		assert.Equal(t, false, status["result_ready"])
	}
	assert.Len(t, f.mem.Pending(), len(model.JobTypes()))
}

func TestAnalyze_UnknownTypeRejected(t *testing.T) {
	f := newAPIFixture(t)
	rr := f.do(t, httptest.NewRequest(http.MethodPost, "/analyze/forecast", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decode[errorBody](t, rr)
	assert.Equal(t, "type", body.Field)
	assert.Empty(t, f.mem.Pending())
}

func TestAnalyze_StoreUnavailable(t *testing.T) {
	f := newAPIFixture(t)
	f.mem.SetFailure(errors.New("connection refused"))
	rr := f.do(t, httptest.NewRequest(http.MethodPost, "/analyze/sector", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "storage unavailable", decode[errorBody](t, rr).Error)
}

func TestJobs_NotFound(t *testing.T) {
	f := newAPIFixture(t)
	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/jobs/doesnotexist", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, msgJobNotFound, decode[errorBody](t, rr).Error)
}

func TestResults_NotFoundAndFound(t *testing.T) {
	f := newAPIFixture(t)
	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/results/doesnotexist", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, msgResultNotFound, decode[errorBody](t, rr).Error)

	ctx := context.Background()
	job, err := f.mem.Jobs().Create(ctx, model.JobTypeSector)
	require.NoError(t, err)
	png := []byte("\x89PNG\r\n\x1a\nbody")
	require.NoError(t, f.mem.Results().Put(ctx, job.ID, png))
	_, err = f.mem.Jobs().Transition(ctx, model.TransitionParams{ID: job.ID, To: model.JobStatusRunning})
	require.NoError(t, err)
	_, err = f.mem.Jobs().Transition(ctx, model.TransitionParams{ID: job.ID, To: model.JobStatusComplete})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/results/"+job.ID, nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr = f.do(t, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Empty(t, rr.Header().Get("Content-Encoding"))
	assert.Equal(t, png, rr.Body.Bytes())

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID, nil))
	assert.Equal(t, true, decode[map[string]any](t, rr)["result_ready"])
}

func TestJobs_ListAndStats(t *testing.T) {
	f := newAPIFixture(t)
	for _, path := range []string{"/analyze/sector", "/analyze/sector", "/analyze/timeline"} {
		require.Equal(t, http.StatusAccepted, f.do(t, httptest.NewRequest(http.MethodPost, path, nil)).Code)
	}

	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/jobs?type=sector", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Job](t, rr), 2)

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/jobs?status=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/jobs/stats", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	stats := decode[map[string]any](t, rr)
	assert.InDelta(t, 3, stats["queued"], 0)
	assert.Equal(t, map[string]any{"pending": float64(3), "in_flight": float64(0)}, stats["queue"])
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)
	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, healthResponse, rr.Body.String())

	rr = f.do(t, httptest.NewRequest(http.MethodHead, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())

	unhealthy := NewRouter(RouterServices{
		Health: func(context.Context) error { return errors.New("redis down") },
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	rr = httptest.NewRecorder()
	unhealthy.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestMetricsAndMethodRouting(t *testing.T) {
	f := newAPIFixture(t)
	rr := f.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, httptest.NewRequest(http.MethodGet, "/analyze/sector", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestCompression_JSON(t *testing.T) {
	f := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/help", nil)
	req.Header.Set("Accept-Encoding", "br, gzip;q=0.8")
	rr := f.do(t, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rr.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(plain), "/results/{id}")
}

func TestRecover(t *testing.T) {
	h := Recover(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
