// Package httpx provides the HTTP API for the launchlens analysis service.
package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/launchlens/internal/domain/model"
	"github.com/target/launchlens/internal/observability/statsd"
	"github.com/target/launchlens/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Jobs    *service.JobService
	Records *service.RecordService

	// Optional
	JobTypes       []model.JobType // advertised by /help; defaults to model.JobTypes()
	Health         HealthCheck
	Metrics        http.Handler // served at /metrics when set
	MetricsSink    statsd.Sink
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// NewRouter creates the API mux wrapped in the standard middleware chain.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	types := services.JobTypes
	if len(types) == 0 {
		types = model.JobTypes()
	}

	mux := http.NewServeMux()

	dataHandlers := &DataHandlers{Svc: services.Records, MaxUploadBytes: services.MaxUploadBytes, Logger: logger}
	jobHandlers := &JobHandlers{Svc: services.Jobs, Logger: logger}

	registerDataRoutes(mux, dataHandlers)
	registerJobRoutes(mux, jobHandlers)

	mux.Handle("GET /help", helpHandler(types))
	health := healthHandler(services.Health, logger)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	if services.Metrics != nil {
		mux.Handle("GET /metrics", services.Metrics)
	}

	return chain(mux,
		Recover(logger),
		Logging(logger),
		Instrument(services.MetricsSink),
		Compression(),
	)
}

// chain applies middleware so that the first argument is the outermost.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func registerDataRoutes(mux *http.ServeMux, h *DataHandlers) {
	mux.HandleFunc("GET /data", h.List)
	mux.HandleFunc("POST /data", h.Create)
	mux.HandleFunc("DELETE /data", h.Delete)
	mux.HandleFunc("POST /data/load", h.Load)
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers) {
	mux.HandleFunc("POST /analyze/{type}", h.Submit)
	mux.HandleFunc("GET /jobs", h.List)
	mux.HandleFunc("GET /jobs/stats", h.Stats)
	mux.HandleFunc("GET /jobs/{id}", h.GetStatus)
	mux.HandleFunc("GET /results/{id}", h.GetResult)
}
