package httpx

import (
	"net/http"
	"strings"

	"github.com/target/launchlens/internal/domain/model"
)

type endpoint struct {
	Path        string `json:"path"`
	Methods     string `json:"methods"`
	Description string `json:"description"`
}

func catalogue(types []model.JobType) []endpoint {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return []endpoint{
		{"/help", "GET", "List all endpoints and their usage."},
		{"/data", "GET, POST, DELETE", "GET lists all records. POST uploads records (multipart CSV in field \"file\", or a JSON object or array). DELETE removes all records."},
		{"/data/load", "POST", "Load the configured launch dataset into the record store. ?refresh=true refetches the source."},
		{"/analyze/{type}", "POST", "Submit an analysis job. Types: " + strings.Join(names, ", ") + "."},
		{"/jobs", "GET", "List jobs. Filters: status, type, limit."},
		{"/jobs/stats", "GET", "Job counts by status and queue depth."},
		{"/jobs/{id}", "GET", "Get job status and whether its result is ready."},
		{"/results/{id}", "GET", "Download the generated PNG."},
		{"/healthz", "GET, HEAD", "Liveness and store reachability."},
		{"/metrics", "GET", "Prometheus metrics."},
	}
}

func helpHandler(types []model.JobType) http.HandlerFunc {
	body := catalogue(types)
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, body)
	}
}
