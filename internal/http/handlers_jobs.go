package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/launchlens/internal/domain/model"
	apperrors "github.com/target/launchlens/internal/errors"
	"github.com/target/launchlens/internal/service"
)

const (
	defaultJobListLimit = 50
	maxJobListLimit     = 500
)

// JobHandlers provides HTTP handlers for job-related operations.
type JobHandlers struct {
	Svc    *service.JobService
	Logger *slog.Logger
}

// Submit queues an analysis of the type named in the path.
func (h *JobHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	job, err := h.Svc.Submit(r.Context(), r.PathValue("type"))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

// GetStatus returns the job with a result_ready flag.
func (h *JobHandlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.Svc.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// GetResult streams the PNG artifact of a completed job.
func (h *JobHandlers) GetResult(w http.ResponseWriter, r *http.Request) {
	data, err := h.Svc.Result(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		return
	}
}

// List returns jobs filtered by the status and type query params.
func (h *JobHandlers) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := model.JobListOptions{
		Status: model.JobStatus(q.Get("status")),
		Limit:  parseIntQuery(r, "limit", defaultJobListLimit),
	}
	if raw := q.Get("type"); raw != "" {
		jt, err := model.ParseJobType(raw)
		if err != nil {
			writeServiceError(w, r, h.Logger, apperrors.ValidationField("type", err.Error()))
			return
		}
		opts.Type = jt
	}
	if opts.Limit <= 0 || opts.Limit > maxJobListLimit {
		opts.Limit = maxJobListLimit
	}

	jobs, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	if jobs == nil {
		jobs = []*model.Job{}
	}
	WriteJSON(w, http.StatusOK, jobs)
}

type statsResponse struct {
	*model.JobStats
	Queue model.QueueDepth `json:"queue"`
}

// Stats returns job counts by status together with the queue depth.
func (h *JobHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	depth, err := h.Svc.QueueDepth(r.Context())
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, statsResponse{JobStats: stats, Queue: depth})
}
