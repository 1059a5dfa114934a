package httpx

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/target/launchlens/internal/domain/model"
	"github.com/target/launchlens/internal/ingest"
	"github.com/target/launchlens/internal/service"
)

// DefaultMaxUploadBytes bounds POST /data bodies when no limit is configured.
const DefaultMaxUploadBytes int64 = 32 << 20

const msgCSVRequired = "CSV file required"

// DataHandlers serves the /data record collection.
type DataHandlers struct {
	Svc            *service.RecordService
	MaxUploadBytes int64
	Logger         *slog.Logger
}

type ingestResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// List returns every stored record.
func (h *DataHandlers) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.Svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	if records == nil {
		records = []model.Record{}
	}
	WriteJSON(w, http.StatusOK, records)
}

// Create stores uploaded records. A multipart body must carry a .csv file in
// the "file" field; anything else is decoded as a JSON object or array. The
// optional "select" query param is a JMESPath expression applied to JSON bodies.
func (h *DataHandlers) Create(w http.ResponseWriter, r *http.Request) {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	var (
		n   int
		err error
	)
	if isMultipart(r) {
		n, err = h.createFromCSV(w, r, limit)
		if n < 0 {
			return
		}
	} else {
		var body []byte
		body, err = io.ReadAll(r.Body)
		if err == nil {
			n, err = h.Svc.IngestJSON(r.Context(), body, r.URL.Query().Get("select"))
		}
	}
	if err != nil {
		if writeTooLarge(w, err) {
			return
		}
		writeServiceError(w, r, h.Logger, err)
		return
	}

	WriteJSON(w, http.StatusCreated, ingestResponse{Status: "success", Count: n})
}

// createFromCSV returns n < 0 when a response was already written.
func (h *DataHandlers) createFromCSV(w http.ResponseWriter, r *http.Request, limit int64) (int, error) {
	if err := r.ParseMultipartForm(limit); err != nil {
		if writeTooLarge(w, err) {
			return -1, nil
		}
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Message: msgCSVRequired})
		return -1, nil
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil || !ingest.HasCSVExtension(header.Filename) {
		if file != nil {
			_ = file.Close()
		}
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Field: "file", Message: msgCSVRequired})
		return -1, nil
	}
	defer file.Close()

	return h.Svc.IngestCSV(r.Context(), file)
}

// Delete removes every stored record.
func (h *DataHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Clear(r.Context()); err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "all records deleted"})
}

// Load ingests the configured launch dataset. refresh=true refetches the
// source instead of using the cached copy.
func (h *DataHandlers) Load(w http.ResponseWriter, r *http.Request) {
	n, err := h.Svc.LoadDataset(r.Context(), parseBoolQuery(r, "refresh"))
	if errors.Is(err, service.ErrNoDataset) {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Message: err.Error()})
		return
	}
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, ingestResponse{Status: "success", Count: n})
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func writeTooLarge(w http.ResponseWriter, err error) bool {
	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		return false
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusRequestEntityTooLarge,
		ErrCode: "validation",
		Message: "request body too large",
	})
	return true
}
