package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/target/launchlens/internal/domain/model"
	apperrors "github.com/target/launchlens/internal/errors"
)

// Messages returned for missing resources.
const (
	msgJobNotFound    = "Job not found"
	msgResultNotFound = "Result not found"
)

// writeServiceError maps a service error onto a status and JSON body.
// Server-side failures are logged and reported without internal detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, model.ErrJobNotFound):
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: string(apperrors.ErrCodeNotFound), Message: msgJobNotFound})
		return
	case errors.Is(err, model.ErrResultNotFound):
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: string(apperrors.ErrCodeNotFound), Message: msgResultNotFound})
		return
	}

	status := apperrors.HTTPStatus(err)
	code := apperrors.GetCode(err)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	p := ErrorParams{Code: status, ErrCode: string(code), Field: apperrors.GetField(err)}

	switch {
	case status < http.StatusInternalServerError:
		p.Message = clientMessage(err)
	case status == http.StatusServiceUnavailable:
		p.Message = "storage unavailable"
	default:
		p.Message = http.StatusText(status)
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	WriteError(w, p)
}

// clientMessage prefers the AppError message over the wrapped chain.
func clientMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Error()
	}
	return err.Error()
}
