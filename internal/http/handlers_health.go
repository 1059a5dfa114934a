package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	healthResponse      = `{"status":"ok"}`
	unhealthyResponse   = `{"status":"unavailable"}`
	healthCheckDeadline = 2 * time.Second
)

// HealthCheck probes a dependency such as the shared store.
type HealthCheck func(ctx context.Context) error

// healthHandler returns 200 while check passes (or is nil) and 503 otherwise.
func healthHandler(check HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := http.StatusOK, healthResponse
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckDeadline)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "error", err)
				status, body = http.StatusServiceUnavailable, unhealthyResponse
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := io.WriteString(w, body); err != nil {
			// Nothing more to do if the client connection is gone.
			return
		}
	}
}
