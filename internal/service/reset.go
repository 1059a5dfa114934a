package service

import (
	"context"
	"log/slog"

	"github.com/target/launchlens/internal/core"
)

// ResetStorage clears the queue, jobs, results and records.
func ResetStorage(ctx context.Context, storage core.Storage, logger *slog.Logger) error {
	if err := storage.Validate(); err != nil {
		return err
	}
	if err := storage.Reset(ctx); err != nil {
		return err
	}
	if logger != nil {
		logger.WarnContext(ctx, "storage reset")
	}
	return nil
}
