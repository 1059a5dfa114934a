// Command launchlens-admin inspects and maintains a launchlens store.
package main

import (
	"context"
	"log/slog"
	"os"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	a := newApp(os.Stdout, os.Stdin, logger)

	err := newRootCmd(a).ExecuteContext(context.Background())
	if cerr := a.close(); cerr != nil {
		logger.Warn("release connections", "error", cerr)
	}
	if err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}
