package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/target/launchlens/config"
	"github.com/target/launchlens/internal/bootstrap"
	"github.com/target/launchlens/internal/core"
)

var errAborted = errors.New("aborted by user")

// app carries the state shared by every subcommand. The store is connected
// lazily so help output works without Redis.
type app struct {
	out    io.Writer
	in     io.Reader
	logger *slog.Logger
	format string

	loadConfig func() (config.AppConfig, error)
	connect    func(cfg *config.AppConfig, logger *slog.Logger) (core.Storage, io.Closer, error)

	cfg      config.AppConfig
	services bootstrap.ServiceContainer
	closer   io.Closer
}

func newApp(out io.Writer, in io.Reader, logger *slog.Logger) *app {
	return &app{
		out:        out,
		in:         in,
		logger:     logger,
		format:     formatText,
		loadConfig: bootstrap.LoadConfig,
		connect:    connectStore,
	}
}

//nolint:ireturn // the redis client doubles as the closer.
func connectStore(cfg *config.AppConfig, logger *slog.Logger) (core.Storage, io.Closer, error) {
	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{RedisConfig: cfg.Redis, Logger: logger})
	if err != nil {
		return core.Storage{}, nil, fmt.Errorf("connect redis: %w", err)
	}
	return bootstrap.NewStorage(client, cfg, logger), client, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "launchlens-admin",
		Short: "Inspect and maintain the launchlens store",
		Long: `launchlens-admin talks to the same Redis store as the launchlens service.

It can load datasets, submit and inspect analysis jobs, run the worker and
reaper once from the shell, and reset the store.

Configuration is read from the environment (and .env) exactly like the service.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVarP(&a.format, "output", "o", formatText, "output format: text, json or yaml")

	root.AddCommand(
		newIngestCmd(a),
		newRecordsCmd(a),
		newSubmitCmd(a),
		newStatusCmd(a),
		newFetchCmd(a),
		newJobsCmd(a),
		newQueueCmd(a),
		newDrainCmd(a),
		newReapCmd(a),
		newResetCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" {
		return nil
	}
	if err := validateFormat(a.format); err != nil {
		return err
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	storage, closer, err := a.connect(&cfg, a.logger)
	if err != nil {
		return err
	}
	// The admin tool never serves /metrics.
	cfg.Observability.Prometheus.Enabled = false

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{Config: &cfg, Storage: storage, Logger: a.logger})
	if err != nil {
		return errors.Join(err, closeQuietly(closer))
	}

	a.cfg = cfg
	a.services = services
	a.closer = closer
	return nil
}

func (a *app) close() error {
	var errs []error
	if a.services.Observability.StatsD != nil {
		errs = append(errs, a.services.Observability.Close())
	}
	errs = append(errs, closeQuietly(a.closer))
	a.closer = nil
	return errors.Join(errs...)
}

func closeQuietly(c io.Closer) error {
	if c == nil {
		return nil
	}
	return c.Close()
}

// confirm asks before destructive actions unless yes is set.
func (a *app) confirm(yes bool, action string) error {
	if yes {
		return nil
	}
	if err := writef(a.out, "About to %s. Continue? [y/N]: ", action); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	resp, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	resp = strings.ToLower(strings.TrimSpace(resp))
	if resp == "y" || resp == "yes" {
		return nil
	}
	return errAborted
}
