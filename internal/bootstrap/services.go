package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/target/launchlens/config"
	"github.com/target/launchlens/internal/adapters/jobrunner"
	"github.com/target/launchlens/internal/adapters/reaper"
	"github.com/target/launchlens/internal/analysis"
	"github.com/target/launchlens/internal/core"
	domainjob "github.com/target/launchlens/internal/domain/job"
	"github.com/target/launchlens/internal/ingest"
	"github.com/target/launchlens/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Storage       core.Storage
	Policy        *domainjob.DeliveryPolicy
	Analysis      *analysis.Registry
	Jobs          *service.JobService
	Records       *service.RecordService
	Dataset       *ingest.DatasetCache
	Observability ObservabilityContainer
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config  *config.AppConfig
	Storage core.Storage
	Logger  *slog.Logger
}

// NewServices builds the service layer on top of an already wired store.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service config is required")
	}
	if err := deps.Storage.Validate(); err != nil {
		return ServiceContainer{}, fmt.Errorf("storage: %w", err)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	policy, err := domainjob.NewDeliveryPolicy(cfg.Worker.VisibilityTimeout, cfg.Worker.MaxDeliveries)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("delivery policy: %w", err)
	}

	obs := buildObservability(logger, cfg.Observability)
	registry := analysis.NewRegistry()
	dataset := newDatasetCache(cfg.Ingest, logger)

	jobs := service.MustNewJobService(service.JobServiceOptions{
		Jobs:     deps.Storage.Jobs,
		Results:  deps.Storage.Results,
		Queue:    deps.Storage.Queue,
		Supports: registry.Supports,
		Logger:   logger,
		Metrics:  obs.Sink,
	})
	records, err := service.NewRecordService(service.RecordServiceOptions{
		Records: deps.Storage.Records,
		Dataset: dataset,
		Logger:  logger,
		Metrics: obs.Sink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("record service: %w", err)
	}

	return ServiceContainer{
		Storage:       deps.Storage,
		Policy:        policy,
		Analysis:      registry,
		Jobs:          jobs,
		Records:       records,
		Dataset:       dataset,
		Observability: obs,
	}, nil
}

func newDatasetCache(cfg config.IngestConfig, logger *slog.Logger) *ingest.DatasetCache {
	if cfg.SourcePath == "" {
		return nil
	}
	loader := ingest.NewLoader(ingest.LoaderOptions{Logger: logger})
	return ingest.NewDatasetCache(loader, ingest.Source{
		Location: cfg.SourcePath,
		Selector: cfg.RecordsPath,
	}, logger)
}

// SeedRecords loads the configured dataset when the record store is empty.
func SeedRecords(ctx context.Context, svc ServiceContainer, logger *slog.Logger) error {
	n, err := svc.Records.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.InfoContext(ctx, "record store already populated; skipping seed", "count", n)
		return nil
	}
	loaded, err := svc.Records.LoadDataset(ctx, false)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "record store seeded", "count", loaded, "source", svc.Dataset.Source().String())
	return nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Health   func(context.Context) error
	Logger   *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		Health:   deps.cfg.Health,
		Logger:   deps.logger,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error",
					"service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newWorkerBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeWorker,
		name: "worker",
		start: func(ctx context.Context) error {
			svc := deps.cfg.Services
			workerCfg := deps.cfg.Config.Worker
			runner, err := jobrunner.NewRunner(jobrunner.RunnerOptions{
				Storage:        svc.Storage,
				Policy:         svc.Policy,
				Analyzer:       svc.Analysis,
				Logger:         deps.logger,
				Metrics:        svc.Observability.Sink,
				Concurrency:    workerCfg.Concurrency,
				DequeueTimeout: workerCfg.DequeueTimeout,
				RetryInitial:   workerCfg.RetryInitial,
				RetryMax:       workerCfg.RetryMax,
			})
			if err != nil {
				return err
			}
			return runner.Run(ctx)
		},
	}
}

func newReaperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeReaper,
		name: "reaper",
		start: func(ctx context.Context) error {
			svc := deps.cfg.Services
			runner, err := reaper.NewRunner(reaper.RunnerOptions{
				Storage: svc.Storage,
				Policy:  svc.Policy,
				Config:  deps.cfg.Config.Reaper,
				Logger:  deps.logger,
				Metrics: svc.Observability.Sink,
			})
			if err != nil {
				return err
			}
			return runner.Run(ctx)
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newWorkerBackgroundService(deps),
		newReaperBackgroundService(deps),
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Determine which services are enabled
	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	// Start all enabled services
	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	// Wait for shutdown signal or error
	return waitForShutdown(shutdownConfig{
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		logger:      logger,
		backgrounds: result.Background,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	return errorChannelCapacity(enabled) + 1
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop drains HTTP first so no new jobs arrive, then cancels the
// background context. A worker mid-job finishes it before returning.
func gracefulStop(cfg shutdownConfig) error {
	var httpErr error
	if cfg.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()

		httpErr = ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		})
	}

	cfg.cancel()
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return httpErr
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
