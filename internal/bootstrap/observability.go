package bootstrap

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/target/launchlens/config"
	"github.com/target/launchlens/internal/observability/prom"
	"github.com/target/launchlens/internal/observability/statsd"
)

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	// Sink fans out to every enabled backend; never nil.
	Sink           statsd.Sink
	StatsD         *statsd.Client
	Registry       *prometheus.Registry
	MetricsHandler http.Handler
}

// Close flushes and releases the StatsD socket.
func (o ObservabilityContainer) Close() error {
	return o.StatsD.Close()
}

// buildObservability configures the StatsD and Prometheus sinks.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var out ObservabilityContainer

	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			out.StatsD = client
		}
	}

	var promSink statsd.Sink
	if cfg.Prometheus.Enabled {
		out.Registry = prom.NewRegistry()
		out.MetricsHandler = prom.Handler(out.Registry)
		promSink = prom.NewSink(out.Registry, cfg.Prometheus.Namespace)
	}

	out.Sink = statsd.Combine(out.StatsD, promSink)
	return out
}
