package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP API.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeWorker runs the analysis worker loop.
	ServiceModeWorker ServiceMode = "worker"
	// ServiceModeReaper runs the lease reaper that recovers abandoned jobs.
	ServiceModeReaper ServiceMode = "reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeWorker,
		ServiceModeReaper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeWorker, ServiceModeReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, worker, reaper)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// WorkerConfig contains analysis worker configuration.
type WorkerConfig struct {
	// Concurrency is the number of worker goroutines. The default of 1 keeps
	// processing strictly FIFO.
	Concurrency int `env:"WORKER_CONCURRENCY" envDefault:"1"`

	// DequeueTimeout bounds a single blocking dequeue. Zero blocks until an id arrives.
	DequeueTimeout time.Duration `env:"WORKER_DEQUEUE_TIMEOUT" envDefault:"0s"`

	// VisibilityTimeout is how long a dequeued id may stay in flight before the
	// reaper considers it abandoned.
	VisibilityTimeout time.Duration `env:"WORKER_VISIBILITY_TIMEOUT" envDefault:"5m"`

	// MaxDeliveries caps how many times one job may be handed to a worker.
	MaxDeliveries int `env:"WORKER_MAX_DELIVERIES" envDefault:"3"`

	// RetryInitial and RetryMax shape the backoff used while storage is unavailable.
	RetryInitial time.Duration `env:"WORKER_RETRY_INITIAL" envDefault:"500ms"`
	RetryMax     time.Duration `env:"WORKER_RETRY_MAX"     envDefault:"30s"`
}

// Sanitize applies guardrails to worker configuration values.
func (w *WorkerConfig) Sanitize() {
	if w.Concurrency < 1 {
		w.Concurrency = 1
	}
	if w.DequeueTimeout < 0 {
		w.DequeueTimeout = 0
	}
	if w.VisibilityTimeout < 10*time.Second {
		w.VisibilityTimeout = 10 * time.Second
	}
	if w.MaxDeliveries < 1 {
		w.MaxDeliveries = 1
	}
	if w.RetryInitial <= 0 {
		w.RetryInitial = 500 * time.Millisecond
	}
	if w.RetryMax < w.RetryInitial {
		w.RetryMax = w.RetryInitial
	}
}

// ReaperConfig contains lease reaper configuration.
type ReaperConfig struct {
	// Interval is how often in-flight leases are inspected.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"30s"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	if r.Interval < time.Second {
		r.Interval = time.Second
	}
}
