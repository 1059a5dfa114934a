package config

import (
	"log/slog"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: Redis connection and key layout
//   - http.go: HTTP server configuration
//   - services.go: Service mode, worker and reaper configuration
//   - ingest.go: Dataset source configuration
//   - observability.go: Logging and metrics sinks
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	Redis RedisConfig `envPrefix:"REDIS_"`
	Store StoreConfig `envPrefix:"STORE_"`

	HTTP HTTPConfig

	// Services is a comma-delimited list of enabled roles.
	Services string `env:"SERVICES" envDefault:"http,worker"`

	Worker WorkerConfig
	Reaper ReaperConfig
	Ingest IngestConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Store.Sanitize()
	c.Worker.Sanitize()
	c.Reaper.Sanitize()
	c.Ingest.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks NODE_ENV as a fallback for DEV.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	return c.serviceEnabled(ServiceModeHTTP)
}

// IsWorkerEnabled returns true if the analysis worker loop is enabled.
func (c *AppConfig) IsWorkerEnabled() bool {
	return c.serviceEnabled(ServiceModeWorker)
}

// IsReaperEnabled returns true if the lease reaper is enabled.
func (c *AppConfig) IsReaperEnabled() bool {
	return c.serviceEnabled(ServiceModeReaper)
}

func (c *AppConfig) serviceEnabled(mode ServiceMode) bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[mode]
}

// LogValue implements slog.LogValuer so the config can be logged at startup
// without leaking credentials.
func (c *AppConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("services", c.Services),
		slog.Bool("dev", c.IsDev),
		slog.String("http_addr", c.HTTP.Addr),
		slog.String("redis_uri", redactURI(c.Redis.URI)),
		slog.String("key_prefix", c.Store.KeyPrefix),
		slog.Int("worker_concurrency", c.Worker.Concurrency),
		slog.Duration("visibility_timeout", c.Worker.VisibilityTimeout),
		slog.Int("max_deliveries", c.Worker.MaxDeliveries),
	)
}

func redactURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	if at < 0 {
		return uri
	}
	scheme := strings.Index(uri, "://")
	if scheme < 0 || scheme > at {
		return "***" + uri[at:]
	}
	return uri[:scheme+3] + "***" + uri[at:]
}
