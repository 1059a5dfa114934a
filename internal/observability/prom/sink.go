// Package prom exposes launchlens metrics in Prometheus format.
package prom

import (
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/target/launchlens/internal/observability/statsd"
)

// Sink adapts statsd-style calls onto Prometheus vectors. Each metric name is
// registered on first use with the label set it was first seen with; later
// calls fill missing labels with "" and drop unknown ones.
//
//	Count  -> <namespace>_<name>_total   counter
//	Gauge  -> <namespace>_<name>         gauge
//	Timing -> <namespace>_<name>_seconds histogram
type Sink struct {
	namespace  string
	registerer prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*family[*prometheus.CounterVec]
	gauges     map[string]*family[*prometheus.GaugeVec]
	histograms map[string]*family[*prometheus.HistogramVec]
}

type family[V any] struct {
	vec    V
	labels []string
}

var _ statsd.Sink = (*Sink)(nil)

// NewRegistry returns a registry preloaded with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// NewSink registers metrics on reg under namespace.
func NewSink(reg prometheus.Registerer, namespace string) *Sink {
	return &Sink{
		namespace:  sanitize(namespace),
		registerer: reg,
		counters:   make(map[string]*family[*prometheus.CounterVec]),
		gauges:     make(map[string]*family[*prometheus.GaugeVec]),
		histograms: make(map[string]*family[*prometheus.HistogramVec]),
	}
}

// Count adds value to a counter. Negative values are ignored.
func (s *Sink) Count(name string, value int64, tags map[string]string) {
	if s == nil || value < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sanitize(name) + "_total"
	f, ok := s.counters[key]
	if !ok {
		labels := labelNames(tags)
		vec := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: s.namespace,
			Name:      key,
			Help:      "Count of " + name + " events.",
		}, labels)
		if !s.register(vec) {
			return
		}
		f = &family[*prometheus.CounterVec]{vec: vec, labels: labels}
		s.counters[key] = f
	}
	f.vec.WithLabelValues(labelValues(f.labels, tags)...).Add(float64(value))
}

// Gauge sets a gauge.
func (s *Sink) Gauge(name string, value float64, tags map[string]string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sanitize(name)
	f, ok := s.gauges[key]
	if !ok {
		labels := labelNames(tags)
		vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: s.namespace,
			Name:      key,
			Help:      "Current value of " + name + ".",
		}, labels)
		if !s.register(vec) {
			return
		}
		f = &family[*prometheus.GaugeVec]{vec: vec, labels: labels}
		s.gauges[key] = f
	}
	f.vec.WithLabelValues(labelValues(f.labels, tags)...).Set(value)
}

// Timing observes a duration in seconds.
func (s *Sink) Timing(name string, value time.Duration, tags map[string]string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sanitize(name) + "_seconds"
	f, ok := s.histograms[key]
	if !ok {
		labels := labelNames(tags)
		vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: s.namespace,
			Name:      key,
			Help:      "Duration of " + name + ".",
			Buckets:   prometheus.DefBuckets,
		}, labels)
		if !s.register(vec) {
			return
		}
		f = &family[*prometheus.HistogramVec]{vec: vec, labels: labels}
		s.histograms[key] = f
	}
	f.vec.WithLabelValues(labelValues(f.labels, tags)...).Observe(value.Seconds())
}

func (s *Sink) register(c prometheus.Collector) bool {
	if s.registerer == nil {
		return true
	}
	return s.registerer.Register(c) == nil
}

var invalidChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func sanitize(name string) string {
	n := invalidChars.ReplaceAllString(strings.TrimSpace(name), "_")
	n = strings.Trim(n, "_")
	if n != "" && n[0] >= '0' && n[0] <= '9' {
		n = "_" + n
	}
	return n
}

func labelNames(tags map[string]string) []string {
	out := make([]string, 0, len(tags))
	for k := range tags {
		if l := sanitize(k); l != "" {
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}

func labelValues(labels []string, tags map[string]string) []string {
	byLabel := make(map[string]string, len(tags))
	for k, v := range tags {
		byLabel[sanitize(k)] = v
	}
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = byLabel[l]
	}
	return out
}
