package statsd

import "time"

// Multi fans every metric out to each non-nil sink.
type Multi []Sink

var _ Sink = Multi(nil)

// Combine drops nil sinks and returns Nop when none remain.
func Combine(sinks ...Sink) Sink {
	var out Multi
	for _, s := range sinks {
		if s == nil {
			continue
		}
		if c, ok := s.(*Client); ok && c == nil {
			continue
		}
		out = append(out, s)
	}
	switch len(out) {
	case 0:
		return Nop{}
	case 1:
		return out[0]
	}
	return out
}

func (m Multi) Count(name string, value int64, tags map[string]string) {
	for _, s := range m {
		s.Count(name, value, tags)
	}
}

func (m Multi) Gauge(name string, value float64, tags map[string]string) {
	for _, s := range m {
		s.Gauge(name, value, tags)
	}
}

func (m Multi) Timing(name string, value time.Duration, tags map[string]string) {
	for _, s := range m {
		s.Timing(name, value, tags)
	}
}

// Nop discards all metrics.
type Nop struct{}

func (Nop) Count(string, int64, map[string]string)          {}
func (Nop) Gauge(string, float64, map[string]string)        {}
func (Nop) Timing(string, time.Duration, map[string]string) {}
