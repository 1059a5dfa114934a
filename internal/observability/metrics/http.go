package metrics

import (
	"strconv"
	"time"

	"github.com/target/launchlens/internal/observability/statsd"
)

// EmitHTTPRequest records one served request. route is the matched mux
// pattern so cardinality stays bounded.
func EmitHTTPRequest(sink statsd.Sink, route string, status int, elapsed time.Duration) {
	if sink == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	tags := map[string]string{
		"route":  route,
		"status": strconv.Itoa(status),
	}
	sink.Count("http.request", 1, tags)
	sink.Timing("http.request.duration", elapsed, tags)
}
