// Package metrics holds the metric vocabulary shared by the worker, reaper and API.
package metrics

import (
	"time"

	"github.com/target/launchlens/internal/domain/model"
	obserrors "github.com/target/launchlens/internal/observability/errors"
	"github.com/target/launchlens/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Transition names used in job lifecycle metrics.
const (
	TransitionSubmit   = "submit"
	TransitionStart    = "start"
	TransitionComplete = "complete"
	TransitionFail     = "fail"
	TransitionSkip     = "skip"
	TransitionRequeue  = "requeue"
)

// JobMetric captures one job lifecycle event.
type JobMetric struct {
	JobType    model.JobType
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

// EmitJobLifecycle emits job.transition and, when a duration is set, job.duration.
func EmitJobLifecycle(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}

	jobType := string(in.JobType)
	if jobType == "" {
		jobType = "unknown"
	}
	tags := map[string]string{
		"job_type":    jobType,
		"transition":  in.Transition,
		"result":      in.Result,
		"error_class": "",
	}
	if in.Err != nil && in.Result == ResultError {
		tags["error_class"] = obserrors.Classify(in.Err)
	}

	sink.Count("job.transition", 1, tags)

	if in.Duration > 0 {
		sink.Timing("job.duration", in.Duration, map[string]string{
			"job_type":   jobType,
			"transition": in.Transition,
			"result":     in.Result,
		})
	}
}

// EmitQueueDepth publishes the pending and in-flight gauges.
func EmitQueueDepth(sink statsd.Sink, depth model.QueueDepth) {
	if sink == nil {
		return
	}
	sink.Gauge("queue.depth", float64(depth.Pending), map[string]string{"state": "pending"})
	sink.Gauge("queue.depth", float64(depth.InFlight), map[string]string{"state": "in_flight"})
}

// EmitDequeueError counts failed dequeue attempts.
func EmitDequeueError(sink statsd.Sink, err error) {
	if sink == nil || err == nil {
		return
	}
	sink.Count("queue.dequeue_error", 1, map[string]string{"error_class": obserrors.Classify(err)})
}

// EmitReaperSweep reports what one reaper pass did.
func EmitReaperSweep(sink statsd.Sink, action string, n int) {
	if sink == nil || n <= 0 {
		return
	}
	sink.Count("reaper.recovered", int64(n), map[string]string{"action": action})
}

// EmitIngest counts stored records by origin.
func EmitIngest(sink statsd.Sink, origin string, n int, err error) {
	if sink == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	tags := map[string]string{"origin": origin, "result": result}
	sink.Count("records.ingest", 1, tags)
	if n > 0 {
		sink.Count("records.ingested", int64(n), map[string]string{"origin": origin})
	}
}
