package metrics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Outcome captures how a single dispatch ended.
type Outcome string

const (
	// OutcomeStatus indicates the exchange completed and a status code was observed.
	OutcomeStatus Outcome = "status"
	// OutcomeError indicates a transport failure or an unsupported method.
	OutcomeError Outcome = "error"
)

// Recorder publishes Prometheus metrics for sweep activity.
type Recorder struct {
	gatherer prometheus.Gatherer

	requests        *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	sweepDuration   prometheus.Gauge
	sweepDescriptor prometheus.Gauge
}

// NewRecorder constructs a Prometheus-backed Recorder. When reg is nil a dedicated
// registry is created so multiple recorders can coexist without conflicting with
// the global default registerer.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routesweep",
		Name:      "requests_total",
		Help:      "Descriptors dispatched during the sweep.",
	}, []string{"method", "outcome", "status_code"})

	requestLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "routesweep",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for dispatched descriptors.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method", "outcome"})

	sweepDuration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "routesweep",
		Subsystem: "sweep",
		Name:      "duration_seconds",
		Help:      "Wall-clock time of the last completed sweep.",
	})

	sweepDescriptor := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "routesweep",
		Subsystem: "sweep",
		Name:      "descriptors",
		Help:      "Descriptors processed by the last completed sweep.",
	})

	reg.MustRegister(requests, requestLatency, sweepDuration, sweepDescriptor)

	return &Recorder{
		gatherer:        reg,
		requests:        requests,
		requestLatency:  requestLatency,
		sweepDuration:   sweepDuration,
		sweepDescriptor: sweepDescriptor,
	}
}

// Gatherer returns the underlying Prometheus gatherer for tests and advanced
// integrations.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.gatherer
}

// ObserveRequest records the outcome and latency of one dispatched descriptor.
// statusCode is ignored for error outcomes.
func (r *Recorder) ObserveRequest(method string, outcome Outcome, statusCode int, duration time.Duration) {
	if r == nil {
		return
	}
	methodLabel := normalizeLabel(method)
	outcomeLabel := normalizeLabel(string(outcome))
	statusLabel := "none"
	if outcome == OutcomeStatus && statusCode > 0 {
		statusLabel = strconv.Itoa(statusCode)
	}
	r.requests.WithLabelValues(methodLabel, outcomeLabel, statusLabel).Inc()
	r.requestLatency.WithLabelValues(methodLabel, outcomeLabel).Observe(duration.Seconds())
}

// ObserveSweep records the size and duration of a completed sweep.
func (r *Recorder) ObserveSweep(descriptors int, duration time.Duration) {
	if r == nil {
		return
	}
	r.sweepDescriptor.Set(float64(descriptors))
	r.sweepDuration.Set(duration.Seconds())
}

// WriteTextfile dumps every gathered family in the Prometheus text format,
// suitable for the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.gatherer); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
