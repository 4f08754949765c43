// Package telemetry counts traversals and their durations in a private
// Prometheus registry, which a batch run writes out as a node exporter
// textfile.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fragmentgo"

// Metrics holds the collectors of one run.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	records    *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// New registers the collectors in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Fragment operations run, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fragment_flows_total",
			Help:      "Fragment-flow records produced, by operation.",
		}, []string{"operation"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Time spent per fragment operation.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"operation"}),
	}
	m.registry.MustRegister(m.operations, m.records, m.duration)
	return m
}

// Observe records one finished operation. A nil Metrics ignores it.
func (m *Metrics) Observe(operation string, start time.Time, records int, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.records.WithLabelValues(operation).Add(float64(records))
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Registry exposes the collectors for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
