package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for lifecycle operations.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ellie",
				Name:      "operations_total",
				Help:      "Lifecycle operations by name and outcome",
			},
			[]string{"op", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ellie",
				Name:      "operation_duration_seconds",
				Help:      "Time spent in lifecycle operations, including lock wait and persistence",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
	reg.MustRegister(m.operations, m.duration)
	return m
}

// Observe records one finished operation.
func (m *Metrics) Observe(op, outcome string, elapsed time.Duration) {
	m.operations.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}
