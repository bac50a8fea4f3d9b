// internal/app/system/metrics/metrics.go
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the workflow collectors on their own registry. A nil
// *Metrics records nothing.
type Metrics struct {
	reg *prometheus.Registry

	Transitions *prometheus.CounterVec
	Merges      prometheus.Counter
	Failures    *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
}

// New registers the collectors plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		Transitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mansiuk_status_transitions_total",
				Help: "Committed status transitions by entity",
			},
			[]string{"entity", "from", "to"},
		),
		Merges: f.NewCounter(
			prometheus.CounterOpts{
				Name: "mansiuk_merges_total",
				Help: "Committed request merges",
			},
		),
		Failures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mansiuk_workflow_failures_total",
				Help: "Workflow operations that returned an error",
			},
			[]string{"operation", "code"},
		),
		Duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mansiuk_workflow_duration_seconds",
				Help:    "Duration of workflow operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// Transition counts one committed status change.
func (m *Metrics) Transition(entity string, from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(entity, from, to).Inc()
}

// Merged counts one committed merge.
func (m *Metrics) Merged() {
	if m == nil {
		return
	}
	m.Merges.Inc()
}

// Failed counts an operation error under its classified code.
func (m *Metrics) Failed(operation, code string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(operation, code).Inc()
}

// Time starts a duration observation for operation; call the returned func
// when it finishes.
func (m *Metrics) Time(operation string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.Duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
