// Package metrics exposes Prometheus collectors for the transcription
// pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vidsub"

// Request outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeFailure = "failure"
)

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	stages    *prometheus.HistogramVec
	fallbacks prometheus.Counter
	inflight  prometheus.Gauge
	cleared   prometheus.Counter
}

// New registers the pipeline collectors plus the Go runtime and process
// collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Processed uploads by outcome.",
		}, []string{"outcome"}),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 180, 600, 1800},
		}, []string{"stage"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_fallbacks_total",
			Help:      "Extractions where the primary ffmpeg strategy failed.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipelines_in_flight",
			Help:      "Pipelines currently holding a slot.",
		}),
		cleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scratch_clears_total",
			Help:      "Times the scratch directory was cleared.",
		}),
	}
	m.registry.MustRegister(
		m.requests, m.stages, m.fallbacks, m.inflight, m.cleared,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RequestDone counts a finished request.
func (m *Metrics) RequestDone(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stages.WithLabelValues(stage).Observe(d.Seconds())
}

// ExtractionFallback counts a primary extraction failure.
func (m *Metrics) ExtractionFallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}

// PipelineStarted and PipelineFinished track slot usage.
func (m *Metrics) PipelineStarted() {
	if m == nil {
		return
	}
	m.inflight.Inc()
}

func (m *Metrics) PipelineFinished() {
	if m == nil {
		return
	}
	m.inflight.Dec()
}

// ScratchCleared counts a scratch clear.
func (m *Metrics) ScratchCleared() {
	if m == nil {
		return
	}
	m.cleared.Inc()
}
