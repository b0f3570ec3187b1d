// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "convi_text_pipeline"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Run metrics
	RunsTotal   prometheus.Counter
	RunsFailed  *prometheus.CounterVec
	RunDuration prometheus.Histogram

	// Turn metrics
	TurnsProcessed *prometheus.CounterVec
	SpeakersPerRun prometheus.Histogram

	// Enrichment metrics
	EnrichmentFallbacks *prometheus.CounterVec
	EnrichmentLatency   *prometheus.HistogramVec
	ModelLoads          *prometheus.CounterVec
	ModelLoadLatency    prometheus.Histogram

	// Entity metrics
	EntitiesExtracted prometheus.Counter
	EntitiesUnique    prometheus.Counter

	// Sink publish metrics
	SinkPublishTotal   *prometheus.CounterVec
	SinkPublishErrors  *prometheus.CounterVec
	SinkPublishLatency *prometheus.HistogramVec

	// API metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates all Prometheus metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of pipeline runs started",
		}),
		RunsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_failed_total",
			Help:      "Total number of pipeline runs that failed",
		}, []string{"reason"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),

		TurnsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_processed_total",
			Help:      "Total number of turns processed",
		}, []string{"role"}),
		SpeakersPerRun: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "speakers_per_run",
			Help:      "Distinct speaker labels per run",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12},
		}),

		EnrichmentFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_fallbacks_total",
			Help:      "Total number of enrichment calls that degraded to the local fallback",
		}, []string{"stage"}),
		EnrichmentLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "enrichment_latency_seconds",
			Help:      "Latency of enrichment collaborator calls in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"stage"}),
		ModelLoads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_loads_total",
			Help:      "Total number of per-language model loads",
		}, []string{"language", "result"}),
		ModelLoadLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_load_latency_seconds",
			Help:      "Per-language model load latency in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
		}),

		EntitiesExtracted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_extracted_total",
			Help:      "Total number of named entities extracted across turns",
		}),
		EntitiesUnique: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_unique_total",
			Help:      "Total number of named entities kept after deduplication",
		}),

		SinkPublishTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_publish_total",
			Help:      "Total number of sink messages published",
		}, []string{"topic", "event_type"}),
		SinkPublishErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_publish_errors_total",
			Help:      "Total number of sink publish errors",
		}, []string{"topic", "event_type"}),
		SinkPublishLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sink_publish_latency_seconds",
			Help:      "Sink publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of API requests",
		}, []string{"transport", "route", "code"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"transport", "route"}),
	}
}

// RecordRunStart records a new pipeline run starting.
func (m *Metrics) RecordRunStart() {
	m.RunsTotal.Inc()
}

// RecordRunEnd records a pipeline run ending. reason is empty on success.
func (m *Metrics) RecordRunEnd(reason string, durationSeconds float64, speakers int) {
	m.RunDuration.Observe(durationSeconds)
	if reason != "" {
		m.RunsFailed.WithLabelValues(reason).Inc()
		return
	}
	m.SpeakersPerRun.Observe(float64(speakers))
}

// RecordTurn records one processed turn.
func (m *Metrics) RecordTurn(role string) {
	m.TurnsProcessed.WithLabelValues(role).Inc()
}

// RecordEnrichment records a collaborator call and whether it fell back.
func (m *Metrics) RecordEnrichment(stage string, fellBack bool, latencySeconds float64) {
	m.EnrichmentLatency.WithLabelValues(stage).Observe(latencySeconds)
	if fellBack {
		m.EnrichmentFallbacks.WithLabelValues(stage).Inc()
	}
}

// RecordModelLoad records a per-language model load attempt.
func (m *Metrics) RecordModelLoad(language string, err error, latencySeconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ModelLoads.WithLabelValues(language, result).Inc()
	m.ModelLoadLatency.Observe(latencySeconds)
}

// RecordEntities records extracted and deduplicated entity counts for a run.
func (m *Metrics) RecordEntities(extracted, unique int) {
	m.EntitiesExtracted.Add(float64(extracted))
	m.EntitiesUnique.Add(float64(unique))
}

// RecordSinkPublish records a sink publish attempt.
func (m *Metrics) RecordSinkPublish(topic, eventType string, err error, latencySeconds float64) {
	m.SinkPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.SinkPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.SinkPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordRequest records a served API request.
func (m *Metrics) RecordRequest(transport, route, code string, durationSeconds float64) {
	m.RequestsTotal.WithLabelValues(transport, route, code).Inc()
	m.RequestDuration.WithLabelValues(transport, route).Observe(durationSeconds)
}
