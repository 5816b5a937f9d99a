package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "annotator_"

	ResultSuccess    = "success"
	ResultError      = "error"
	ResultFallback   = "fallback"
	ResultSuperseded = "superseded"
)

var (
	registerOnce sync.Once

	vocabularyLoads   *prometheus.CounterVec
	vocabularyLatency *prometheus.HistogramVec

	ingestTotal   *prometheus.CounterVec
	ingestLatency *prometheus.HistogramVec

	exportTotal *prometheus.CounterVec

	activeSessions prometheus.Gauge
)

// Init registers the collectors with reg (the default registerer when nil).
// Calling the Observe functions before Init is a no-op.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}

		vocabularyLoads = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "vocabulary_loads_total",
				Help: "Vocabulary config loads by source and result",
			},
			[]string{"source", "result"},
		)
		vocabularyLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "vocabulary_load_latency_seconds",
				Help:    "Vocabulary config load latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		)
		ingestTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_total",
				Help: "Table and dictionary ingestions by result",
			},
			[]string{"result"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Ingestion latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Data dictionary exports by format and result",
			},
			[]string{"format", "result"},
		)
		activeSessions = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "active_sessions",
				Help: "Annotation sessions currently held in memory",
			},
		)

		reg.MustRegister(
			vocabularyLoads,
			vocabularyLatency,
			ingestTotal,
			ingestLatency,
			exportTotal,
			activeSessions,
		)
	})
}

// Handler exposes the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveVocabularyLoad records one config load attempt.
func ObserveVocabularyLoad(source, result string, latency time.Duration) {
	if vocabularyLoads == nil {
		return
	}

	vocabularyLoads.WithLabelValues(source, result).Inc()
	vocabularyLatency.WithLabelValues(source).Observe(latency.Seconds())
}

// ObserveIngest records one ingestion.
func ObserveIngest(result string, latency time.Duration) {
	if ingestTotal == nil {
		return
	}

	ingestTotal.WithLabelValues(result).Inc()
	ingestLatency.WithLabelValues(result).Observe(latency.Seconds())
}

// ObserveExport records one export.
func ObserveExport(format, result string) {
	if exportTotal == nil {
		return
	}

	exportTotal.WithLabelValues(format, result).Inc()
}

// SetActiveSessions reports the current number of sessions.
func SetActiveSessions(n int) {
	if activeSessions == nil {
		return
	}

	activeSessions.Set(float64(n))
}

// ResultOf maps an error to a result label.
func ResultOf(err error) string {
	if err != nil {
		return ResultError
	}

	return ResultSuccess
}
