package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "invoicegrid"

// Metrics holds the extraction collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	filesTotal    *prometheus.CounterVec
	lineItems     prometheus.Counter
	fileDuration  prometheus.Histogram
	exportsTotal  *prometheus.CounterVec
	sessionsTotal *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		filesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "PDF files processed, by outcome.",
		}, []string{"status"}),
		lineItems: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "line_items_extracted_total",
			Help:      "Line items emitted by the extraction pipeline.",
		}),
		fileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_processing_seconds",
			Help:      "Time spent extracting a single PDF.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		exportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Workbook and CSV exports, by format and outcome.",
		}, []string{"format", "status"}),
		sessionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Upload sessions finished, by final status.",
		}, []string{"status"}),
	}
}

// ObserveFile records one processed file.
func (m *Metrics) ObserveFile(failed bool, items int, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if failed {
		status = "error"
	}
	m.filesTotal.WithLabelValues(status).Inc()
	m.lineItems.Add(float64(items))
	m.fileDuration.Observe(elapsed.Seconds())
}

// ObserveExport records one export attempt.
func (m *Metrics) ObserveExport(format string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.exportsTotal.WithLabelValues(format, status).Inc()
}

// ObserveSession records a session reaching a final status.
func (m *Metrics) ObserveSession(status string) {
	if m == nil {
		return
	}
	m.sessionsTotal.WithLabelValues(status).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for gathering in tests and tooling.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
