// Package metrics provides Prometheus metrics for downloads.
//
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "threaddl"

// Metrics holds all application metrics.
type Metrics struct {
	// File metrics
	FilesTotal    *prometheus.CounterVec
	FileDuration  prometheus.Histogram
	BytesTotal    prometheus.Counter
	AttemptsTotal prometheus.Counter

	// Extraction metrics
	LinksFound *prometheus.CounterVec

	// Run metrics
	RunsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates all metrics and registers them in a fresh registry,
// so several instances can live side by side in tests.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		FilesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "files",
			Name:      "total",
			Help:      "Total number of download jobs by outcome",
		}, []string{"status"}),
		FileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "files",
			Name:      "duration_seconds",
			Help:      "Time spent on a single download job, retries included",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		BytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "files",
			Name:      "bytes_total",
			Help:      "Total bytes written to disk",
		}),
		AttemptsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "files",
			Name:      "attempts_total",
			Help:      "Total number of HTTP requests made for files",
		}),
		LinksFound: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extractor",
			Name:      "links_total",
			Help:      "Total number of media links extracted from thread pages",
		}, []string{"site", "kind"}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "total",
			Help:      "Total number of finished runs by result",
		}, []string{"result"}),
		registry: reg,
	}
}

// RecordOutcome records the terminal status of one job.
func (m *Metrics) RecordOutcome(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.FilesTotal.WithLabelValues(status).Inc()
	m.FileDuration.Observe(d.Seconds())
}

// RecordBytes adds bytes written to disk while streaming.
func (m *Metrics) RecordBytes(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BytesTotal.Add(float64(n))
}

// RecordAttempt counts one file request.
func (m *Metrics) RecordAttempt() {
	if m == nil {
		return
	}
	m.AttemptsTotal.Inc()
}

// RecordLinks records the result of one extraction.
func (m *Metrics) RecordLinks(site, kind string, n int) {
	if m == nil {
		return
	}
	m.LinksFound.WithLabelValues(site, kind).Add(float64(n))
}

// RecordRun records how a run ended: completed, stopped or error.
func (m *Metrics) RecordRun(result string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(result).Inc()
}

// Handler serves the metrics of this instance in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
