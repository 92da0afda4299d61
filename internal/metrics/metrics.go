// Package metrics records Prometheus metrics for one locable run and writes
// them in the node-exporter textfile format.
//
// Commands are short-lived, so nothing is served over HTTP. Point the
// metrics.textfile setting at a file inside the textfile collector directory:
//
//	metrics:
//	  textfile: /var/lib/node_exporter/textfile/locable.prom
//
// Metrics:
//   - locable_query_duration_seconds{backend} - histogram of query latency
//   - locable_query_results{backend,collection} - rows returned by the last query
//   - locable_documents_added_total{backend,collection} - documents ingested
//   - locable_errors_total{backend,op} - failed store operations
//   - locable_last_run_timestamp_seconds - completion time of the last run
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors of one run. Each instance owns its registry,
// so instances never collide.
type Metrics struct {
	registry *prometheus.Registry

	QueryDuration  *prometheus.HistogramVec
	QueryResults   *prometheus.GaugeVec
	DocumentsAdded *prometheus.CounterVec
	Errors         *prometheus.CounterVec
	LastRun        prometheus.Gauge
}

// New creates and registers the run metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		QueryDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "locable",
				Name:      "query_duration_seconds",
				Help:      "Duration of similarity queries in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
			[]string{"backend"},
		),
		QueryResults: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "locable",
				Name:      "query_results",
				Help:      "Number of rows returned by the last query",
			},
			[]string{"backend", "collection"},
		),
		DocumentsAdded: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "locable",
				Name:      "documents_added_total",
				Help:      "Total number of documents added to a collection",
			},
			[]string{"backend", "collection"},
		),
		Errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "locable",
				Name:      "errors_total",
				Help:      "Total number of failed store operations",
			},
			[]string{"backend", "op"}, // "query", "add", "open"
		),
		LastRun: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "locable",
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time at which the last run finished",
			},
		),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveQuery records a completed query.
func (m *Metrics) ObserveQuery(backend, collection string, d time.Duration, results int) {
	m.QueryDuration.WithLabelValues(backend).Observe(d.Seconds())
	m.QueryResults.WithLabelValues(backend, collection).Set(float64(results))
}

// AddDocuments records ingested documents.
func (m *Metrics) AddDocuments(backend, collection string, n int) {
	m.DocumentsAdded.WithLabelValues(backend, collection).Add(float64(n))
}

// RecordError counts a failed operation.
func (m *Metrics) RecordError(backend, op string) {
	m.Errors.WithLabelValues(backend, op).Inc()
}

// WriteTextfile stamps the run time and writes the registry to path.
// An empty path is a no-op. The write is atomic.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	m.LastRun.SetToCurrentTime()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
