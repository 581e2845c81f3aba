// Package observability holds the process-wide Prometheus metrics.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks total number of HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackr_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trackr_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// IngestRowsImported counts statement rows that survived normalization
	IngestRowsImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trackr_ingest_rows_imported_total",
			Help: "Total number of statement rows imported",
		},
	)

	// IngestRowsRejected counts dropped statement rows per pipeline stage
	IngestRowsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackr_ingest_rows_rejected_total",
			Help: "Total number of statement rows rejected, by stage",
		},
		[]string{"stage"},
	)
)

// ObserveHTTPRequest records one completed request.
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
