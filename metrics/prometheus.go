package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	syncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_sync_runs_total",
			Help: "Total number of sync runs by type and final status.",
		},
		[]string{"sync_type", "status"},
	)
	syncItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_sync_items_total",
			Help: "Items handled during sync runs by outcome.",
		},
		[]string{"sync_type", "outcome"},
	)
	syncDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_sync_duration_seconds",
			Help:    "Histogram of sync run durations.",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 1800},
		},
		[]string{"sync_type"},
	)
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_http_requests_total",
			Help: "Total HTTP requests to the admin API.",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "Histogram of admin API request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(syncRunsTotal)
	prometheus.MustRegister(syncItemsTotal)
	prometheus.MustRegister(syncDuration)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
}

// RecordRun records the outcome of one sync run.
func RecordRun(syncType, status string, duration time.Duration) {
	syncRunsTotal.WithLabelValues(syncType, status).Inc()
	syncDuration.WithLabelValues(syncType).Observe(duration.Seconds())
}

// RecordItems adds item outcomes (created, updated, skipped, errored).
func RecordItems(syncType, outcome string, n int) {
	if n <= 0 {
		return
	}
	syncItemsTotal.WithLabelValues(syncType, outcome).Add(float64(n))
}

// RecordRequest records one admin API request.
func RecordRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// MetricsHandler returns the HTTP handler exporting Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
