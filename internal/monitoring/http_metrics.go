package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics contains all metrics for the read API
type HTTPMetrics struct {
	requestDuration  *prometheus.HistogramVec
	requestsTotal    *prometheus.CounterVec
	responseSize     *prometheus.HistogramVec
	inFlightRequests *prometheus.GaugeVec

	queryOperations *prometheus.CounterVec
	queryDuration   *prometheus.HistogramVec
}

// NewHTTPMetrics creates a new instance of HTTP metrics
func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swap_ingestor_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "path", "status"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swap_ingestor_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		responseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swap_ingestor_http_response_size_bytes",
				Help:    "Size of HTTP responses in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 4, 8),
			},
			[]string{"method", "path", "status"},
		),
		inFlightRequests: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "swap_ingestor_http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
			[]string{"method", "path"},
		),
		queryOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swap_ingestor_query_operations_total",
				Help: "Swap history reads by table and outcome",
			},
			[]string{"operation", "table", "status"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swap_ingestor_query_duration_seconds",
				Help:    "Duration of swap history reads in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"operation", "table", "status"},
		),
	}
}

// MustRegister registers all HTTP metrics with the provided registry
func (m *HTTPMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.requestDuration,
		m.requestsTotal,
		m.responseSize,
		m.inFlightRequests,
		m.queryOperations,
		m.queryDuration,
	)
}

// RecordQuery records one read against a swap table
func (m *HTTPMetrics) RecordQuery(operation, table, status string, duration float64) {
	m.queryOperations.WithLabelValues(operation, table, status).Inc()
	if duration > 0 {
		m.queryDuration.WithLabelValues(operation, table, status).Observe(duration)
	}
}

// HTTPMetricsMiddleware creates a Gin middleware for HTTP metrics collection.
// Unrouted paths share one label so scanners cannot blow up cardinality.
func HTTPMetricsMiddleware(metrics *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.inFlightRequests.WithLabelValues(method, path).Inc()
		defer metrics.inFlightRequests.WithLabelValues(method, path).Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		metrics.requestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		metrics.requestsTotal.WithLabelValues(method, path, status).Inc()
		if size := c.Writer.Size(); size > 0 {
			metrics.responseSize.WithLabelValues(method, path, status).Observe(float64(size))
		}
	}
}

// QueryMetricsRecorder is the handler-facing view of HTTPMetrics
type QueryMetricsRecorder struct {
	metrics *HTTPMetrics
}

func NewQueryMetricsRecorder(metrics *HTTPMetrics) *QueryMetricsRecorder {
	return &QueryMetricsRecorder{metrics: metrics}
}

// RecordSwapQuery records a swap listing read
func (r *QueryMetricsRecorder) RecordSwapQuery(table, status string, duration float64) {
	r.metrics.RecordQuery("swap_query", table, status, duration)
}

// RecordClosingPriceQuery records a closing price lookup
func (r *QueryMetricsRecorder) RecordClosingPriceQuery(status string, duration float64) {
	r.metrics.RecordQuery("closing_price", "closing_prices", status, duration)
}
