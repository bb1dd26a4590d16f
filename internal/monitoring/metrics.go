package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"

	"github.com/dwarvesf/swap-history/internal/consts"
)

// ExternalAPIMetrics contains all metrics for upstream feed calls
type ExternalAPIMetrics struct {
	apiDuration         *prometheus.HistogramVec
	apiCalls            *prometheus.CounterVec
	circuitBreakerState *prometheus.GaugeVec
	timeouts            *prometheus.CounterVec
}

// NewExternalAPIMetrics creates a new instance of external API metrics
func NewExternalAPIMetrics() *ExternalAPIMetrics {
	return &ExternalAPIMetrics{
		apiDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swap_ingestor_external_api_duration_seconds",
				Help:    "Duration of upstream feed calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"api_name", "endpoint", "status"},
		),
		apiCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swap_ingestor_external_api_calls_total",
				Help: "Total number of upstream feed calls",
			},
			[]string{"api_name", "status"},
		),
		circuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "swap_ingestor_circuit_breaker_state",
				Help: "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"api_name"},
		),
		timeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swap_ingestor_external_api_timeouts_total",
				Help: "Total number of upstream feed timeouts",
			},
			[]string{"api_name", "endpoint"},
		),
	}
}

// MustRegister registers all metrics with the provided registry
func (m *ExternalAPIMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.apiDuration,
		m.apiCalls,
		m.circuitBreakerState,
		m.timeouts,
	)
}

// RecordAPICall records an API call with duration and status
func (m *ExternalAPIMetrics) RecordAPICall(apiName, endpoint, status string, duration float64) {
	m.apiDuration.WithLabelValues(apiName, endpoint, status).Observe(duration)
	m.apiCalls.WithLabelValues(apiName, status).Inc()
}

// UpdateCircuitBreakerState updates the circuit breaker state metric
func (m *ExternalAPIMetrics) UpdateCircuitBreakerState(apiName string, state gobreaker.State) {
	m.circuitBreakerState.WithLabelValues(apiName).Set(float64(state))
}

// RecordTimeout records a timeout event
func (m *ExternalAPIMetrics) RecordTimeout(apiName, endpoint string) {
	m.timeouts.WithLabelValues(apiName, endpoint).Inc()
}

// IngestionMetrics tracks pipeline progress per source and pass
type IngestionMetrics struct {
	pagesFetched   *prometheus.CounterVec
	recordsLoaded  *prometheus.CounterVec
	recordsFailed  *prometheus.CounterVec
	recordsSkipped *prometheus.CounterVec
	pending        *prometheus.GaugeVec
	checkpoint     *prometheus.GaugeVec
}

func NewIngestionMetrics() *IngestionMetrics {
	return &IngestionMetrics{
		pagesFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swap_ingestor_pages_fetched_total",
				Help: "Upstream pages processed",
			},
			[]string{"source", "pass"},
		),
		recordsLoaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swap_ingestor_records_loaded_total",
				Help: "Records written or already present",
			},
			[]string{"source", "pass"},
		),
		recordsFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swap_ingestor_records_failed_total",
				Help: "Records the store rejected",
			},
			[]string{"source", "pass"},
		),
		recordsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swap_ingestor_records_skipped_total",
				Help: "Raw records dropped as malformed",
			},
			[]string{"source", "pass"},
		),
		pending: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "swap_ingestor_pending_transactions",
				Help: "Ids waiting for upstream finalization",
			},
			[]string{"source"},
		),
		checkpoint: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "swap_ingestor_checkpoint_writes_timestamp_seconds",
				Help: "Unix time of the last durable cursor write",
			},
			[]string{"source", "direction"},
		),
	}
}

func (m *IngestionMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.pagesFetched,
		m.recordsLoaded,
		m.recordsFailed,
		m.recordsSkipped,
		m.pending,
		m.checkpoint,
	)
}

func (m *IngestionMetrics) PageFetched(source consts.SourceKind, pass string) {
	m.pagesFetched.WithLabelValues(string(source), pass).Inc()
}

func (m *IngestionMetrics) RecordsLoaded(source consts.SourceKind, pass string, loaded, failed int) {
	m.recordsLoaded.WithLabelValues(string(source), pass).Add(float64(loaded))
	if failed > 0 {
		m.recordsFailed.WithLabelValues(string(source), pass).Add(float64(failed))
	}
}

func (m *IngestionMetrics) RecordsSkipped(source consts.SourceKind, pass string, n int) {
	if n > 0 {
		m.recordsSkipped.WithLabelValues(string(source), pass).Add(float64(n))
	}
}

func (m *IngestionMetrics) PendingSize(source consts.SourceKind, n int) {
	m.pending.WithLabelValues(string(source)).Set(float64(n))
}

func (m *IngestionMetrics) CheckpointWritten(source consts.SourceKind, dir consts.Direction, unix int64) {
	m.checkpoint.WithLabelValues(string(source), string(dir)).Set(float64(unix))
}
