package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/monitoring"
)

func scrape(t *testing.T, h *MetricsHandler) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/metrics", h.Handler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return w
}

func TestMetricsHandler_ServesIngestionMetrics(t *testing.T) {
	ingestion := monitoring.NewIngestionMetrics()
	registry := NewRegistry(ingestion, monitoring.NewExternalAPIMetrics())

	ingestion.PageFetched(consts.SourceNative, "live_tail")
	ingestion.RecordsLoaded(consts.SourceNative, "live_tail", 7, 1)
	ingestion.PendingSize(consts.SourceTrade, 3)

	w := scrape(t, NewMetricsHandler(registry))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "# TYPE swap_ingestor_pages_fetched_total counter")
	assert.Contains(t, body, `swap_ingestor_records_loaded_total{pass="live_tail",source="native"} 7`)
	assert.Contains(t, body, `swap_ingestor_pending_transactions{source="trade"} 3`)
	assert.Contains(t, body, "go_goroutines")

	contentType := w.Header().Get("Content-Type")
	assert.True(t,
		strings.Contains(contentType, "text/plain") ||
			strings.Contains(contentType, "application/openmetrics-text"),
		"Expected Prometheus metrics content type, got: %s", contentType)
}

func TestMetricsHandler_EmptyRegistry(t *testing.T) {
	w := scrape(t, NewMetricsHandler(NewRegistry()))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "swap_ingestor_")
}

func TestNewRegistry_DuplicateSetPanics(t *testing.T) {
	ingestion := monitoring.NewIngestionMetrics()

	assert.Panics(t, func() {
		NewRegistry(ingestion, ingestion)
	})
}
