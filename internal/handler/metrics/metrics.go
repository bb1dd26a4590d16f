package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registrar is a metric set that knows how to register itself.
type Registrar interface {
	MustRegister(registry *prometheus.Registry)
}

// NewRegistry builds the registry served on /metrics, with the Go runtime and
// process collectors next to every given metric set.
func NewRegistry(sets ...Registrar) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, set := range sets {
		set.MustRegister(registry)
	}
	return registry
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct {
	gatherer prometheus.Gatherer
}

func NewMetricsHandler(gatherer prometheus.Gatherer) *MetricsHandler {
	return &MetricsHandler{
		gatherer: gatherer,
	}
}

// Handler serves whatever gathers cleanly; a broken collector does not blank the page.
func (h *MetricsHandler) Handler() gin.HandlerFunc {
	handler := promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})

	return gin.WrapH(handler)
}
