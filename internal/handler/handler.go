package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/dwarvesf/swap-history/internal/handler/health"
	"github.com/dwarvesf/swap-history/internal/handler/metrics"
	"github.com/dwarvesf/swap-history/internal/handler/swaphistory"
	"github.com/dwarvesf/swap-history/internal/monitoring"
	"github.com/dwarvesf/swap-history/internal/store"
	"github.com/dwarvesf/swap-history/internal/utils/config"
	"github.com/dwarvesf/swap-history/internal/utils/logger"
)

type Handler struct {
	SwapHistoryHandler swaphistory.IHandler
	HealthHandler      health.IHealthHandler
	MetricsHandler     *metrics.MetricsHandler
}

// Upstreams groups what the handlers report about the ingestion side.
type Upstreams struct {
	Breakers         map[string]health.BreakerState
	Pending          health.PendingSizer
	JobStatusManager *monitoring.JobStatusManager
}

func New(appConfig *config.AppConfig, logger *logger.Logger,
	db *gorm.DB,
	s *store.Store,
	upstreams Upstreams,
	queryMetrics swaphistory.QueryRecorder,
	gatherer prometheus.Gatherer) *Handler {
	return &Handler{
		SwapHistoryHandler: swaphistory.New(db, s, appConfig, logger, queryMetrics),
		HealthHandler:      health.New(appConfig, logger, db, upstreams.Breakers, upstreams.Pending, upstreams.JobStatusManager),
		MetricsHandler:     metrics.NewMetricsHandler(gatherer),
	}
}
