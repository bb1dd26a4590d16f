package http

import (
	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/swap-history/internal/handler"
	"github.com/dwarvesf/swap-history/internal/utils/config"
	"github.com/dwarvesf/swap-history/internal/utils/logger"
)

func loadV1Routes(r *gin.Engine, h *handler.Handler, appConfig *config.AppConfig, logger *logger.Logger) {
	v1 := r.Group("/api/v1")

	v1.POST("/swaps", h.SwapHistoryHandler.ListSwaps)
	v1.GET("/closing-prices/:date", h.SwapHistoryHandler.GetClosingPrice)

	health := v1.Group("/health")
	{
		health.GET("/db", h.HealthHandler.Database)
		health.GET("/external", h.HealthHandler.External)
		health.GET("/jobs", h.HealthHandler.Jobs)
	}

	// health check
	r.GET("/healthz", h.HealthHandler.Basic)
}
