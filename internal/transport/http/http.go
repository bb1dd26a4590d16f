package http

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"     // swagger embed files
	ginSwagger "github.com/swaggo/gin-swagger" // gin-swagger middleware

	"github.com/dwarvesf/swap-history/internal/handler"
	"github.com/dwarvesf/swap-history/internal/monitoring"
	"github.com/dwarvesf/swap-history/internal/utils/config"
	"github.com/dwarvesf/swap-history/internal/utils/logger"
)

func setupCORS(r *gin.Engine, cfg *config.AppConfig) {
	corsOrigins := strings.Split(cfg.ApiServer.AllowedOrigins, ";")
	r.Use(cors.New(
		cors.Config{
			AllowOrigins: corsOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS", "HEAD"},
			AllowHeaders: []string{
				"Origin", "Host", "Content-Type", "Content-Length", "Accept-Encoding", "Accept-Language", "Accept",
				"X-Requested-With",
			},
		},
	))
}

func NewHttpServer(appConfig *config.AppConfig, logger *logger.Logger, h *handler.Handler, httpMetrics *monitoring.HTTPMetrics) *gin.Engine {
	if appConfig.Environment.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"),
		gin.Recovery(),
		monitoring.HTTPMetricsMiddleware(httpMetrics),
	)
	if appConfig.ApiServer.AllowedOrigins != "" {
		setupCORS(r, appConfig)
	}

	// use ginSwagger middleware to serve the API docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", h.MetricsHandler.Handler())

	// load api
	loadV1Routes(r, h, appConfig, logger)

	return r
}
