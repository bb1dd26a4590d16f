package health

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
	"gorm.io/gorm"

	"github.com/dwarvesf/swap-history/internal/monitoring"
	"github.com/dwarvesf/swap-history/internal/utils/config"
	"github.com/dwarvesf/swap-history/internal/utils/logger"
)

// HealthHandler implements IHealthHandler interface
type HealthHandler struct {
	config           *config.AppConfig
	logger           *logger.Logger
	db               *gorm.DB
	upstreams        map[string]BreakerState
	pending          PendingSizer
	jobStatusManager *monitoring.JobStatusManager
}

// New creates a new health handler instance. upstreams is keyed by breaker name.
func New(config *config.AppConfig, logger *logger.Logger, db *gorm.DB, upstreams map[string]BreakerState, pending PendingSizer, jobStatusManager *monitoring.JobStatusManager) IHealthHandler {
	return &HealthHandler{
		config:           config,
		logger:           logger,
		db:               db,
		upstreams:        upstreams,
		pending:          pending,
		jobStatusManager: jobStatusManager,
	}
}

// Basic handles the basic health check endpoint (/healthz)
// @Summary Basic health check
// @Description Returns basic system availability status
// @Tags health
// @Produce json
// @Success 200 {object} BasicHealthResponse
// @Router /healthz [get]
func (h *HealthHandler) Basic(c *gin.Context) {
	c.JSON(http.StatusOK, BasicHealthResponse{Message: "ok"})
}

// Database handles the database health check endpoint
// @Summary Database health check
// @Description Validates database connectivity and connection pool usage
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /api/v1/health/db [get]
func (h *HealthHandler) Database(c *gin.Context) {
	start := time.Now()

	response := HealthResponse{
		Timestamp: start,
		Checks:    make(map[string]HealthCheck),
	}

	ctx := context.Background()
	if c.Request != nil {
		ctx = c.Request.Context()
	}

	dbCheck := h.checkDatabase(ctx)
	response.Checks["database"] = dbCheck
	response.DurationMs = time.Since(start).Milliseconds()

	if dbCheck.Status == "healthy" {
		response.Status = "healthy"
		c.JSON(http.StatusOK, response)
		return
	}
	response.Status = "unhealthy"
	c.JSON(http.StatusServiceUnavailable, response)
}

// External reports the circuit breaker state of every upstream feed. It never calls
// the feeds, so it stays cheap enough for frequent probes.
// @Summary Upstream feeds health check
// @Description Reports the circuit breaker state of every upstream feed
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /api/v1/health/external [get]
func (h *HealthHandler) External(c *gin.Context) {
	start := time.Now()

	response := HealthResponse{
		Timestamp: start,
		Checks:    make(map[string]HealthCheck),
	}

	names := make([]string, 0, len(h.upstreams))
	for name := range h.upstreams {
		names = append(names, name)
	}
	sort.Strings(names)

	allHealthy := true
	for _, name := range names {
		check := checkBreaker(h.upstreams[name])
		if check.Status != "healthy" {
			allHealthy = false
		}
		response.Checks[name] = check
	}
	response.DurationMs = time.Since(start).Milliseconds()

	if allHealthy {
		response.Status = "healthy"
		c.JSON(http.StatusOK, response)
		return
	}
	response.Status = "unhealthy"
	c.JSON(http.StatusServiceUnavailable, response)
}

func checkBreaker(b BreakerState) HealthCheck {
	check := HealthCheck{Metadata: make(map[string]interface{})}
	if b == nil {
		check.Status = "unhealthy"
		check.Error = "feed not configured"
		return check
	}

	state := b.State()
	check.Metadata["circuit_breaker"] = state.String()
	switch state {
	case gobreaker.StateOpen:
		check.Status = "unhealthy"
		check.Error = "circuit breaker open"
	case gobreaker.StateHalfOpen:
		check.Status = "degraded"
	default:
		check.Status = "healthy"
	}
	return check
}

// checkDatabase performs database health validation
func (h *HealthHandler) checkDatabase(ctx context.Context) HealthCheck {
	start := time.Now()

	check := HealthCheck{
		Metadata: make(map[string]interface{}),
	}

	if h.db == nil {
		check.Status = "unhealthy"
		check.Error = "database connection not available"
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		check.Status = "unhealthy"
		check.Error = fmt.Sprintf("failed to get underlying database: %v", err)
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		check.Status = "unhealthy"
		if pingCtx.Err() == context.DeadlineExceeded {
			check.Error = "timeout"
		} else {
			check.Error = err.Error()
		}
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	stats := sqlDB.Stats()

	check.Status = "healthy"
	check.Latency = time.Since(start).Milliseconds()
	check.Metadata["driver"] = "postgres"
	check.Metadata["connection_pool"] = map[string]interface{}{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"max_open":         stats.MaxOpenConnections,
	}

	return check
}
