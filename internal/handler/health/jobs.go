package health

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/swap-history/internal/monitoring"
)

// live tail passes keep the tables current, so repeated failures there are critical
const criticalJobSuffix = "_live_tail"

// Jobs handles the background jobs health check endpoint
// @Summary Background jobs health check
// @Description Validates ingestion pass status and pending queue sizes
// @Tags health
// @Produce json
// @Success 200 {object} JobsHealthResponse
// @Success 206 {object} JobsHealthResponse
// @Failure 503 {object} JobsHealthResponse
// @Router /api/v1/health/jobs [get]
func (h *HealthHandler) Jobs(c *gin.Context) {
	start := time.Now()

	if h.jobStatusManager == nil {
		response := JobsHealthResponse{
			Status:     "unhealthy",
			Timestamp:  time.Now(),
			Jobs:       make(map[string]monitoring.JobStatus),
			Summary:    monitoring.JobsSummary{},
			DurationMs: time.Since(start).Milliseconds(),
		}
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	jobs := h.jobStatusManager.GetAllJobStatuses()
	summary := h.jobStatusManager.GetJobsSummary()

	overallStatus := "healthy"
	if summary.StalledJobs > 0 {
		overallStatus = "unhealthy"
	} else if summary.UnhealthyJobs > 0 {
		overallStatus = "degraded"
		for name, job := range jobs {
			if strings.HasSuffix(name, criticalJobSuffix) &&
				job.Status == monitoring.JobStatusFailed &&
				job.ConsecutiveFailures > 2 {
				overallStatus = "unhealthy"
				break
			}
		}
	}

	response := JobsHealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Jobs:       jobs,
		Summary:    summary,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if h.pending != nil {
		response.Pending = make(map[string]int)
		for kind, n := range h.pending.Sizes() {
			response.Pending[string(kind)] = n
		}
	}

	statusCode := http.StatusOK
	switch overallStatus {
	case "unhealthy":
		statusCode = http.StatusServiceUnavailable
	case "degraded":
		statusCode = http.StatusPartialContent
	}

	h.logger.Info("Jobs health check completed", map[string]string{
		"overall_status": overallStatus,
		"duration":       fmt.Sprintf("%dms", response.DurationMs),
		"total_jobs":     fmt.Sprintf("%d", summary.TotalJobs),
		"unhealthy_jobs": fmt.Sprintf("%d", summary.UnhealthyJobs),
		"stalled_jobs":   fmt.Sprintf("%d", summary.StalledJobs),
		"running_jobs":   fmt.Sprintf("%d", summary.RunningJobs),
	})

	c.JSON(statusCode, response)
}
