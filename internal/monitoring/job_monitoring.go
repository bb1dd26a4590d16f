package monitoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dwarvesf/swap-history/internal/checkpoint"
	"github.com/dwarvesf/swap-history/internal/feed"
	"github.com/dwarvesf/swap-history/internal/store"
	"github.com/dwarvesf/swap-history/internal/utils/logger"
)

// JobExecutionStatus represents different job execution states
type JobExecutionStatus string

const (
	JobStatusPending JobExecutionStatus = "pending"
	JobStatusRunning JobExecutionStatus = "running"
	JobStatusSuccess JobExecutionStatus = "success"
	JobStatusFailed  JobExecutionStatus = "failed"
	JobStatusStalled JobExecutionStatus = "stalled"
)

// JobStatus contains complete status information for a background job
type JobStatus struct {
	JobName             string                 `json:"job_name"`
	Status              JobExecutionStatus     `json:"status"`
	LastRunTime         time.Time              `json:"last_run_time"`
	LastDuration        time.Duration          `json:"last_duration_ms"`
	NextRunTime         time.Time              `json:"next_run_time,omitempty"`
	SuccessCount        int64                  `json:"success_count"`
	FailureCount        int64                  `json:"failure_count"`
	ConsecutiveFailures int64                  `json:"consecutive_failures"`
	LastError           string                 `json:"last_error,omitempty"`
	AverageExecution    time.Duration          `json:"average_execution_ms"`
	MaxExecutionTime    time.Duration          `json:"max_execution_ms"`
	MinExecutionTime    time.Duration          `json:"min_execution_ms"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// JobsSummary provides an overview of all job statuses
type JobsSummary struct {
	TotalJobs      int       `json:"total_jobs"`
	RunningJobs    int       `json:"running_jobs"`
	HealthyJobs    int       `json:"healthy_jobs"`
	UnhealthyJobs  int       `json:"unhealthy_jobs"`
	StalledJobs    int       `json:"stalled_jobs"`
	LastUpdateTime time.Time `json:"last_update_time"`
}

// JobStatusManager tracks every scheduled pass. Safe for concurrent use.
type JobStatusManager struct {
	mu               sync.RWMutex
	statuses         map[string]*JobStatus
	logger           *logger.Logger
	metrics          *BackgroundJobMetrics
	stalledThreshold time.Duration
	cleanupInterval  time.Duration
	retentionPeriod  time.Duration
	stop             chan struct{}
	stopOnce         sync.Once
}

// NewJobStatusManager creates a manager and starts its stalled-job and cleanup loops.
// Backfill passes can legitimately run for a long time, hence the generous threshold.
func NewJobStatusManager(logger *logger.Logger, metrics *BackgroundJobMetrics) *JobStatusManager {
	jsm := &JobStatusManager{
		statuses:         make(map[string]*JobStatus),
		logger:           logger,
		metrics:          metrics,
		stalledThreshold: 2 * time.Hour,
		cleanupInterval:  1 * time.Hour,
		retentionPeriod:  7 * 24 * time.Hour,
		stop:             make(chan struct{}),
	}

	go jsm.loop(1*time.Minute, jsm.detectStalledJobs)
	go jsm.loop(jsm.cleanupInterval, jsm.cleanupOldStatuses)

	return jsm
}

// Stop ends the background loops.
func (jsm *JobStatusManager) Stop() {
	jsm.stopOnce.Do(func() { close(jsm.stop) })
}

func (jsm *JobStatusManager) loop(every time.Duration, fn func()) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-jsm.stop:
			return
		case <-ticker.C:
			fn()
		}
	}
}

func newJobStatus(jobName string, status JobExecutionStatus, now time.Time) *JobStatus {
	return &JobStatus{
		JobName:          jobName,
		Status:           status,
		Metadata:         make(map[string]interface{}),
		CreatedAt:        now,
		UpdatedAt:        now,
		MinExecutionTime: time.Duration(math.MaxInt64),
	}
}

// RegisterJob registers a new job for monitoring
func (jsm *JobStatusManager) RegisterJob(jobName string) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	if _, exists := jsm.statuses[jobName]; exists {
		return
	}
	jsm.statuses[jobName] = newJobStatus(jobName, JobStatusPending, time.Now())

	jsm.logger.Info("[RegisterJob] job registered for monitoring", map[string]string{
		"job_name": jobName,
	})
}

// SetNextRun records when the scheduler will fire the job next
func (jsm *JobStatusManager) SetNextRun(jobName string, next time.Time) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	if status, exists := jsm.statuses[jobName]; exists {
		status.NextRunTime = next
	}
}

// StartJob marks a job as started and updates its status
func (jsm *JobStatusManager) StartJob(jobName string) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	now := time.Now()
	status, exists := jsm.statuses[jobName]
	if !exists {
		status = newJobStatus(jobName, JobStatusRunning, now)
		jsm.statuses[jobName] = status
	}
	status.Status = JobStatusRunning
	status.LastRunTime = now
	status.UpdatedAt = now

	jsm.metrics.activeJobs.Inc()

	jsm.logger.Info("[StartJob] job started", map[string]string{
		"job_name":   jobName,
		"start_time": status.LastRunTime.Format(time.RFC3339),
	})
}

// CompleteJob marks a job as completed and updates all relevant statistics
func (jsm *JobStatusManager) CompleteJob(jobName string, err error, metadata map[string]interface{}) {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	status, exists := jsm.statuses[jobName]
	if !exists {
		jsm.logger.Error("[CompleteJob] attempted to complete unregistered job", map[string]string{
			"job_name": jobName,
		})
		return
	}

	duration := time.Since(status.LastRunTime)
	status.LastDuration = duration
	status.UpdatedAt = time.Now()

	if duration < status.MinExecutionTime {
		status.MinExecutionTime = duration
	}
	if duration > status.MaxExecutionTime {
		status.MaxExecutionTime = duration
	}

	totalRuns := status.SuccessCount + status.FailureCount
	status.AverageExecution = (status.AverageExecution*time.Duration(totalRuns) + duration) / time.Duration(totalRuns+1)

	if status.Metadata == nil {
		status.Metadata = make(map[string]interface{})
	}
	for key, value := range metadata {
		status.Metadata[key] = value
	}

	jsm.metrics.jobExecutionHistory.WithLabelValues(jobName, status.UpdatedAt.UTC().Format("2006-01-02")).Inc()

	if err != nil {
		status.Status = JobStatusFailed
		status.FailureCount++
		status.ConsecutiveFailures++
		status.LastError = err.Error()
		if _, ok := metadata["error_type"]; !ok {
			status.Metadata["error_type"] = classifyJobError(err)
		}

		jsm.metrics.jobRuns.WithLabelValues(jobName, "error").Inc()
		jsm.metrics.jobDuration.WithLabelValues(jobName, "failed").Observe(duration.Seconds())

		jsm.logger.Error("[CompleteJob] job failed", map[string]string{
			"job_name":             jobName,
			"duration":             duration.String(),
			"error":                err.Error(),
			"consecutive_failures": fmt.Sprintf("%d", status.ConsecutiveFailures),
		})
	} else {
		status.Status = JobStatusSuccess
		status.SuccessCount++
		status.ConsecutiveFailures = 0
		status.LastError = ""
		delete(status.Metadata, "error_type")

		jsm.metrics.jobRuns.WithLabelValues(jobName, "success").Inc()
		jsm.metrics.jobDuration.WithLabelValues(jobName, "success").Observe(duration.Seconds())

		jsm.logger.Info("[CompleteJob] job completed", map[string]string{
			"job_name": jobName,
			"duration": duration.String(),
		})
	}

	jsm.metrics.activeJobs.Dec()
}

func copyStatus(status *JobStatus) JobStatus {
	statusCopy := *status
	statusCopy.Metadata = make(map[string]interface{}, len(status.Metadata))
	for k, v := range status.Metadata {
		statusCopy.Metadata[k] = v
	}
	return statusCopy
}

// GetJobStatus returns a copy of the current status of a specific job
func (jsm *JobStatusManager) GetJobStatus(jobName string) (*JobStatus, bool) {
	jsm.mu.RLock()
	defer jsm.mu.RUnlock()

	status, exists := jsm.statuses[jobName]
	if !exists {
		return nil, false
	}
	statusCopy := copyStatus(status)
	return &statusCopy, true
}

// GetAllJobStatuses returns the current status of all jobs
func (jsm *JobStatusManager) GetAllJobStatuses() map[string]JobStatus {
	jsm.mu.RLock()
	defer jsm.mu.RUnlock()

	result := make(map[string]JobStatus, len(jsm.statuses))
	now := time.Now()

	for name, status := range jsm.statuses {
		statusCopy := copyStatus(status)
		if status.Status == JobStatusRunning && now.Sub(status.LastRunTime) > jsm.stalledThreshold {
			statusCopy.Status = JobStatusStalled
		}
		result[name] = statusCopy
	}

	return result
}

// GetJobsSummary returns a summary of all job statuses
func (jsm *JobStatusManager) GetJobsSummary() JobsSummary {
	statuses := jsm.GetAllJobStatuses()

	summary := JobsSummary{
		TotalJobs:      len(statuses),
		LastUpdateTime: time.Now(),
	}

	for _, status := range statuses {
		switch status.Status {
		case JobStatusRunning:
			summary.RunningJobs++
		case JobStatusSuccess:
			summary.HealthyJobs++
		case JobStatusFailed:
			summary.UnhealthyJobs++
		case JobStatusStalled:
			summary.StalledJobs++
		}
	}

	return summary
}

func (jsm *JobStatusManager) detectStalledJobs() {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	now := time.Now()
	stalledCount := 0

	for jobName, status := range jsm.statuses {
		if status.Status == JobStatusStalled {
			stalledCount++
			continue
		}
		if status.Status != JobStatusRunning || now.Sub(status.LastRunTime) <= jsm.stalledThreshold {
			continue
		}

		status.Status = JobStatusStalled
		status.UpdatedAt = now
		stalledCount++

		jsm.logger.Error("[detectStalledJobs] job detected as stalled", map[string]string{
			"job_name":      jobName,
			"last_run_time": status.LastRunTime.Format(time.RFC3339),
			"duration":      now.Sub(status.LastRunTime).String(),
		})
	}

	jsm.metrics.stalledJobs.Set(float64(stalledCount))
}

// cleanupOldStatuses drops statuses nobody has touched within the retention period
func (jsm *JobStatusManager) cleanupOldStatuses() {
	jsm.mu.Lock()
	defer jsm.mu.Unlock()

	cutoff := time.Now().Add(-jsm.retentionPeriod)
	cleaned := 0

	for jobName, status := range jsm.statuses {
		if status.UpdatedAt.Before(cutoff) && status.Status != JobStatusRunning {
			delete(jsm.statuses, jobName)
			cleaned++
		}
	}

	if cleaned > 0 {
		jsm.logger.Info("[cleanupOldStatuses] cleaned up old job statuses", map[string]string{
			"cleaned_count": fmt.Sprintf("%d", cleaned),
		})
	}
}

// JobFunc is one scheduled pass. It must return once ctx is done.
type JobFunc func(ctx context.Context) error

// UptimeNotifier pings an external uptime monitor after a successful run.
type UptimeNotifier interface {
	CallUptimeWebhook(ctx context.Context, webhookURL string)
}

// InstrumentedJob wraps a pass with status tracking, a timeout, panic recovery and
// an optional uptime ping. It satisfies cron.Job.
type InstrumentedJob struct {
	jobName       string
	jobFunc       JobFunc
	statusManager *JobStatusManager
	logger        *logger.Logger
	timeout       time.Duration
	notifier      UptimeNotifier
	webhookURL    string
}

// NewInstrumentedJob creates a new instrumented job wrapper
func NewInstrumentedJob(
	jobName string,
	jobFunc JobFunc,
	statusManager *JobStatusManager,
	logger *logger.Logger,
	timeout time.Duration,
) *InstrumentedJob {
	statusManager.RegisterJob(jobName)

	return &InstrumentedJob{
		jobName:       jobName,
		jobFunc:       jobFunc,
		statusManager: statusManager,
		logger:        logger,
		timeout:       timeout,
	}
}

// NewInstrumentedJobWithWebhook is NewInstrumentedJob plus an uptime ping on every
// successful run. An empty webhookURL disables the ping.
func NewInstrumentedJobWithWebhook(
	jobName string,
	jobFunc JobFunc,
	statusManager *JobStatusManager,
	logger *logger.Logger,
	timeout time.Duration,
	notifier UptimeNotifier,
	webhookURL string,
) *InstrumentedJob {
	ij := NewInstrumentedJob(jobName, jobFunc, statusManager, logger, timeout)
	ij.notifier = notifier
	ij.webhookURL = webhookURL
	return ij
}

func (ij *InstrumentedJob) Name() string {
	return ij.jobName
}

// Run implements cron.Job.
func (ij *InstrumentedJob) Run() {
	ij.Execute(context.Background())
}

// Execute runs the job with monitoring, timeout, and panic recovery. Failures are
// recorded and logged, never returned.
func (ij *InstrumentedJob) Execute(parent context.Context) {
	ij.statusManager.StartJob(ij.jobName)

	ctx, cancel := context.WithTimeout(parent, ij.timeout)
	defer cancel()

	type outcome struct {
		err      error
		metadata map[string]interface{}
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ij.logger.Error("[InstrumentedJob][Execute] job panicked", map[string]string{
					"job_name": ij.jobName,
					"panic":    fmt.Sprintf("%v", r),
				})
				done <- outcome{
					err: fmt.Errorf("job panicked: %v", r),
					metadata: map[string]interface{}{
						"panic":       fmt.Sprintf("%v", r),
						"stack_trace": string(debug.Stack()),
						"error_type":  "panic",
					},
				}
			}
		}()
		done <- outcome{err: ij.jobFunc(ctx)}
	}()

	var res outcome
	select {
	case res = <-done:
		if res.err != nil && res.metadata == nil {
			res.metadata = map[string]interface{}{
				"error_type": classifyJobError(res.err),
			}
		}
	case <-ctx.Done():
		ij.statusManager.metrics.jobTimeouts.WithLabelValues(ij.jobName).Inc()
		res = outcome{
			err: fmt.Errorf("job timeout after %v", ij.timeout),
			metadata: map[string]interface{}{
				"error_type": "timeout",
				"timeout":    ij.timeout.String(),
			},
		}
	}

	ij.statusManager.CompleteJob(ij.jobName, res.err, res.metadata)

	if res.err == nil && ij.notifier != nil && ij.webhookURL != "" {
		ij.notifier.CallUptimeWebhook(parent, ij.webhookURL)
	}
}

// BackgroundJobMetrics contains all Prometheus metrics for background job monitoring
type BackgroundJobMetrics struct {
	jobDuration         *prometheus.HistogramVec
	jobRuns             *prometheus.CounterVec
	activeJobs          prometheus.Gauge
	stalledJobs         prometheus.Gauge
	jobExecutionHistory *prometheus.CounterVec
	jobTimeouts         *prometheus.CounterVec
}

// NewBackgroundJobMetrics creates a new instance of background job metrics
func NewBackgroundJobMetrics() *BackgroundJobMetrics {
	return &BackgroundJobMetrics{
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swap_ingestor_job_duration_seconds",
				Help:    "Scheduled pass duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 300, 600, 1800, 3600},
			},
			[]string{"job_name", "status"},
		),
		jobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swap_ingestor_job_runs_total",
				Help: "Total number of scheduled pass runs",
			},
			[]string{"job_name", "status"},
		),
		activeJobs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "swap_ingestor_jobs_active",
				Help: "Number of currently running passes",
			},
		),
		stalledJobs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "swap_ingestor_jobs_stalled",
				Help: "Number of stalled passes",
			},
		),
		jobExecutionHistory: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swap_ingestor_job_execution_history_total",
				Help: "Pass executions per UTC day",
			},
			[]string{"job_name", "date"},
		),
		jobTimeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swap_ingestor_job_timeouts_total",
				Help: "Total pass timeouts",
			},
			[]string{"job_name"},
		),
	}
}

// MustRegister registers all background job metrics with the provided registry
func (m *BackgroundJobMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.jobDuration,
		m.jobRuns,
		m.activeJobs,
		m.stalledJobs,
		m.jobExecutionHistory,
		m.jobTimeouts,
	)
}

// classifyJobError maps a pass failure to a coarse bucket for status metadata
func classifyJobError(err error) string {
	if err == nil {
		return ""
	}

	var (
		apiErr  *feed.ApiError
		dbErr   *store.DatabaseError
		fileErr *checkpoint.FileError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &dbErr):
		return "database"
	case errors.As(err, &fileErr):
		return "checkpoint"
	case errors.As(err, &apiErr):
		return "external_api"
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline"):
		return "timeout"
	case strings.Contains(errStr, "circuit breaker"):
		return "external_api"
	case strings.Contains(errStr, "database"), strings.Contains(errStr, "sql"):
		return "database"
	case strings.Contains(errStr, "connection"), strings.Contains(errStr, "network"):
		return "network"
	case strings.Contains(errStr, "panic"):
		return "panic"
	default:
		return "unknown"
	}
}
