package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dwarvesf/swap-history/internal/feed"
	"github.com/dwarvesf/swap-history/internal/feed/chainflip"
	"github.com/dwarvesf/swap-history/internal/feed/midgard"
	"github.com/dwarvesf/swap-history/internal/utils/logger"
)

// breaker is the shared gobreaker state behind one upstream feed
type breaker struct {
	name           string
	circuitBreaker *gobreaker.CircuitBreaker
	metrics        *ExternalAPIMetrics
	logger         *logger.Logger
	timeoutConfig  TimeoutConfig
}

func newBreaker(name string, config CircuitBreakerConfig, timeoutConfig TimeoutConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *breaker {
	b := &breaker{
		name:          name,
		metrics:       metrics,
		logger:        logger,
		timeoutConfig: timeoutConfig,
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(config.ConsecutiveFailureThreshold)
		},
		// a cancelled caller says nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state change", map[string]string{
				"service": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			metrics.UpdateCircuitBreakerState(name, to)
		},
	}

	b.circuitBreaker = gobreaker.NewCircuitBreaker(settings)
	metrics.UpdateCircuitBreakerState(name, gobreaker.StateClosed)
	return b
}

// State reports the current breaker state
func (b *breaker) State() gobreaker.State {
	return b.circuitBreaker.State()
}

// call runs fn through the breaker under the request timeout and records the outcome
func call[T any](ctx context.Context, b *breaker, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	start := time.Now()

	result, err := b.circuitBreaker.Execute(func() (interface{}, error) {
		callCtx := ctx
		if b.timeoutConfig.RequestTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, b.timeoutConfig.RequestTimeout)
			defer cancel()
		}

		out, err := fn(callCtx)
		if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			b.metrics.RecordTimeout(b.name, operation)
			return out, fmt.Errorf("timeout after %s: %w", b.timeoutConfig.RequestTimeout, err)
		}
		return out, err
	})

	duration := time.Since(start).Seconds()
	status := "success"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status = "rejected"
	case err != nil:
		status = "error"
	}
	b.metrics.RecordAPICall(b.name, operation, status, duration)

	if err != nil {
		b.logError(operation, duration, err)
		var zero T
		return zero, err
	}

	out, _ := result.(T)
	return out, nil
}

func (b *breaker) logError(operation string, duration float64, err error) {
	b.logger.Error("External API call failed", map[string]string{
		"service":    b.name,
		"operation":  operation,
		"duration":   strconv.FormatFloat(duration, 'f', 3, 64),
		"error":      err.Error(),
		"error_type": string(classifyError(err)),
		"cb_state":   b.circuitBreaker.State().String(),
	})
}

// CircuitBreakerMidgard wraps midgard.IMidgard with circuit breaker functionality
type CircuitBreakerMidgard struct {
	*breaker
	wrapped midgard.IMidgard
}

// NewCircuitBreakerMidgard creates a circuit breaker wrapper for one midgard source.
// name labels the breaker in logs and metrics, e.g. "midgard_native".
func NewCircuitBreakerMidgard(name string, wrapped midgard.IMidgard, config CircuitBreakerConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *CircuitBreakerMidgard {
	return NewCircuitBreakerMidgardWithTimeout(name, wrapped, config, DefaultTimeoutConfig, metrics, logger)
}

func NewCircuitBreakerMidgardWithTimeout(name string, wrapped midgard.IMidgard, config CircuitBreakerConfig, timeoutConfig TimeoutConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *CircuitBreakerMidgard {
	return &CircuitBreakerMidgard{
		breaker: newBreaker(name, config, timeoutConfig, metrics, logger),
		wrapped: wrapped,
	}
}

func (cb *CircuitBreakerMidgard) FetchLatest(ctx context.Context, fromTimestamp int64) (*midgard.ActionsResponse, error) {
	return call(ctx, cb.breaker, "fetch_latest", func(ctx context.Context) (*midgard.ActionsResponse, error) {
		return cb.wrapped.FetchLatest(ctx, fromTimestamp)
	})
}

func (cb *CircuitBreakerMidgard) FetchNextPage(ctx context.Context, nextPageToken string) (*midgard.ActionsResponse, error) {
	return call(ctx, cb.breaker, "fetch_next_page", func(ctx context.Context) (*midgard.ActionsResponse, error) {
		return cb.wrapped.FetchNextPage(ctx, nextPageToken)
	})
}

func (cb *CircuitBreakerMidgard) FetchPrevPage(ctx context.Context, prevPageToken string) (*midgard.ActionsResponse, error) {
	return call(ctx, cb.breaker, "fetch_prev_page", func(ctx context.Context) (*midgard.ActionsResponse, error) {
		return cb.wrapped.FetchPrevPage(ctx, prevPageToken)
	})
}

func (cb *CircuitBreakerMidgard) FetchByTxID(ctx context.Context, txID string) (*midgard.ActionsResponse, error) {
	return call(ctx, cb.breaker, "fetch_by_tx_id", func(ctx context.Context) (*midgard.ActionsResponse, error) {
		return cb.wrapped.FetchByTxID(ctx, txID)
	})
}

func (cb *CircuitBreakerMidgard) Close() error {
	return cb.wrapped.Close()
}

// CircuitBreakerChainflip wraps chainflip.IChainflip with circuit breaker functionality
type CircuitBreakerChainflip struct {
	*breaker
	wrapped chainflip.IChainflip
}

func NewCircuitBreakerChainflip(wrapped chainflip.IChainflip, config CircuitBreakerConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *CircuitBreakerChainflip {
	return NewCircuitBreakerChainflipWithTimeout(wrapped, config, DefaultTimeoutConfig, metrics, logger)
}

func NewCircuitBreakerChainflipWithTimeout(wrapped chainflip.IChainflip, config CircuitBreakerConfig, timeoutConfig TimeoutConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *CircuitBreakerChainflip {
	return &CircuitBreakerChainflip{
		breaker: newBreaker("chainflip", config, timeoutConfig, metrics, logger),
		wrapped: wrapped,
	}
}

func (cb *CircuitBreakerChainflip) FetchSwaps(ctx context.Context, first, offset int) (*chainflip.SwapRequests, error) {
	return call(ctx, cb.breaker, "fetch_swaps", func(ctx context.Context) (*chainflip.SwapRequests, error) {
		return cb.wrapped.FetchSwaps(ctx, first, offset)
	})
}

func (cb *CircuitBreakerChainflip) Close() error {
	return cb.wrapped.Close()
}

// classifyError classifies errors into different types for metrics and logging
func classifyError(err error) APIErrorType {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorTypeTimeout
	}

	var apiErr *feed.ApiError
	if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
		return classifyStatus(apiErr.StatusCode)
	}
	var statusErr *feed.StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorTypeTimeout
		}
		return ErrorTypeNetworkError
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded") {
		return ErrorTypeTimeout
	}

	if strings.Contains(errMsg, "decode") ||
		strings.Contains(errMsg, "unmarshal") ||
		strings.Contains(errMsg, "invalid character") {
		return ErrorTypeDecodeError
	}

	if strings.Contains(errMsg, "network") ||
		strings.Contains(errMsg, "connection") ||
		strings.Contains(errMsg, "unreachable") ||
		strings.Contains(errMsg, "dns") {
		return ErrorTypeNetworkError
	}

	return ErrorTypeUnknown
}

func classifyStatus(code int) APIErrorType {
	switch {
	case code >= 500:
		return ErrorTypeServerError
	case code >= 400:
		return ErrorTypeClientError
	default:
		return ErrorTypeUnknown
	}
}

// validateCircuitBreakerConfig validates circuit breaker configuration
func validateCircuitBreakerConfig(config CircuitBreakerConfig) error {
	if config.MaxRequests == 0 {
		return fmt.Errorf("max_requests must be greater than 0")
	}

	if config.ConsecutiveFailureThreshold <= 0 {
		return fmt.Errorf("consecutive_failure_threshold must be greater than 0")
	}

	if config.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}

	if config.Interval < 0 {
		return fmt.Errorf("interval must be non-negative")
	}

	return nil
}

// BreakerFor returns the configured settings for name, falling back to the midgard
// defaults when the config is missing or invalid.
func BreakerFor(name string) CircuitBreakerConfig {
	if cfg, ok := CircuitBreakerConfigs[name]; ok && validateCircuitBreakerConfig(cfg) == nil {
		return cfg
	}
	return CircuitBreakerConfigs["midgard"]
}
