package feed

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dwarvesf/swap-history/internal/utils/logger"
)

// RetryPolicy bounds how many times an upstream call is attempted.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Retry runs fn until it succeeds, returns a non retryable StatusError, or the
// attempt ceiling is hit. Exhaustion is reported as *ApiError.
func Retry[T any](ctx context.Context, l *logger.Logger, source, op string, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}

	attempts := 0
	operation := func() (T, error) {
		attempts++
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(policy.Delay), uint64(policy.MaxAttempts-1)),
		ctx,
	)

	res, err := backoff.RetryNotifyWithData(operation, b, func(err error, next time.Duration) {
		l.Error("["+op+"][Retry]", map[string]string{
			"source":  source,
			"error":   err.Error(),
			"attempt": strconv.Itoa(attempts),
			"next_in": next.String(),
		})
	})
	if err != nil {
		apiErr := &ApiError{Source: source, Op: op, Attempts: attempts, Err: err}
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			apiErr.StatusCode = statusErr.StatusCode
		}
		return res, apiErr
	}

	return res, nil
}
