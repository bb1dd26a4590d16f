package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/swap-history/internal/types/environments"
	"github.com/dwarvesf/swap-history/internal/utils/logger"
)

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	res, err := Retry(context.Background(), logger.New(environments.Test), "midgard", "FetchPage",
		RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond},
		func(ctx context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("connection reset")
			}
			return "ok", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, 3, calls)
}

func TestRetry_ExhaustionReturnsApiError(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), logger.New(environments.Test), "midgard", "FetchPage",
		RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond},
		func(ctx context.Context) (int, error) {
			calls++
			return 0, &StatusError{StatusCode: 503}
		})

	var apiErr *ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 3, apiErr.Attempts)
	assert.Equal(t, 503, apiErr.StatusCode)
	assert.Equal(t, 3, calls)
}

func TestRetry_ClientErrorIsNotRetried(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), logger.New(environments.Test), "midgard", "FetchPage",
		RetryPolicy{MaxAttempts: 5, Delay: time.Millisecond},
		func(ctx context.Context) (int, error) {
			calls++
			return 0, &StatusError{StatusCode: 400}
		})

	var apiErr *ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 400, apiErr.StatusCode)
}
