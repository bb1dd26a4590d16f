package coingecko

import (
	"context"
	"time"
)

type ICoinGecko interface {
	// FetchUSDPrice returns the USD price of a coin at 00:00 UTC of date.
	FetchUSDPrice(ctx context.Context, coinID string, date time.Time) (float64, error)
	Close() error
}
