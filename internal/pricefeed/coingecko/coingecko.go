package coingecko

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"resty.dev/v3"

	"github.com/dwarvesf/swap-history/internal/feed"
	"github.com/dwarvesf/swap-history/internal/utils/config"
	"github.com/dwarvesf/swap-history/internal/utils/logger"
)

const historyDateLayout = "02-01-2006"

type coinGecko struct {
	client *resty.Client
	cache  *cache.Cache
	policy feed.RetryPolicy
	logger *logger.Logger
}

func New(cfg config.CoinGeckoConfig, logger *logger.Logger) ICoinGecko {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(10*time.Second).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("x-cg-demo-api-key", cfg.APIKey)
	}

	return &coinGecko{
		client: client,
		cache:  cache.New(24*time.Hour, time.Hour),
		policy: feed.RetryPolicy{MaxAttempts: 3, Delay: 2 * time.Second},
		logger: logger,
	}
}

func (c *coinGecko) FetchUSDPrice(ctx context.Context, coinID string, date time.Time) (float64, error) {
	day := date.UTC().Format(historyDateLayout)
	key := "price:" + coinID + ":" + day
	if v, ok := c.cache.Get(key); ok {
		return v.(float64), nil
	}

	price, err := feed.Retry(ctx, c.logger, "coingecko", "FetchUSDPrice", c.policy, func(ctx context.Context) (float64, error) {
		var out historyResponse
		resp, err := c.client.R().
			SetContext(ctx).
			SetPathParam("id", coinID).
			SetQueryParam("date", day).
			SetResult(&out).
			Get("/coins/{id}/history")
		if err != nil {
			return 0, errors.Wrap(err, "failed to request coin history")
		}
		if resp.StatusCode() >= 400 {
			return 0, &feed.StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
		}
		if out.MarketData == nil {
			return 0, errors.Errorf("no market data for %s on %s", coinID, day)
		}
		return out.MarketData.CurrentPrice.USD, nil
	})
	if err != nil {
		return 0, err
	}

	c.cache.Set(key, price, cache.DefaultExpiration)
	return price, nil
}

func (c *coinGecko) Close() error {
	return c.client.Close()
}
