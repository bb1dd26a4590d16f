package midgard

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"resty.dev/v3"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/feed"
	"github.com/dwarvesf/swap-history/internal/feed/gate"
	"github.com/dwarvesf/swap-history/internal/utils/config"
	"github.com/dwarvesf/swap-history/internal/utils/logger"
)

type midgard struct {
	source      string
	baseURL     string
	assetFilter string
	client      *resty.Client
	gate        *gate.Gate
	policy      feed.RetryPolicy
	logger      *logger.Logger
}

// New builds a client for one midgard backed source. Calls are serialized through g,
// which callers share between every client hitting the same upstream host.
func New(src config.SourceConfig, cfg config.MidgardConfig, g *gate.Gate, logger *logger.Logger) IMidgard {
	assetFilter := "notrade"
	if src.Notation == consts.AssetNotationTrade {
		assetFilter = "trade"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &midgard{
		source:      string(src.Kind),
		baseURL:     src.BaseURL,
		assetFilter: assetFilter,
		client:      resty.New().SetTimeout(timeout),
		gate:        g,
		policy:      feed.RetryPolicy{MaxAttempts: cfg.MaxAttempts, Delay: cfg.RetryDelay},
		logger:      logger,
	}
}

func (m *midgard) FetchLatest(ctx context.Context, fromTimestamp int64) (*ActionsResponse, error) {
	return m.fetch(ctx, "FetchLatest", map[string]string{
		"fromTimestamp": strconv.FormatInt(fromTimestamp, 10),
	})
}

func (m *midgard) FetchNextPage(ctx context.Context, nextPageToken string) (*ActionsResponse, error) {
	params := map[string]string{}
	if nextPageToken != "" {
		params["nextPageToken"] = nextPageToken
	}
	return m.fetch(ctx, "FetchNextPage", params)
}

func (m *midgard) FetchPrevPage(ctx context.Context, prevPageToken string) (*ActionsResponse, error) {
	return m.fetch(ctx, "FetchPrevPage", map[string]string{
		"prevPageToken": prevPageToken,
	})
}

func (m *midgard) FetchByTxID(ctx context.Context, txID string) (*ActionsResponse, error) {
	return m.fetch(ctx, "FetchByTxID", map[string]string{
		"txid": txID,
	})
}

func (m *midgard) Close() error {
	return m.client.Close()
}

func (m *midgard) fetch(ctx context.Context, op string, params map[string]string) (*ActionsResponse, error) {
	params["type"] = "swap"
	params["asset"] = m.assetFilter

	return feed.Retry(ctx, m.logger, m.source, op, m.policy, func(ctx context.Context) (*ActionsResponse, error) {
		var out ActionsResponse
		err := m.gate.Do(ctx, func(ctx context.Context) error {
			m.logger.Debug("["+op+"] fetching actions", map[string]string{
				"source": m.source,
				"params": formatParams(params),
			})

			resp, err := m.client.R().
				SetContext(ctx).
				SetQueryParams(params).
				SetResult(&out).
				Get(m.baseURL + "/actions")
			if err != nil {
				return errors.Wrap(err, "failed to request actions")
			}
			if resp.StatusCode() >= 400 {
				return &feed.StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
			}
			if out.Actions == nil {
				return errors.New("failed to decode actions response")
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &out, nil
	})
}

func formatParams(params map[string]string) string {
	s := ""
	for k, v := range params {
		if s != "" {
			s += "&"
		}
		s += k + "=" + v
	}
	return s
}
