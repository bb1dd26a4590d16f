package chainflip

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

const operationName = "GetAllSwaps"

const swapsQuery = `
query GetAllSwaps($first: Int, $offset: Int) {
  allSwapRequests(
    orderBy: [SWAP_REQUEST_NATIVE_ID_DESC]
    offset: $offset
    first: $first
    filter: {isInternal: {equalTo: false}}
  ) {
    pageInfo {
      hasPreviousPage
      startCursor
      hasNextPage
      endCursor
    }
    edges {
      node {
        id
        swapRequestNativeId
        sourceAsset
        destAsset
        ingressAmount
        ingressValueUsd
        egressAmount
        egressValueUsd
        destinationAddress
        refundAddress
        status
        isInProgress
        startedBlockTimestamp
        completedBlockTimestamp
      }
    }
    totalCount
  }
}`

type chainflip struct {
	url      string
	pageSize int
	client   *resty.Client
	gate     *gate.Gate
	policy   feed.RetryPolicy
	logger   *logger.Logger
}

func New(cfg config.ChainflipConfig, g *gate.Gate, logger *logger.Logger) IChainflip {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &chainflip{
		url:      cfg.GraphQLURL,
		pageSize: cfg.PageSize,
		client:   resty.New().SetTimeout(timeout),
		gate:     g,
		policy:   feed.RetryPolicy{MaxAttempts: cfg.MaxAttempts, Delay: 500 * time.Millisecond},
		logger:   logger,
	}
}

func (c *chainflip) Close() error {
	return c.client.Close()
}

func (c *chainflip) FetchSwaps(ctx context.Context, first, offset int) (*SwapRequests, error) {
	if first <= 0 {
		first = c.pageSize
	}
	if first <= 0 {
		first = 30
	}

	body := graphQLRequest{
		Query: swapsQuery,
		Variables: map[string]any{
			"first":  first,
			"offset": offset,
		},
		OperationName: operationName,
	}

	return feed.Retry(ctx, c.logger, string(consts.SourceChainflip), "FetchSwaps", c.policy, func(ctx context.Context) (*SwapRequests, error) {
		var out SwapsResponse
		err := c.gate.Do(ctx, func(ctx context.Context) error {
			c.logger.Debug("[FetchSwaps] querying swap requests", map[string]string{
				"first":  strconv.Itoa(first),
				"offset": strconv.Itoa(offset),
			})

			resp, err := c.client.R().
				SetContext(ctx).
				SetHeader("Content-Type", "application/json").
				SetBody(body).
				SetResult(&out).
				Post(c.url)
			if err != nil {
				return errors.Wrap(err, "failed to query swap requests")
			}
			if resp.StatusCode() >= 400 {
				return &feed.StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
			}
			if len(out.Errors) > 0 {
				return errors.Errorf("graphql error: %s", out.Errors[0].Message)
			}
			if out.Data == nil {
				return errors.New("failed to decode swap requests response")
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &out.Data.AllSwapRequests, nil
	})
}
