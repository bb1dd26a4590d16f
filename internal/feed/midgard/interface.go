package midgard

import "context"

// IMidgard fetches pages of swap actions. Next pages walk newest first,
// prev pages walk the other way from the same resource.
type IMidgard interface {
	FetchLatest(ctx context.Context, fromTimestamp int64) (*ActionsResponse, error)
	FetchNextPage(ctx context.Context, nextPageToken string) (*ActionsResponse, error)
	FetchPrevPage(ctx context.Context, prevPageToken string) (*ActionsResponse, error)
	FetchByTxID(ctx context.Context, txID string) (*ActionsResponse, error)
	// Close releases the underlying HTTP client.
	Close() error
}
