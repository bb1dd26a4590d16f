package chainflip

import "context"

type IChainflip interface {
	// FetchSwaps returns one page of swap requests, newest first.
	FetchSwaps(ctx context.Context, first, offset int) (*SwapRequests, error)
	Close() error
}
