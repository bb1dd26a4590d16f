package gate

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Gate serializes every outbound call to one upstream feed: one request in
// flight at a time, and at least minInterval between request starts.
type Gate struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

func New(minInterval time.Duration) *Gate {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}

	return &Gate{
		sem:     semaphore.NewWeighted(1),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Do blocks until the gate is free and the rate allows, then runs fn.
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)

	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	return fn(ctx)
}
