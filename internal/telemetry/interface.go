package telemetry

import (
	"context"
	"time"

	"github.com/dwarvesf/swap-history/internal/consts"
)

type ITelemetry interface {
	// LiveTail loads everything newer than the latest stored timestamp.
	LiveTail(ctx context.Context, kind consts.SourceKind) error
	// Backfill resumes the checkpointed prev-token walk from the historical start point.
	Backfill(ctx context.Context, kind consts.SourceKind) error
	// ForwardHistory resumes the checkpointed next-token walk from the newest page.
	ForwardHistory(ctx context.Context, kind consts.SourceKind) error
	// Reconcile re-walks [from, to) to pick up swaps that finalized late.
	Reconcile(ctx context.Context, kind consts.SourceKind, from, to time.Time) error
	// RetryPending re-resolves every tracked id of a source.
	RetryPending(ctx context.Context, kind consts.SourceKind) error
	SyncChainflip(ctx context.Context) error
	FetchClosingPrice(ctx context.Context) error
}
