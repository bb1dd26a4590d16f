package telemetry

import (
	"github.com/dwarvesf/swap-history/internal/consts"
)

// Pass names used in logs and metric labels.
const (
	PassLiveTail       = "live_tail"
	PassBackfill       = "backfill"
	PassForwardHistory = "forward_history"
	PassReconcile      = "reconcile"
	PassPendingRetry   = "pending_retry"
	PassChainflipSync  = "chainflip_sync"
)

// Recorder receives pipeline progress. *monitoring.IngestionMetrics implements it.
type Recorder interface {
	PageFetched(source consts.SourceKind, pass string)
	RecordsLoaded(source consts.SourceKind, pass string, loaded, failed int)
	RecordsSkipped(source consts.SourceKind, pass string, n int)
	PendingSize(source consts.SourceKind, n int)
	CheckpointWritten(source consts.SourceKind, dir consts.Direction, unix int64)
}

type nopRecorder struct{}

func (nopRecorder) PageFetched(consts.SourceKind, string) {}
func (nopRecorder) RecordsLoaded(consts.SourceKind, string, int, int) {}
func (nopRecorder) RecordsSkipped(consts.SourceKind, string, int) {}
func (nopRecorder) PendingSize(consts.SourceKind, int) {}
func (nopRecorder) CheckpointWritten(consts.SourceKind, consts.Direction, int64) {}
