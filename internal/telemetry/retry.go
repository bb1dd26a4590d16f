package telemetry

import (
	"context"
	"strconv"

	"github.com/dwarvesf/swap-history/internal/consts"
)

// RetryPending drains the source tracker and re-resolves every id by tx id. Ids that are
// still not final, or whose lookup failed, go back into the tracker.
func (t *Telemetry) RetryPending(ctx context.Context, kind consts.SourceKind) error {
	src, err := t.source(kind)
	if err != nil {
		return err
	}
	unlock, ok := t.tryLock(kind, PassPendingRetry)
	if !ok {
		return nil
	}
	defer unlock()

	tracker := t.pending.For(kind)
	ids := tracker.Drain()
	if len(ids) == 0 {
		t.recorder.PendingSize(kind, tracker.Len())
		return nil
	}

	t.logger.Info("[RetryPending] Start retrying pending swaps...", map[string]string{
		"source": string(kind),
		"count":  strconv.Itoa(len(ids)),
	})

	var still []string
	resolved, dropped := 0, 0
	for i, id := range ids {
		resp, err := src.feed.FetchByTxID(ctx, id)
		if err != nil {
			t.logger.Error("[RetryPending][FetchByTxID]", map[string]string{
				"source": string(kind),
				"tx_id":  id,
				"error":  err.Error(),
			})
			still = append(still, ids[i:]...)
			tracker.Restore(still)
			t.recorder.PendingSize(kind, tracker.Len())
			return err
		}
		if len(resp.Actions) == 0 {
			still = append(still, id)
			continue
		}

		pendingAgain, loadedAny, malformed := false, false, 0
		for _, action := range resp.Actions {
			res, err := src.transformer.Transform(action)
			if err != nil {
				malformed++
				t.logger.Error("[RetryPending][Transform]", map[string]string{
					"source": string(kind),
					"tx_id":  id,
					"error":  err.Error(),
				})
				continue
			}
			if res.IsPending() {
				pendingAgain = true
				continue
			}
			if err := src.loader.LoadOne(ctx, *res.Record); err != nil {
				t.logger.Error("[RetryPending][LoadOne]", map[string]string{
					"source": string(kind),
					"tx_id":  id,
					"error":  err.Error(),
				})
				pendingAgain = true
				continue
			}
			loadedAny = true
		}

		switch {
		case pendingAgain:
			still = append(still, id)
		case loadedAny:
			resolved++
		case malformed > 0:
			dropped++
		}
	}

	tracker.Restore(still)
	t.recorder.RecordsLoaded(kind, PassPendingRetry, resolved, 0)
	if dropped > 0 {
		t.recorder.RecordsSkipped(kind, PassPendingRetry, dropped)
	}
	t.recorder.PendingSize(kind, tracker.Len())

	t.logger.Info("[RetryPending] Done", map[string]string{
		"source":   string(kind),
		"resolved": strconv.Itoa(resolved),
		"pending":  strconv.Itoa(len(still)),
		"dropped":  strconv.Itoa(dropped),
	})
	return nil
}
