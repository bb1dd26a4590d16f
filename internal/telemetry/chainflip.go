package telemetry

import (
	"context"
	"errors"
	"strconv"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/model"
	"github.com/dwarvesf/swap-history/internal/store"
	"github.com/dwarvesf/swap-history/internal/transformer"
)

const defaultChainflipPageSize = 30

// SyncChainflip pages the explorer newest first. It stops once a page holds only swaps
// already stored and no previously pending swap is left to resolve. Completed swaps
// overwrite their stored row.
func (t *Telemetry) SyncChainflip(ctx context.Context) error {
	if t.chainflip == nil || t.cfLoader == nil {
		return errors.New("chainflip source is not configured")
	}
	kind := consts.SourceChainflip
	unlock, ok := t.tryLock(kind, PassChainflipSync)
	if !ok {
		return nil
	}
	defer unlock()

	size := t.appConfig.Chainflip.PageSize
	if size <= 0 {
		size = defaultChainflipPageSize
	}

	tracker := t.pending.For(kind)
	outstanding := make(map[string]struct{})
	for _, id := range tracker.Drain() {
		outstanding[id] = struct{}{}
	}
	// ids still unresolved when the pass ends go back to the tracker
	defer func() {
		left := make([]string, 0, len(outstanding))
		for id := range outstanding {
			left = append(left, id)
		}
		tracker.Restore(left)
		t.recorder.PendingSize(kind, tracker.Len())
	}()

	t.logger.Info("[SyncChainflip] Start syncing swaps...", map[string]string{
		"outstanding": strconv.Itoa(len(outstanding)),
	})

	offset, pages := 0, 0
	for pages < t.maxPages() {
		resp, err := t.chainflip.FetchSwaps(ctx, size, offset)
		if err != nil {
			t.logger.Error("[SyncChainflip][FetchSwaps]", map[string]string{
				"offset": strconv.Itoa(offset),
				"error":  err.Error(),
			})
			return err
		}
		if len(resp.Edges) == 0 {
			break
		}
		pages++
		t.recorder.PageFetched(kind, PassChainflipSync)

		var swaps []model.ChainflipSwap
		var pendingIDs []string
		skipped, final := 0, 0
		for _, edge := range resp.Edges {
			res, err := transformer.TransformChainflip(edge.Node)
			if err != nil {
				skipped++
				t.logger.Error("[SyncChainflip][Transform]", map[string]string{
					"error": err.Error(),
				})
				continue
			}
			if res.FinalID != "" {
				final++
				delete(outstanding, res.FinalID)
				continue
			}
			if res.PendingID != "" {
				pendingIDs = append(pendingIDs, res.PendingID)
				continue
			}
			swaps = append(swaps, *res.Swap)
		}
		if skipped > 0 {
			t.recorder.RecordsSkipped(kind, PassChainflipSync, skipped)
		}
		if final > 0 {
			t.logger.Info("[SyncChainflip] dropping swaps that ended unfinished", map[string]string{
				"count":  strconv.Itoa(final),
				"offset": strconv.Itoa(offset),
			})
		}

		ids := make([]string, 0, len(swaps))
		for _, s := range swaps {
			ids = append(ids, s.SwapID)
		}
		existing, err := t.store.ChainflipSwap.ExistingIDs(t.db.WithContext(ctx), t.cfTable, ids)
		if err != nil {
			t.logger.Error("[SyncChainflip][ExistingIDs]", map[string]string{
				"error": err.Error(),
			})
			return &store.DatabaseError{Op: "existing ids", Table: t.cfTable, Err: err}
		}

		if len(swaps) > 0 {
			loaded, errs := t.cfLoader.LoadBatch(ctx, swaps)
			t.recorder.RecordsLoaded(kind, PassChainflipSync, loaded, len(errs))
			if loaded == 0 && len(errs) > 0 {
				t.logger.Error("[SyncChainflip][LoadBatch]", map[string]string{
					"error": errs[0].Error(),
				})
				return errs[0]
			}
		}

		for _, s := range swaps {
			delete(outstanding, s.SwapID)
		}
		for _, id := range pendingIDs {
			outstanding[id] = struct{}{}
		}

		allKnown := len(pendingIDs) == 0 && len(existing) == len(swaps)
		if !resp.PageInfo.HasNextPage || (allKnown && len(outstanding) == 0) {
			break
		}
		offset += len(resp.Edges)
	}

	t.logger.Info("[SyncChainflip] Done", map[string]string{
		"pages":   strconv.Itoa(pages),
		"pending": strconv.Itoa(len(outstanding)),
	})
	return nil
}
