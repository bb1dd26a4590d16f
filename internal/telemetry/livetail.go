package telemetry

import (
	"context"
	"strconv"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/store"
)

func (t *Telemetry) LiveTail(ctx context.Context, kind consts.SourceKind) error {
	src, err := t.source(kind)
	if err != nil {
		return err
	}
	unlock, ok := t.tryLock(kind, PassLiveTail)
	if !ok {
		return nil
	}
	defer unlock()

	ts, found, err := t.store.SwapRecord.GetLatestTimestamp(t.db.WithContext(ctx), src.cfg.Table)
	if err != nil {
		t.logger.Error("[LiveTail][GetLatestTimestamp]", map[string]string{
			"source": string(kind),
			"error":  err.Error(),
		})
		return &store.DatabaseError{Op: "latest timestamp", Table: src.cfg.Table, Err: err}
	}
	if !found {
		ts = t.now().Unix()
	}

	t.logger.Info("[LiveTail] Start fetching swaps...", map[string]string{
		"source":         string(kind),
		"from_timestamp": strconv.FormatInt(ts, 10),
	})

	page, err := src.feed.FetchLatest(ctx, ts)
	if err != nil {
		t.logger.Error("[LiveTail][FetchLatest]", map[string]string{
			"source": string(kind),
			"error":  err.Error(),
		})
		return err
	}

	pages := 0
	for {
		if len(page.Actions) == 0 {
			break
		}
		pages++

		records := t.transformPage(src, PassLiveTail, page.Actions)
		if err := t.loadEach(ctx, src, PassLiveTail, records); err != nil {
			t.logger.Error("[LiveTail][LoadOne]", map[string]string{
				"source": string(kind),
				"error":  err.Error(),
			})
			return err
		}

		if page.Meta.PrevPageToken == "" || pages >= t.maxPages() {
			break
		}
		page, err = src.feed.FetchPrevPage(ctx, page.Meta.PrevPageToken)
		if err != nil {
			t.logger.Error("[LiveTail][FetchPrevPage]", map[string]string{
				"source": string(kind),
				"pages":  strconv.Itoa(pages),
				"error":  err.Error(),
			})
			return err
		}
	}

	t.logger.Info("[LiveTail] Done", map[string]string{
		"source": string(kind),
		"pages":  strconv.Itoa(pages),
	})
	return nil
}
