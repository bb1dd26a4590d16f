package telemetry

import (
	"context"
	"strconv"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/feed/midgard"
	"github.com/dwarvesf/swap-history/internal/model"
)

// Backfill walks prev pages toward genesis. Records are flushed every BackfillFlushPages
// pages and the prev checkpoint only moves past pages that were flushed, so a restart
// replays at most one unflushed batch.
func (t *Telemetry) Backfill(ctx context.Context, kind consts.SourceKind) error {
	src, err := t.source(kind)
	if err != nil {
		return err
	}
	unlock, ok := t.tryLock(kind, PassBackfill)
	if !ok {
		return nil
	}
	defer unlock()

	start := t.appConfig.Ingestion.BackfillStartTimestamp
	if start <= 0 {
		start = consts.BackfillStartTimestamp
	}
	flushEvery := t.appConfig.Ingestion.BackfillFlushPages
	if flushEvery <= 0 {
		flushEvery = consts.BackfillFlushPages
	}

	cursor, err := t.checkpoints.Read(kind, consts.DirectionPrev)
	if err != nil {
		t.logger.Error("[Backfill][ReadCheckpoint]", map[string]string{
			"source": string(kind),
			"error":  err.Error(),
		})
		return err
	}

	t.logger.Info("[Backfill] Start backfilling swaps...", map[string]string{
		"source":  string(kind),
		"resumed": strconv.FormatBool(cursor != ""),
	})

	var page *midgard.ActionsResponse
	if cursor == "" {
		page, err = src.feed.FetchLatest(ctx, start)
	} else {
		page, err = src.feed.FetchPrevPage(ctx, cursor)
	}
	if err != nil {
		t.logger.Error("[Backfill][FetchFirstPage]", map[string]string{
			"source": string(kind),
			"error":  err.Error(),
		})
		return err
	}

	var (
		batch      []model.SwapRecord
		batchPages int
		pages      int
		current    = cursor // cursor that fetched page
		resume     = cursor // cursor of the first page not yet flushed
	)

	flush := func(ctx context.Context, next string) error {
		if err := t.loadBatch(ctx, src, PassBackfill, batch); err != nil {
			t.logger.Error("[Backfill][LoadBatch]", map[string]string{
				"source":  string(kind),
				"records": strconv.Itoa(len(batch)),
				"error":   err.Error(),
			})
			return err
		}
		batch, batchPages = nil, 0
		resume = next
		return nil
	}

	for len(page.Actions) > 0 {
		pages++
		batch = append(batch, t.transformPage(src, PassBackfill, page.Actions)...)
		batchPages++

		next := page.Meta.PrevPageToken
		// the last page is refetched on the next run rather than restarting from the top
		if next == "" {
			next = current
		}

		if batchPages >= flushEvery {
			if err := flush(ctx, next); err != nil {
				return err
			}
		}
		if err := t.writeCheckpoint(kind, consts.DirectionPrev, resume); err != nil {
			t.logger.Error("[Backfill][WriteCheckpoint]", map[string]string{
				"source": string(kind),
				"error":  err.Error(),
			})
			return err
		}

		if page.Meta.PrevPageToken == "" || pages >= t.maxPages() || ctx.Err() != nil {
			current = next
			break
		}

		current = next
		page, err = src.feed.FetchPrevPage(ctx, current)
		if err != nil {
			t.logger.Error("[Backfill][FetchPrevPage]", map[string]string{
				"source": string(kind),
				"pages":  strconv.Itoa(pages),
				"error":  err.Error(),
			})
			if flushErr := t.finishBackfill(ctx, kind, flush, current); flushErr != nil {
				return flushErr
			}
			return err
		}
	}

	if err := t.finishBackfill(ctx, kind, flush, current); err != nil {
		return err
	}

	t.logger.Info("[Backfill] Done", map[string]string{
		"source": string(kind),
		"pages":  strconv.Itoa(pages),
	})
	return nil
}

// finishBackfill flushes what is left and checkpoints next. It survives a cancelled ctx.
func (t *Telemetry) finishBackfill(ctx context.Context, kind consts.SourceKind, flush func(context.Context, string) error, next string) error {
	ctx = context.WithoutCancel(ctx)
	if err := flush(ctx, next); err != nil {
		return err
	}
	if err := t.writeCheckpoint(kind, consts.DirectionPrev, next); err != nil {
		t.logger.Error("[Backfill][WriteCheckpoint]", map[string]string{
			"source": string(kind),
			"error":  err.Error(),
		})
		return err
	}
	return nil
}

// ForwardHistory walks next pages from the newest page, loading each page as it
// arrives and checkpointing the next cursor after every load.
func (t *Telemetry) ForwardHistory(ctx context.Context, kind consts.SourceKind) error {
	src, err := t.source(kind)
	if err != nil {
		return err
	}
	unlock, ok := t.tryLock(kind, PassForwardHistory)
	if !ok {
		return nil
	}
	defer unlock()

	cursor, err := t.checkpoints.Read(kind, consts.DirectionNext)
	if err != nil {
		t.logger.Error("[ForwardHistory][ReadCheckpoint]", map[string]string{
			"source": string(kind),
			"error":  err.Error(),
		})
		return err
	}

	pages := 0
	for pages < t.maxPages() && ctx.Err() == nil {
		page, err := src.feed.FetchNextPage(ctx, cursor)
		if err != nil {
			t.logger.Error("[ForwardHistory][FetchNextPage]", map[string]string{
				"source": string(kind),
				"pages":  strconv.Itoa(pages),
				"error":  err.Error(),
			})
			return err
		}
		if len(page.Actions) == 0 {
			break
		}
		pages++

		records := t.transformPage(src, PassForwardHistory, page.Actions)
		if err := t.loadBatch(ctx, src, PassForwardHistory, records); err != nil {
			t.logger.Error("[ForwardHistory][LoadBatch]", map[string]string{
				"source": string(kind),
				"error":  err.Error(),
			})
			return err
		}

		if page.Meta.NextPageToken == "" {
			break
		}
		cursor = page.Meta.NextPageToken
		if err := t.writeCheckpoint(kind, consts.DirectionNext, cursor); err != nil {
			t.logger.Error("[ForwardHistory][WriteCheckpoint]", map[string]string{
				"source": string(kind),
				"error":  err.Error(),
			})
			return err
		}
	}

	t.logger.Info("[ForwardHistory] Done", map[string]string{
		"source": string(kind),
		"pages":  strconv.Itoa(pages),
	})
	return nil
}
