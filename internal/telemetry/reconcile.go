package telemetry

import (
	"context"
	"strconv"
	"time"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/feed/midgard"
	"github.com/dwarvesf/swap-history/internal/model"
	"github.com/dwarvesf/swap-history/internal/transformer"
)

func (t *Telemetry) Reconcile(ctx context.Context, kind consts.SourceKind, from, to time.Time) error {
	src, err := t.source(kind)
	if err != nil {
		return err
	}
	unlock, ok := t.tryLock(kind, PassReconcile)
	if !ok {
		return nil
	}
	defer unlock()

	fields := map[string]string{
		"source": string(kind),
		"from":   from.Format(time.RFC3339),
		"to":     to.Format(time.RFC3339),
	}
	t.logger.Info("[Reconcile] Start re-walking window...", fields)

	page, err := src.feed.FetchLatest(ctx, from.Unix())
	if err != nil {
		t.logger.Error("[Reconcile][FetchLatest]", map[string]string{
			"source": string(kind),
			"error":  err.Error(),
		})
		return err
	}

	pages, loaded := 0, 0
	for len(page.Actions) > 0 {
		pages++
		records := inWindow(t.transformPage(src, PassReconcile, page.Actions), from, to)
		if err := t.loadBatch(ctx, src, PassReconcile, records); err != nil {
			t.logger.Error("[Reconcile][LoadBatch]", map[string]string{
				"source": string(kind),
				"error":  err.Error(),
			})
			return err
		}
		loaded += len(records)

		if pageStartsAfter(page.Actions, to) || page.Meta.PrevPageToken == "" || pages >= t.maxPages() {
			break
		}
		page, err = src.feed.FetchPrevPage(ctx, page.Meta.PrevPageToken)
		if err != nil {
			t.logger.Error("[Reconcile][FetchPrevPage]", map[string]string{
				"source": string(kind),
				"pages":  strconv.Itoa(pages),
				"error":  err.Error(),
			})
			return err
		}
	}

	fields["pages"] = strconv.Itoa(pages)
	fields["records"] = strconv.Itoa(loaded)
	t.logger.Info("[Reconcile] Done", fields)
	return nil
}

func inWindow(records []model.SwapRecord, from, to time.Time) []model.SwapRecord {
	out := records[:0]
	for _, r := range records {
		if r.Timestamp >= from.Unix() && r.Timestamp < to.Unix() {
			out = append(out, r)
		}
	}
	return out
}

// pageStartsAfter reports whether every action of the page is at or past end.
// Actions with an unreadable date do not count.
func pageStartsAfter(actions []midgard.Action, end time.Time) bool {
	seen := false
	for _, a := range actions {
		ts, err := transformer.ParseNanoTimestamp(a.Date)
		if err != nil {
			continue
		}
		if ts.Before(end) {
			return false
		}
		seen = true
	}
	return seen
}

// ReconcileWindow is the 24h window starting at local midnight of now in loc.
func ReconcileWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, 1)
}
