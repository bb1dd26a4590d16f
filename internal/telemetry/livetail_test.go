package telemetry

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/model"
	"github.com/dwarvesf/swap-history/internal/store"
)

func TestLiveTail_WalksPrevPagesUntilEmpty(t *testing.T) {
	h := newHarness(t)
	h.swaps.latest, h.swaps.found = 1714600000, true
	h.feed.latest[1714600000] = prevPage("P1",
		done("A", 1714600010),
		swapAction("B", "pending", 1714600020),
	)
	h.feed.prev["P1"] = prevPage("P2", done("C", 1714600030))

	require.NoError(t, h.tel.LiveTail(context.Background(), consts.SourceNative))

	assert.Equal(t, []string{"latest:1714600000", "prev:P1", "prev:P2"}, h.feed.Calls())
	assert.True(t, h.rows.Has("A"))
	assert.True(t, h.rows.Has("C"))
	assert.False(t, h.rows.Has("B"))
	assert.True(t, h.registry.For(consts.SourceNative).Contains("B"))
	assert.Equal(t, 2, h.recorder.pages)
	assert.Equal(t, 2, h.recorder.loaded)
}

func TestLiveTail_EmptyStoreStartsFromNow(t *testing.T) {
	h := newHarness(t)
	h.feed.latest[fixedNow.Unix()] = prevPage("", done("A", fixedNow.Unix()+1))

	require.NoError(t, h.tel.LiveTail(context.Background(), consts.SourceNative))

	assert.Equal(t, []string{"latest:" + strconv.FormatInt(fixedNow.Unix(), 10)}, h.feed.Calls())
	assert.True(t, h.rows.Has("A"))
}

func TestLiveTail_DatabaseErrorSkipsFetch(t *testing.T) {
	h := newHarness(t)
	h.swaps.err = errors.New("connection refused")

	err := h.tel.LiveTail(context.Background(), consts.SourceNative)

	var dbErr *store.DatabaseError
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, "native_swaps", dbErr.Table)
	assert.Empty(t, h.feed.Calls())
}

func TestLiveTail_FetchErrorKeepsLoadedPages(t *testing.T) {
	h := newHarness(t)
	h.swaps.latest, h.swaps.found = 100, true
	h.feed.latest[100] = prevPage("P1", done("A", 110))
	h.feed.errs["prev:P1"] = errors.New("upstream down")

	err := h.tel.LiveTail(context.Background(), consts.SourceNative)

	assert.EqualError(t, err, "upstream down")
	assert.True(t, h.rows.Has("A"))
}

func TestLiveTail_AllRecordsFailingIsAnError(t *testing.T) {
	h := newHarness(t)
	h.swaps.latest, h.swaps.found = 100, true
	h.feed.latest[100] = prevPage("P1", done("A", 110), done("B", 120))
	h.rows.fail = func(model.SwapRecord) error { return errors.New("insert failed") }

	err := h.tel.LiveTail(context.Background(), consts.SourceNative)

	assert.EqualError(t, err, "insert failed")
	assert.Equal(t, []string{"latest:100"}, h.feed.Calls())
	assert.Equal(t, 2, h.recorder.failed)
}

func TestLiveTail_SkipsWhileAlreadyRunning(t *testing.T) {
	h := newHarness(t)
	unlock, ok := h.tel.tryLock(consts.SourceNative, PassLiveTail)
	require.True(t, ok)
	defer unlock()

	require.NoError(t, h.tel.LiveTail(context.Background(), consts.SourceNative))
	assert.Empty(t, h.feed.Calls())
}

func TestLiveTail_UnknownSource(t *testing.T) {
	h := newHarness(t)
	assert.Error(t, h.tel.LiveTail(context.Background(), consts.SourceTrade))
}
