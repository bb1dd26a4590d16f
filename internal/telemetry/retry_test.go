package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/feed/midgard"
	"github.com/dwarvesf/swap-history/internal/model"
)

func TestRetryPending_ResolvesAndRestores(t *testing.T) {
	h := newHarness(t)
	tracker := h.registry.For(consts.SourceNative)
	tracker.Track("A", "B", "C", "D")

	h.feed.byTx["A"] = prevPage("", done("A", 1000))
	h.feed.byTx["B"] = prevPage("", swapAction("B", "pending", 1000))
	// C is not indexed yet, so the lookup is empty
	h.feed.byTx["D"] = &midgard.ActionsResponse{Actions: []midgard.Action{{Status: consts.MidgardStatusSuccess}}}

	require.NoError(t, h.tel.RetryPending(context.Background(), consts.SourceNative))

	assert.Equal(t, []string{"tx:A", "tx:B", "tx:C", "tx:D"}, h.feed.Calls())
	assert.True(t, h.rows.Has("A"))
	assert.Equal(t, 1, h.rows.Len())
	assert.False(t, tracker.Contains("A"))
	assert.True(t, tracker.Contains("B"))
	assert.True(t, tracker.Contains("C"))
	assert.False(t, tracker.Contains("D"), "malformed swaps are dropped")
}

func TestRetryPending_FetchErrorRestoresRemainingIDs(t *testing.T) {
	h := newHarness(t)
	tracker := h.registry.For(consts.SourceNative)
	tracker.Track("A", "B", "C")
	h.feed.byTx["A"] = prevPage("", done("A", 1000))
	h.feed.errs["tx:B"] = errors.New("upstream down")

	err := h.tel.RetryPending(context.Background(), consts.SourceNative)

	assert.EqualError(t, err, "upstream down")
	assert.Equal(t, []string{"tx:A", "tx:B"}, h.feed.Calls())
	assert.True(t, h.rows.Has("A"))
	assert.False(t, tracker.Contains("A"))
	assert.True(t, tracker.Contains("B"))
	assert.True(t, tracker.Contains("C"))
}

func TestRetryPending_FailedLoadKeepsID(t *testing.T) {
	h := newHarness(t)
	tracker := h.registry.For(consts.SourceNative)
	tracker.Track("A")
	h.feed.byTx["A"] = prevPage("", done("A", 1000))
	h.rows.fail = func(model.SwapRecord) error { return errors.New("insert failed") }

	require.NoError(t, h.tel.RetryPending(context.Background(), consts.SourceNative))

	assert.True(t, tracker.Contains("A"))
}

func TestRetryPending_EmptyTrackerDoesNothing(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.tel.RetryPending(context.Background(), consts.SourceNative))
	assert.Empty(t, h.feed.Calls())
}

func TestRetryPending_IDsTrackedDuringRetryAreKept(t *testing.T) {
	h := newHarness(t)
	tracker := h.registry.For(consts.SourceNative)
	tracker.Track("A")
	h.feed.byTx["A"] = prevPage("", done("A", 1000))
	h.rows.fail = func(model.SwapRecord) error {
		// a live tail pass tracks a new id while the retry is in flight
		tracker.Track("NEW")
		return nil
	}

	require.NoError(t, h.tel.RetryPending(context.Background(), consts.SourceNative))

	assert.True(t, tracker.Contains("NEW"))
	assert.False(t, tracker.Contains("A"))
}
