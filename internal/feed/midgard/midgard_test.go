package midgard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/feed"
	"github.com/dwarvesf/swap-history/internal/feed/gate"
	"github.com/dwarvesf/swap-history/internal/types/environments"
	"github.com/dwarvesf/swap-history/internal/utils/config"
	"github.com/dwarvesf/swap-history/internal/utils/logger"
)

const pageJSON = `{
  "actions": [{
    "date": "1700000000000000000",
    "status": "success",
    "type": "swap",
    "pools": ["BTC.BTC"],
    "in": [{"address": "bc1qin", "txID": "TX1", "coins": [{"asset": "BTC.BTC", "amount": "100000000"}]}],
    "out": [{"address": "thor1out", "txID": "", "coins": [{"asset": "THOR.RUNE", "amount": "5000000000"}]}],
    "metadata": {"swap": {"inPriceUSD": "40000", "outPriceUSD": "5"}}
  }],
  "meta": {"nextPageToken": "NEXT", "prevPageToken": "PREV"}
}`

func newTestClient(t *testing.T, url string, notation consts.AssetNotation) IMidgard {
	t.Helper()
	src := config.SourceConfig{Kind: consts.SourceNative, BaseURL: url, Notation: notation}
	cfg := config.MidgardConfig{MaxAttempts: 3, RetryDelay: time.Millisecond, Timeout: time.Second}
	c := New(src, cfg, gate.New(0), logger.New(environments.Test))
	t.Cleanup(func() { assert.NoError(t, c.Close()) })
	return c
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

func TestMidgard_FetchLatest_SendsQuery(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/actions", r.URL.Path)
		q := r.URL.Query()
		gotQuery = map[string]string{
			"type":          q.Get("type"),
			"asset":         q.Get("asset"),
			"fromTimestamp": q.Get("fromTimestamp"),
		}
		writeJSON(w, pageJSON)
	}))
	defer server.Close()

	resp, err := newTestClient(t, server.URL, consts.AssetNotationPool).FetchLatest(context.Background(), 1700000000)

	require.NoError(t, err)
	assert.Equal(t, "swap", gotQuery["type"])
	assert.Equal(t, "notrade", gotQuery["asset"])
	assert.Equal(t, "1700000000", gotQuery["fromTimestamp"])
	require.Len(t, resp.Actions, 1)
	assert.Equal(t, "TX1", *resp.Actions[0].In[0].TxID)
	assert.Equal(t, "NEXT", resp.Meta.NextPageToken)
	assert.Equal(t, "PREV", resp.Meta.PrevPageToken)
	assert.Equal(t, "40000", resp.Actions[0].Metadata.Swap.InPriceUSD)
}

func TestMidgard_TradeSourceUsesTradeFilter(t *testing.T) {
	var asset string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		asset = r.URL.Query().Get("asset")
		writeJSON(w, `{"actions": [], "meta": {"nextPageToken": "", "prevPageToken": ""}}`)
	}))
	defer server.Close()

	resp, err := newTestClient(t, server.URL, consts.AssetNotationTrade).FetchPrevPage(context.Background(), "TOKEN")

	require.NoError(t, err)
	assert.Empty(t, resp.Actions)
	assert.Equal(t, "trade", asset)
}

func TestMidgard_PaginationParams(t *testing.T) {
	var got []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = append(got, q.Get("nextPageToken")+"|"+q.Get("prevPageToken")+"|"+q.Get("txid"))
		writeJSON(w, pageJSON)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, consts.AssetNotationPool)
	ctx := context.Background()

	_, err := client.FetchNextPage(ctx, "N1")
	require.NoError(t, err)
	_, err = client.FetchPrevPage(ctx, "P1")
	require.NoError(t, err)
	_, err = client.FetchByTxID(ctx, "TX9")
	require.NoError(t, err)
	_, err = client.FetchNextPage(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"N1||", "|P1|", "||TX9", "||"}, got)
}

func TestMidgard_RetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, pageJSON)
	}))
	defer server.Close()

	resp, err := newTestClient(t, server.URL, consts.AssetNotationPool).FetchLatest(context.Background(), 1)

	require.NoError(t, err)
	assert.Len(t, resp.Actions, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestMidgard_UndecodableBodyExhaustsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL, consts.AssetNotationPool).FetchLatest(context.Background(), 1)

	var apiErr *feed.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 3, apiErr.Attempts)
	assert.Equal(t, "FetchLatest", apiErr.Op)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}
