package telemetry

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dwarvesf/swap-history/internal/checkpoint"
	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/feed/chainflip"
	"github.com/dwarvesf/swap-history/internal/feed/midgard"
	"github.com/dwarvesf/swap-history/internal/model"
	"github.com/dwarvesf/swap-history/internal/pending"
	"github.com/dwarvesf/swap-history/internal/store"
	"github.com/dwarvesf/swap-history/internal/store/chainflipswap"
	"github.com/dwarvesf/swap-history/internal/store/closingprice"
	"github.com/dwarvesf/swap-history/internal/store/storetest"
	"github.com/dwarvesf/swap-history/internal/store/swaprecord"
	"github.com/dwarvesf/swap-history/internal/types/environments"
	"github.com/dwarvesf/swap-history/internal/utils/config"
	"github.com/dwarvesf/swap-history/internal/utils/logger"
)

var fixedNow = time.Date(2024, 5, 2, 0, 5, 0, 0, time.UTC)

// fakeMidgard serves scripted pages. Unknown cursors return an empty page.
type fakeMidgard struct {
	mu     sync.Mutex
	latest map[int64]*midgard.ActionsResponse
	prev   map[string]*midgard.ActionsResponse
	next   map[string]*midgard.ActionsResponse
	byTx   map[string]*midgard.ActionsResponse
	errs   map[string]error
	calls  []string
	closed int
}

func newFakeMidgard() *fakeMidgard {
	return &fakeMidgard{
		latest: map[int64]*midgard.ActionsResponse{},
		prev:   map[string]*midgard.ActionsResponse{},
		next:   map[string]*midgard.ActionsResponse{},
		byTx:   map[string]*midgard.ActionsResponse{},
		errs:   map[string]error{},
	}
}

func (f *fakeMidgard) serve(call string, page *midgard.ActionsResponse) (*midgard.ActionsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if err := f.errs[call]; err != nil {
		return nil, err
	}
	if page == nil {
		return &midgard.ActionsResponse{}, nil
	}
	return page, nil
}

func (f *fakeMidgard) FetchLatest(_ context.Context, fromTimestamp int64) (*midgard.ActionsResponse, error) {
	return f.serve("latest:"+strconv.FormatInt(fromTimestamp, 10), f.latest[fromTimestamp])
}

func (f *fakeMidgard) FetchNextPage(_ context.Context, token string) (*midgard.ActionsResponse, error) {
	return f.serve("next:"+token, f.next[token])
}

func (f *fakeMidgard) FetchPrevPage(_ context.Context, token string) (*midgard.ActionsResponse, error) {
	return f.serve("prev:"+token, f.prev[token])
}

func (f *fakeMidgard) FetchByTxID(_ context.Context, txID string) (*midgard.ActionsResponse, error) {
	return f.serve("tx:"+txID, f.byTx[txID])
}

func (f *fakeMidgard) Close() error {
	f.closed++
	return nil
}

func (f *fakeMidgard) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeLoader keeps rows by key. Ignore or overwrite follows the flag.
type fakeLoader[T any] struct {
	mu        sync.Mutex
	key       func(T) string
	overwrite bool
	fail      func(T) error
	rows      map[string]T
	batches   int
}

func newFakeLoader[T any](key func(T) string, overwrite bool) *fakeLoader[T] {
	return &fakeLoader[T]{key: key, overwrite: overwrite, rows: map[string]T{}}
}

func (f *fakeLoader[T]) put(r T) error {
	if f.fail != nil {
		if err := f.fail(r); err != nil {
			return err
		}
	}
	k := f.key(r)
	if _, ok := f.rows[k]; ok && !f.overwrite {
		return nil
	}
	f.rows[k] = r
	return nil
}

func (f *fakeLoader[T]) LoadBatch(_ context.Context, records []T) (int, []error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(records) == 0 {
		return 0, nil
	}
	f.batches++
	n := 0
	var errs []error
	for _, r := range records {
		if err := f.put(r); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errs
}

func (f *fakeLoader[T]) LoadOne(_ context.Context, record T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.put(record)
}

func (f *fakeLoader[T]) Has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[key]
	return ok
}

func (f *fakeLoader[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeSwapStore struct {
	swaprecord.IStore
	latest int64
	found  bool
	err    error
}

func (f *fakeSwapStore) GetLatestTimestamp(_ *gorm.DB, _ string) (int64, bool, error) {
	return f.latest, f.found, f.err
}

type fakeChainflipStore struct {
	chainflipswap.IStore
	rows *fakeLoader[model.ChainflipSwap]
}

func (f *fakeChainflipStore) ExistingIDs(_ *gorm.DB, _ string, ids []string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for _, id := range ids {
		if f.rows.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

type fakeClosingPriceStore struct {
	closingprice.IStore
	rows []model.ClosingPrice
	err  error
}

func (f *fakeClosingPriceStore) Upsert(_ *gorm.DB, price *model.ClosingPrice) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, *price)
	return nil
}

type fakePrices struct {
	price  float64
	err    error
	dates  []time.Time
	closed int
}

func (f *fakePrices) Close() error {
	f.closed++
	return nil
}

func (f *fakePrices) FetchUSDPrice(_ context.Context, _ string, date time.Time) (float64, error) {
	f.dates = append(f.dates, date)
	return f.price, f.err
}

type fakeChainflip struct {
	pages    map[int]*chainflip.SwapRequests
	calls    []int
	closeErr error
}

func (f *fakeChainflip) Close() error {
	return f.closeErr
}

func (f *fakeChainflip) FetchSwaps(_ context.Context, _ int, offset int) (*chainflip.SwapRequests, error) {
	f.calls = append(f.calls, offset)
	if p, ok := f.pages[offset]; ok {
		return p, nil
	}
	return &chainflip.SwapRequests{}, nil
}

// failingCheckpoints fails the failOn-th write. Zero never fails.
type failingCheckpoints struct {
	checkpoint.IStore
	failOn int
	writes int
}

func (f *failingCheckpoints) Write(source consts.SourceKind, dir consts.Direction, cursor string) error {
	f.writes++
	if f.failOn > 0 && f.writes == f.failOn {
		return &checkpoint.FileError{Path: string(source), Op: "rename", Err: errors.New("disk full")}
	}
	return f.IStore.Write(source, dir, cursor)
}

type countingRecorder struct {
	mu     sync.Mutex
	pages  int
	loaded int
	failed int
}

func (r *countingRecorder) PageFetched(consts.SourceKind, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages++
}

func (r *countingRecorder) RecordsLoaded(_ consts.SourceKind, _ string, loaded, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded += loaded
	r.failed += failed
}

func (r *countingRecorder) RecordsSkipped(consts.SourceKind, string, int) {}
func (r *countingRecorder) PendingSize(consts.SourceKind, int) {}
func (r *countingRecorder) CheckpointWritten(consts.SourceKind, consts.Direction, int64) {}

type harness struct {
	tel         *Telemetry
	feed        *fakeMidgard
	rows        *fakeLoader[model.SwapRecord]
	swaps       *fakeSwapStore
	cf          *fakeChainflip
	cfRows      *fakeLoader[model.ChainflipSwap]
	prices      *fakePrices
	closing     *fakeClosingPriceStore
	checkpoints *failingCheckpoints
	registry    *pending.Registry
	recorder    *countingRecorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, _ := storetest.NewMockDB(t)

	h := &harness{
		feed:        newFakeMidgard(),
		rows:        newFakeLoader(func(r model.SwapRecord) string { return r.TxID }, false),
		swaps:       &fakeSwapStore{},
		cf:          &fakeChainflip{pages: map[int]*chainflip.SwapRequests{}},
		cfRows:      newFakeLoader(func(s model.ChainflipSwap) string { return s.SwapID }, true),
		prices:      &fakePrices{},
		closing:     &fakeClosingPriceStore{},
		checkpoints: &failingCheckpoints{IStore: checkpoint.New(afero.NewMemMapFs(), "/checkpoints")},
		registry:    pending.NewRegistry(),
		recorder:    &countingRecorder{},
	}

	cfg := &config.AppConfig{
		Ingestion: config.IngestionConfig{
			BackfillStartTimestamp: 1700000000,
			BackfillFlushPages:     2,
			MaxPagesPerPass:        50,
		},
		Chainflip: config.ChainflipConfig{PageSize: 2},
		Sources: []config.SourceConfig{
			{
				Kind:            consts.SourceNative,
				Table:           "native_swaps",
				Conflict:        consts.ConflictIgnore,
				SettlementAsset: consts.NativeSettlementAsset,
				Decimals:        consts.THORChainDecimals,
				Notation:        consts.AssetNotationPool,
			},
			{
				Kind:     consts.SourceChainflip,
				Table:    "chainflip_swaps",
				Conflict: consts.ConflictOverwrite,
			},
		},
	}

	st := &store.Store{
		SwapRecord:    h.swaps,
		ChainflipSwap: &fakeChainflipStore{rows: h.cfRows},
		ClosingPrice:  h.closing,
	}
	feeds := Feeds{
		Midgard:   map[consts.SourceKind]midgard.IMidgard{consts.SourceNative: h.feed},
		Chainflip: h.cf,
		Prices:    h.prices,
	}

	h.tel = New(db, st, cfg, logger.New(environments.Test), feeds, h.checkpoints, h.registry, h.recorder)
	h.tel.sources[consts.SourceNative].loader = h.rows
	h.tel.cfLoader = h.cfRows
	h.tel.now = func() time.Time { return fixedNow }
	return h
}

func swapAction(txID, status string, unix int64) midgard.Action {
	id := txID
	return midgard.Action{
		Date: strconv.FormatInt(unix*int64(time.Second), 10),
		In: []midgard.Leg{{
			Address: "bc1qsender",
			Coins:   []midgard.Coin{{Amount: "100000000", Asset: "BTC.BTC"}},
			TxID:    &id,
		}},
		Out: []midgard.Leg{{
			Address: "thor1receiver",
			Coins:   []midgard.Coin{{Amount: "5000000000", Asset: "THOR.RUNE"}},
		}},
		Status: status,
		Type:   "swap",
	}
}

func done(txID string, unix int64) midgard.Action {
	return swapAction(txID, consts.MidgardStatusSuccess, unix)
}

func prevPage(prevToken string, actions ...midgard.Action) *midgard.ActionsResponse {
	return &midgard.ActionsResponse{Actions: actions, Meta: midgard.PageMeta{PrevPageToken: prevToken}}
}

func nextPage(nextToken string, actions ...midgard.Action) *midgard.ActionsResponse {
	return &midgard.ActionsResponse{Actions: actions, Meta: midgard.PageMeta{NextPageToken: nextToken}}
}

func TestFeedsClose_ClosesEveryClient(t *testing.T) {
	native, trade := newFakeMidgard(), newFakeMidgard()
	prices := &fakePrices{}
	feeds := Feeds{
		Midgard:   map[consts.SourceKind]midgard.IMidgard{consts.SourceNative: native, consts.SourceTrade: trade},
		Chainflip: &fakeChainflip{closeErr: errors.New("chainflip close")},
		Prices:    prices,
	}

	err := feeds.Close()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chainflip close")
	assert.Equal(t, 1, native.closed)
	assert.Equal(t, 1, trade.closed)
	assert.Equal(t, 1, prices.closed)
}
