package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/dwarvesf/swap-history/internal/checkpoint"
	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/feed/chainflip"
	"github.com/dwarvesf/swap-history/internal/feed/midgard"
	"github.com/dwarvesf/swap-history/internal/loader"
	"github.com/dwarvesf/swap-history/internal/model"
	"github.com/dwarvesf/swap-history/internal/pending"
	"github.com/dwarvesf/swap-history/internal/pricefeed/coingecko"
	"github.com/dwarvesf/swap-history/internal/store"
	"github.com/dwarvesf/swap-history/internal/transformer"
	"github.com/dwarvesf/swap-history/internal/utils/config"
	"github.com/dwarvesf/swap-history/internal/utils/logger"
)

// recordLoader is the part of loader.Loader the passes use.
type recordLoader[T any] interface {
	LoadBatch(ctx context.Context, records []T) (int, []error)
	LoadOne(ctx context.Context, record T) error
}

// Feeds groups the upstream clients, usually wrapped in circuit breakers.
type Feeds struct {
	Midgard   map[consts.SourceKind]midgard.IMidgard
	Chainflip chainflip.IChainflip
	Prices    coingecko.ICoinGecko
}

// Close releases every client. It keeps going past a failing one.
func (f Feeds) Close() error {
	var errs []error
	for _, m := range f.Midgard {
		errs = append(errs, m.Close())
	}
	if f.Chainflip != nil {
		errs = append(errs, f.Chainflip.Close())
	}
	if f.Prices != nil {
		errs = append(errs, f.Prices.Close())
	}
	return errors.Join(errs...)
}

type midgardSource struct {
	cfg         config.SourceConfig
	feed        midgard.IMidgard
	transformer *transformer.Transformer
	loader      recordLoader[model.SwapRecord]
}

type Telemetry struct {
	db          *gorm.DB
	store       *store.Store
	appConfig   *config.AppConfig
	logger      *logger.Logger
	sources     map[consts.SourceKind]*midgardSource
	chainflip   chainflip.IChainflip
	cfLoader    recordLoader[model.ChainflipSwap]
	cfTable     string
	prices      coingecko.ICoinGecko
	checkpoints checkpoint.IStore
	pending     *pending.Registry
	recorder    Recorder
	now         func() time.Time

	// one run per (source, pass) at a time
	passMutex sync.Map
}

func New(
	db *gorm.DB,
	store *store.Store,
	appConfig *config.AppConfig,
	logger *logger.Logger,
	feeds Feeds,
	checkpoints checkpoint.IStore,
	registry *pending.Registry,
	recorder Recorder,
) *Telemetry {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	t := &Telemetry{
		db:          db,
		store:       store,
		appConfig:   appConfig,
		logger:      logger,
		sources:     make(map[consts.SourceKind]*midgardSource),
		chainflip:   feeds.Chainflip,
		prices:      feeds.Prices,
		checkpoints: checkpoints,
		pending:     registry,
		recorder:    recorder,
		now:         time.Now,
	}

	for _, src := range appConfig.Sources {
		if src.Kind == consts.SourceChainflip {
			t.cfTable = src.Table
			t.cfLoader = loader.New(db, loader.ChainflipWriter(store.ChainflipSwap, src.Table, src.Conflict), logger)
			continue
		}
		f, ok := feeds.Midgard[src.Kind]
		if !ok {
			continue
		}
		t.sources[src.Kind] = &midgardSource{
			cfg:         src,
			feed:        f,
			transformer: transformer.New(src, logger),
			loader:      loader.New(db, loader.SwapRecordWriter(store.SwapRecord, src.Table, src.Conflict), logger),
		}
	}

	return t
}

func (t *Telemetry) source(kind consts.SourceKind) (*midgardSource, error) {
	src, ok := t.sources[kind]
	if !ok {
		return nil, fmt.Errorf("no midgard feed configured for source %q", kind)
	}
	return src, nil
}

// tryLock takes the run lock of (kind, pass). It returns false while another run holds it.
func (t *Telemetry) tryLock(kind consts.SourceKind, pass string) (func(), bool) {
	v, _ := t.passMutex.LoadOrStore(string(kind)+"/"+pass, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	if !mu.TryLock() {
		t.logger.Info(fmt.Sprintf("[%s] previous run still in progress, skipping", pass), map[string]string{
			"source": string(kind),
		})
		return nil, false
	}
	return mu.Unlock, true
}

func (t *Telemetry) maxPages() int {
	if t.appConfig.Ingestion.MaxPagesPerPass <= 0 {
		return 500
	}
	return t.appConfig.Ingestion.MaxPagesPerPass
}

// trackPending adds ids to the source tracker and republishes its size.
func (t *Telemetry) trackPending(kind consts.SourceKind, ids []string) {
	tracker := t.pending.For(kind)
	if len(ids) > 0 {
		tracker.Track(ids...)
	}
	t.recorder.PendingSize(kind, tracker.Len())
}

// loadEach loads records one by one. It returns the first error only when every record failed.
func (t *Telemetry) loadEach(ctx context.Context, src *midgardSource, pass string, records []model.SwapRecord) error {
	var firstErr error
	loaded := 0
	for _, rec := range records {
		if err := src.loader.LoadOne(ctx, rec); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		loaded++
	}
	t.recorder.RecordsLoaded(src.cfg.Kind, pass, loaded, len(records)-loaded)
	if loaded == 0 && firstErr != nil {
		return firstErr
	}
	return nil
}

// loadBatch flushes records through the bulk loader. It returns the first error only when
// the whole batch failed.
func (t *Telemetry) loadBatch(ctx context.Context, src *midgardSource, pass string, records []model.SwapRecord) error {
	if len(records) == 0 {
		return nil
	}
	loaded, errs := src.loader.LoadBatch(ctx, records)
	t.recorder.RecordsLoaded(src.cfg.Kind, pass, loaded, len(errs))
	if loaded == 0 && len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// transformPage runs the transformer over a page and tracks its pending ids.
func (t *Telemetry) transformPage(src *midgardSource, pass string, actions []midgard.Action) []model.SwapRecord {
	res := src.transformer.TransformPage(actions)
	t.recorder.PageFetched(src.cfg.Kind, pass)
	if res.Skipped > 0 {
		t.recorder.RecordsSkipped(src.cfg.Kind, pass, res.Skipped)
	}
	t.trackPending(src.cfg.Kind, res.Pending)
	return res.Records
}

func (t *Telemetry) writeCheckpoint(kind consts.SourceKind, dir consts.Direction, cursor string) error {
	if err := t.checkpoints.Write(kind, dir, cursor); err != nil {
		return err
	}
	t.recorder.CheckpointWritten(kind, dir, t.now().Unix())
	return nil
}
