package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/monitoring"
	"github.com/dwarvesf/swap-history/internal/telemetry"
	"github.com/dwarvesf/swap-history/internal/utils/config"
	"github.com/dwarvesf/swap-history/internal/utils/logger"
)

// Per pass timeouts. A pass that hits its timeout is cancelled and resumes on the next tick.
const (
	liveTailTimeout       = 4 * time.Minute
	pendingRetryTimeout   = 4 * time.Minute
	backfillTimeout       = 55 * time.Minute
	forwardHistoryTimeout = 2 * time.Hour
	reconcileTimeout      = 30 * time.Minute
	chainflipSyncTimeout  = 14 * time.Minute
	closingPriceTimeout   = 2 * time.Minute
)

const closingPriceJob = "btc_closing_price"

type Scheduler struct {
	cron          *cron.Cron
	telemetry     telemetry.ITelemetry
	appConfig     *config.AppConfig
	statusManager *monitoring.JobStatusManager
	notifier      monitoring.UptimeNotifier
	logger        *logger.Logger
	loc           *time.Location
	now           func() time.Time

	mu      sync.Mutex
	entries map[string]cron.EntryID
	startup []*monitoring.InstrumentedJob
	wg      sync.WaitGroup
}

func New(appConfig *config.AppConfig, logger *logger.Logger, tel telemetry.ITelemetry, jsm *monitoring.JobStatusManager, notifier monitoring.UptimeNotifier) (*Scheduler, error) {
	tz := appConfig.Ingestion.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid ingestion timezone %q", tz)
	}

	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	return &Scheduler{
		cron:          c,
		telemetry:     tel,
		appConfig:     appConfig,
		statusManager: jsm,
		notifier:      notifier,
		logger:        logger,
		loc:           loc,
		now:           time.Now,
		entries:       make(map[string]cron.EntryID),
	}, nil
}

// Register adds every recurring pass of the configured sources plus the closing price job.
func (s *Scheduler) Register() error {
	sched := s.appConfig.Schedule
	hooks := s.appConfig.UptimeWebhooks

	for _, src := range s.appConfig.Sources {
		kind := src.Kind
		if kind == consts.SourceChainflip {
			if err := s.add("chainflip_sync", sched.ChainflipSync, chainflipSyncTimeout, hooks.ChainflipSyncURL,
				s.telemetry.SyncChainflip); err != nil {
				return err
			}
			continue
		}

		if err := s.add(jobName(kind, "live_tail"), sched.LiveTail, liveTailTimeout, hooks.LiveTailURL,
			func(ctx context.Context) error { return s.telemetry.LiveTail(ctx, kind) }); err != nil {
			return err
		}
		if err := s.add(jobName(kind, "pending_retry"), sched.PendingRetry, pendingRetryTimeout, hooks.PendingRetryURL,
			func(ctx context.Context) error { return s.telemetry.RetryPending(ctx, kind) }); err != nil {
			return err
		}
		if err := s.add(jobName(kind, "backfill"), sched.Backfill, backfillTimeout, hooks.BackfillURL,
			func(ctx context.Context) error { return s.telemetry.Backfill(ctx, kind) }); err != nil {
			return err
		}
		if src.Reconcile {
			if err := s.add(jobName(kind, "reconcile"), sched.Reconcile, reconcileTimeout, hooks.ReconcileURL,
				func(ctx context.Context) error {
					from, to := telemetry.ReconcileWindow(s.now(), s.loc)
					return s.telemetry.Reconcile(ctx, kind, from, to)
				}); err != nil {
				return err
			}
		}

		if s.appConfig.Ingestion.BackfillOnStart {
			s.addStartup(jobName(kind, "backfill"), backfillTimeout, hooks.BackfillURL,
				func(ctx context.Context) error { return s.telemetry.Backfill(ctx, kind) })
		}
		if s.appConfig.Ingestion.ForwardHistoryOnStart {
			s.addStartup(jobName(kind, "historical_forward"), forwardHistoryTimeout, "",
				func(ctx context.Context) error { return s.telemetry.ForwardHistory(ctx, kind) })
		}
	}

	return s.add(closingPriceJob, utcSpec(sched.ClosingPrice), closingPriceTimeout, hooks.ClosingPriceURL,
		s.telemetry.FetchClosingPrice)
}

func (s *Scheduler) add(name, spec string, timeout time.Duration, webhookURL string, fn monitoring.JobFunc) error {
	if strings.TrimSpace(spec) == "" {
		s.logger.Info("[Scheduler] job disabled, no schedule", map[string]string{"job": name})
		return nil
	}

	job := monitoring.NewInstrumentedJobWithWebhook(name, fn, s.statusManager, s.logger, timeout, s.notifier, webhookURL)
	id, err := s.cron.AddJob(spec, cron.FuncJob(func() {
		job.Run()
		s.refreshNextRun(name)
	}))
	if err != nil {
		return errors.Wrapf(err, "failed to schedule %s with %q", name, spec)
	}

	s.mu.Lock()
	s.entries[name] = id
	s.mu.Unlock()

	s.logger.Info("[Scheduler] job registered", map[string]string{
		"job":  name,
		"spec": spec,
	})
	return nil
}

func (s *Scheduler) addStartup(name string, timeout time.Duration, webhookURL string, fn monitoring.JobFunc) {
	s.startup = append(s.startup, monitoring.NewInstrumentedJobWithWebhook(
		name, fn, s.statusManager, s.logger, timeout, s.notifier, webhookURL))
}

// Start runs the cron loop and fires the startup passes in the background.
func (s *Scheduler) Start() {
	s.cron.Start()

	s.mu.Lock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	s.mu.Unlock()
	for _, name := range names {
		s.refreshNextRun(name)
	}

	for _, job := range s.startup {
		s.wg.Add(1)
		go func(job *monitoring.InstrumentedJob) {
			defer s.wg.Done()
			s.logger.Info("[Scheduler] running startup pass", map[string]string{"job": job.Name()})
			job.Run()
		}(job)
	}
}

// Stop stops scheduling and waits for running passes until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronCtx := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronCtx.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for name := range s.entries {
		out = append(out, name)
	}
	return out
}

func (s *Scheduler) refreshNextRun(name string) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return
	}
	if next := s.cron.Entry(id).Next; !next.IsZero() {
		s.statusManager.SetNextRun(name, next)
	}
}

func jobName(kind consts.SourceKind, pass string) string {
	return string(kind) + "_" + pass
}

// utcSpec pins a standard cron spec to UTC unless it names a zone or is a descriptor.
func utcSpec(spec string) string {
	spec = strings.TrimSpace(spec)
	if spec == "" || strings.HasPrefix(spec, "@") || strings.HasPrefix(spec, "CRON_TZ=") || strings.HasPrefix(spec, "TZ=") {
		return spec
	}
	return "CRON_TZ=UTC " + spec
}
