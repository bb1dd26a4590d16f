package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dwarvesf/swap-history/internal/checkpoint"
	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/feed/chainflip"
	"github.com/dwarvesf/swap-history/internal/feed/gate"
	"github.com/dwarvesf/swap-history/internal/feed/midgard"
	"github.com/dwarvesf/swap-history/internal/handler"
	"github.com/dwarvesf/swap-history/internal/handler/health"
	"github.com/dwarvesf/swap-history/internal/handler/metrics"
	"github.com/dwarvesf/swap-history/internal/monitoring"
	"github.com/dwarvesf/swap-history/internal/pending"
	"github.com/dwarvesf/swap-history/internal/pricefeed/coingecko"
	"github.com/dwarvesf/swap-history/internal/scheduler"
	"github.com/dwarvesf/swap-history/internal/store"
	pgstore "github.com/dwarvesf/swap-history/internal/store/postgres"
	"github.com/dwarvesf/swap-history/internal/telemetry"
	transport "github.com/dwarvesf/swap-history/internal/transport/http"
	"github.com/dwarvesf/swap-history/internal/utils/config"
	"github.com/dwarvesf/swap-history/internal/utils/logger"
	"github.com/dwarvesf/swap-history/internal/utils/vault"
	"github.com/dwarvesf/swap-history/internal/utils/webhook"
)

const shutdownTimeout = 30 * time.Second

func Init() {
	appConfig := config.New()

	var opts []logger.Option
	if appConfig.LogFile != "" {
		opts = append(opts, logger.WithFileRotation(appConfig.LogFile))
	}
	logger := logger.New(appConfig.Environment, opts...)
	defer logger.Sync()

	if appConfig.Vault.Addr != "" {
		vc := vault.New(appConfig.Vault)
		err := vault.Apply(context.Background(), vc, appConfig)
		vc.Close()
		if err != nil {
			logger.Fatal("[Init][vault.Apply] failed to load secrets", map[string]string{
				"error": err.Error(),
			})
		}
	}

	if err := appConfig.Validate(); err != nil {
		logger.Fatal("[Init][Validate] invalid configuration", map[string]string{
			"error": err.Error(),
		})
	}

	db := pgstore.New(appConfig, logger)
	s := store.New()

	apiMetrics := monitoring.NewExternalAPIMetrics()
	ingestionMetrics := monitoring.NewIngestionMetrics()
	jobMetrics := monitoring.NewBackgroundJobMetrics()
	httpMetrics := monitoring.NewHTTPMetrics()
	registry := metrics.NewRegistry(apiMetrics, ingestionMetrics, jobMetrics, httpMetrics)

	feeds, breakers := newFeeds(appConfig, logger, apiMetrics)
	pendingRegistry := pending.NewRegistry()

	tel := telemetry.New(db, s, appConfig, logger, feeds,
		checkpoint.NewOnDisk(appConfig.Ingestion.CheckpointDir), pendingRegistry, ingestionMetrics)

	jobStatusManager := monitoring.NewJobStatusManager(logger, jobMetrics)
	defer jobStatusManager.Stop()

	uptime := webhook.New(logger)
	defer uptime.Close()

	sched, err := scheduler.New(appConfig, logger, tel, jobStatusManager, uptime)
	if err != nil {
		logger.Fatal("[Init][scheduler.New] failed to create scheduler", map[string]string{
			"error": err.Error(),
		})
	}
	if err := sched.Register(); err != nil {
		logger.Fatal("[Init][Register] failed to register jobs", map[string]string{
			"error": err.Error(),
		})
	}

	h := handler.New(appConfig, logger, db, s, handler.Upstreams{
		Breakers:         breakers,
		Pending:          pendingRegistry,
		JobStatusManager: jobStatusManager,
	}, monitoring.NewQueryMetricsRecorder(httpMetrics), registry)

	srv := &http.Server{
		Addr:              ":" + appConfig.ApiServer.Port,
		Handler:           transport.NewHttpServer(appConfig, logger, h, httpMetrics),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched.Start()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", map[string]string{"addr": srv.Addr})
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("[Init][ListenAndServe] http server stopped", map[string]string{
				"error": err.Error(),
			})
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("[Init][Shutdown] http server shutdown", map[string]string{
			"error": err.Error(),
		})
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Error("[Init][Stop] jobs still running at shutdown", map[string]string{
			"error": err.Error(),
		})
	}
	if err := feeds.Close(); err != nil {
		logger.Error("[Init][Close] failed to close upstream clients", map[string]string{
			"error": err.Error(),
		})
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

// newFeeds builds one client per configured source behind its own circuit breaker.
// Sources on the same host share a gate.
func newFeeds(appConfig *config.AppConfig, logger *logger.Logger, apiMetrics *monitoring.ExternalAPIMetrics) (telemetry.Feeds, map[string]health.BreakerState) {
	feeds := telemetry.Feeds{
		Midgard: make(map[consts.SourceKind]midgard.IMidgard),
		Prices:  coingecko.New(appConfig.CoinGecko, logger),
	}
	breakers := make(map[string]health.BreakerState)
	gates := make(map[string]*gate.Gate)

	gateFor := func(baseURL string, interval time.Duration) *gate.Gate {
		g, ok := gates[baseURL]
		if !ok {
			g = gate.New(interval)
			gates[baseURL] = g
		}
		return g
	}

	for _, src := range appConfig.Sources {
		if src.Kind == consts.SourceChainflip {
			client := chainflip.New(appConfig.Chainflip, gateFor(src.BaseURL, appConfig.RequestInterval(src.Kind)), logger)
			cb := monitoring.NewCircuitBreakerChainflip(client, monitoring.BreakerFor("chainflip"), apiMetrics, logger)
			feeds.Chainflip = cb
			breakers["chainflip"] = cb
			continue
		}

		name := "midgard_" + string(src.Kind)
		client := midgard.New(src, appConfig.Midgard, gateFor(src.BaseURL, appConfig.RequestInterval(src.Kind)), logger)
		cb := monitoring.NewCircuitBreakerMidgard(name, client, monitoring.BreakerFor("midgard"), apiMetrics, logger)
		feeds.Midgard[src.Kind] = cb
		breakers[name] = cb
	}

	return feeds, breakers
}
