package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/prospect/internal/adapters/http/api"
	"github.com/okian/prospect/internal/adapters/storage"
	service "github.com/okian/prospect/internal/app"
	"github.com/okian/prospect/internal/config"
	"github.com/okian/prospect/internal/domain/dedupe"
	"github.com/okian/prospect/internal/domain/scoring"
	"github.com/okian/prospect/pkg/logger"
	"github.com/okian/prospect/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := run(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run() error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN, storage.WithLogger(log.Named("storage")))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "closing storage", logger.Error(err))
		}
	}()

	opts, err := serviceOptions(ctx, cfg, log)
	if err != nil {
		return err
	}
	svc := service.New(store, opts...)
	if err := startService(ctx, svc); err != nil {
		return err
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	apiServer := api.NewServer(svc,
		api.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
		api.WithLogger(log.Named("http")),
	)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Router(ctx),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// startService starts svc on a context that outlives the shutdown signal, so
// Stop can still drain queued recomputes once ctx is cancelled.
func startService(ctx context.Context, svc *service.Service) error {
	return svc.Start(context.WithoutCancel(ctx))
}

// serviceOptions translates the loaded configuration into service options.
func serviceOptions(ctx context.Context, cfg *config.Config, log logger.Logger) ([]service.Option, error) {
	tables := scoring.NewWeightTables(
		scoring.WithTierWeights(cfg.TierWeights),
		scoring.WithPositionWeights(cfg.PositionWeights),
		scoring.WithPitchTypeWeights(cfg.PitchTypeWeights),
	)
	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithEngine(scoring.NewEngine(scoring.WithWeightTables(tables))),
		service.WithRecomputeInterval(cfg.RecomputeInterval()),
	}

	if cfg.DedupeBackend == config.DedupeRedis {
		rdb, err := dedupe.DialRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		d, err := dedupe.NewRedisDeduper(rdb,
			dedupe.WithTTL(cfg.DedupeTTL()),
			dedupe.WithLogger(log.Named("dedupe")),
		)
		if err != nil {
			_ = rdb.Close()
			return nil, err
		}
		opts = append(opts, service.WithDeduper(d))
	}
	return opts, nil
}

// startSystemMetricsUpdater periodically publishes runtime metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes queue and ranking gauges; GetStats publishes them.
func updateServiceMetrics(svc *service.Service) {
	_ = svc.GetStats()
}
