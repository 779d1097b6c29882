package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/prospect/internal/adapters/http/api"
	"github.com/okian/prospect/internal/adapters/storage"
	service "github.com/okian/prospect/internal/app"
	"github.com/okian/prospect/internal/config"
	"github.com/okian/prospect/internal/domain/model"
	"github.com/okian/prospect/internal/domain/types"
	"github.com/okian/prospect/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.InitWithWriter(io.Discard)
}

func TestServiceOptions(t *testing.T) {
	convey.Convey("Given a default configuration", t, func() {
		cfg := config.New()
		ctx := context.Background()

		convey.Convey("When the in-memory dedupe backend is selected", func() {
			opts, err := serviceOptions(ctx, cfg, logger.Get())

			convey.Convey("Then the base options are produced without dialing redis", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(opts), convey.ShouldEqual, 6)
			})
		})

		convey.Convey("When redis is selected but unreachable", func() {
			cfg.DedupeBackend = config.DedupeRedis
			cfg.RedisAddr = "127.0.0.1:1"
			dialCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			_, err := serviceOptions(dialCtx, cfg, logger.Get())

			convey.Convey("Then startup fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestWiredRouter(t *testing.T) {
	convey.Convey("Given a service wired the way main wires it", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.WorkerCount = 2
		cfg.QueueSize = 16

		store, err := storage.Open(ctx, storage.DriverSQLite, filepath.Join(t.TempDir(), "main.db"))
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = store.Close() }()

		opts, err := serviceOptions(ctx, cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		svc := service.New(store, opts...)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		router := api.NewServer(svc, api.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit)).Router(ctx)

		convey.Convey("When probing health, docs and metrics", func() {
			for _, path := range []string{"/healthz", "/api-docs", "/openapi.yaml", "/metrics", "/leaderboard"} {
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("When the service metrics updater runs", func() {
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestStartServiceOutlivesSignal(t *testing.T) {
	convey.Convey("Given a service started from a signal context", t, func() {
		bg := context.Background()
		cfg := config.New()
		cfg.WorkerCount = 1

		store, err := storage.Open(bg, storage.DriverSQLite, filepath.Join(t.TempDir(), "signal.db"))
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = store.Close() }()

		opts, err := serviceOptions(bg, cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		svc := service.New(store, opts...)

		_, err = svc.RegisterAthlete(bg, model.Athlete{
			ID: "a1", Sport: model.SportBaseball, BirthDate: time.Date(2004, 5, 1, 0, 0, 0, 0, time.UTC),
			Tier: "ncaa_d1", Position: "ss",
		})
		convey.So(err, convey.ShouldBeNil)
		_, err = svc.RecordSession(bg, model.PerformanceSession{
			AthleteID: "a1", Type: model.SessionPersonalPractice, Date: time.Now().UTC(),
			Blocks: []model.DrillBlock{{DrillType: "tee", Reps: 10, ExecutionGrade: 50}},
		})
		convey.So(err, convey.ShouldBeNil)

		sigCtx, cancel := context.WithCancel(bg)
		convey.So(startService(sigCtx, svc), convey.ShouldBeNil)
		cancel()

		convey.Convey("When a recompute is queued after the signal and the service stops", func() {
			status, err := svc.RequestRecompute(bg, "a1", time.Time{})
			convey.So(err, convey.ShouldBeNil)
			convey.So(status, convey.ShouldEqual, types.RecomputeAccepted)
			convey.So(svc.Stop(bg), convey.ShouldBeNil)

			convey.Convey("Then the queued recompute was drained", func() {
				snap, err := svc.LatestScore(bg, "a1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(snap.AdjustedGlobalScore, convey.ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metrics updaters", t, func() {
		convey.Convey("When the system metrics are refreshed", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("When the updater context is cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				close(done)
			}()

			convey.Convey("Then the loop returns", func() {
				select {
				case <-done:
				case <-time.After(2 * time.Second):
					convey.So("updater still running", convey.ShouldBeEmpty)
				}
			})
		})
	})
}
