package seed_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/prospect/internal/adapters/http/api"
	"github.com/okian/prospect/internal/adapters/storage"
	service "github.com/okian/prospect/internal/app"
	"github.com/okian/prospect/internal/seed"
	"github.com/okian/prospect/pkg/logger"
)

func init() {
	_ = logger.InitWithWriter(io.Discard)
}

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	store, err := storage.Open(ctx, storage.DriverSQLite, filepath.Join(t.TempDir(), "seed.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	svc := service.New(store,
		service.WithWorkerCount(2),
		service.WithQueueSize(64),
		service.WithAutoRecompute(false),
	)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	srv := httptest.NewServer(api.NewServer(svc).Router(ctx))
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Stop(ctx)
		_ = store.Close()
	})
	return srv
}

func TestRun(t *testing.T) {
	Convey("Given a running scoring service", t, func() {
		srv := startServer(t)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		Convey("When it is seeded", func() {
			stats, err := seed.Run(ctx, &seed.Config{
				BaseURL:  srv.URL,
				Athletes: 6,
				Days:     14,
				TopN:     10,
				Workers:  3,
				Timeout:  5 * time.Second,
				Seed:     9,
			})

			Convey("Then every athlete is submitted and the leaderboard verifies", func() {
				So(err, ShouldBeNil)
				So(stats.Athletes, ShouldEqual, 6)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.LogsSubmitted, ShouldEqual, 6*14)
				So(stats.Scored+stats.InsufficientData, ShouldEqual, 6)
				So(stats.LeaderboardEntries, ShouldEqual, stats.Scored)
			})
		})

		Convey("When the client reads the API directly", func() {
			client := seed.NewClient(srv.URL, 5*time.Second)

			Convey("Then health succeeds and unknown athletes surface the status", func() {
				So(client.Health(ctx), ShouldBeNil)

				_, err := client.Rank(ctx, "ghost")
				var se *seed.StatusError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})

	Convey("Given an unreachable service", t, func() {
		_, err := seed.Run(context.Background(), &seed.Config{
			BaseURL: "http://127.0.0.1:1",
			Timeout: time.Second,
			Workers: 1,
		})

		Convey("Then the run fails at the health check", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
