package worker_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/prospect/internal/adapters/mq/queue"
	worker "github.com/okian/prospect/internal/adapters/mq/worker"
	model "github.com/okian/prospect/internal/domain/model"
	scoring "github.com/okian/prospect/internal/domain/scoring"
	logging "github.com/okian/prospect/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

var asOf = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func req(athleteID string) queue.Request {
	return model.RecomputeRequest{ID: "r-" + athleteID, AthleteID: athleteID, AsOf: asOf, Reason: "test"}
}

type mockRecomputer struct {
	mu     sync.Mutex
	done   map[string]int
	errors map[string]error
	delay  time.Duration
}

func newMockRecomputer() *mockRecomputer {
	return &mockRecomputer{done: make(map[string]int), errors: make(map[string]error)}
}

func (m *mockRecomputer) Recompute(ctx context.Context, r queue.Request) error { //nolint:gocritic // test double
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.errors[r.AthleteID]; ok {
		return err
	}
	m.done[r.AthleteID]++
	return nil
}

func (m *mockRecomputer) setError(athleteID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[athleteID] = err
}

func (m *mockRecomputer) count(athleteID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done[athleteID]
}

func (m *mockRecomputer) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.done {
		n += c
	}
	return n
}

type mockReleaser struct {
	mu   sync.Mutex
	keys []string
}

func (m *mockReleaser) Unrecord(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
}

func (m *mockReleaser) released() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.keys...)
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		_ = logging.InitWithWriter(io.Discard)

		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		rec := newMockRecomputer()
		rel := &mockReleaser{}
		w := worker.NewInMemoryWorker(q, rec, worker.WithName("test-worker"), worker.WithReleaser(rel))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a request is processed", func() {
			convey.So(q.Enqueue(ctx, req("a1")), convey.ShouldBeNil)

			convey.Convey("Then the athlete is recomputed and the key released", func() {
				convey.So(eventually(func() bool { return len(rel.released()) == 1 }), convey.ShouldBeTrue)
				convey.So(rec.count("a1"), convey.ShouldEqual, 1)
				convey.So(rel.released()[0], convey.ShouldEqual, "a1@2025-06-01")
			})
		})

		convey.Convey("When the recompute fails", func() {
			rec.setError("a2", errors.New("storage unavailable"))
			convey.So(q.Enqueue(ctx, req("a2")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, req("a3")), convey.ShouldBeNil)

			convey.Convey("Then the key is still released and the worker keeps going", func() {
				convey.So(eventually(func() bool { return len(rel.released()) == 2 }), convey.ShouldBeTrue)
				convey.So(rec.count("a2"), convey.ShouldEqual, 0)
				convey.So(rec.count("a3"), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the athlete has insufficient data", func() {
			rec.setError("a4", fmt.Errorf("athlete a4: %w", scoring.ErrInsufficientData))
			convey.So(q.Enqueue(ctx, req("a4")), convey.ShouldBeNil)

			convey.Convey("Then the request is consumed without failing the worker", func() {
				convey.So(eventually(func() bool { return len(rel.released()) == 1 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shutting down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.Convey("Then it should stop gracefully", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker whose context is cancelled", t, func() {
		_ = logging.InitWithWriter(io.Discard)
		q := queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(q, newMockRecomputer())

		ctx, cancel := context.WithCancel(context.Background())
		stopped := make(chan struct{})
		go func() {
			w.Run(ctx)
			close(stopped)
		}()
		cancel()

		convey.Convey("Then Run returns", func() {
			select {
			case <-stopped:
			case <-time.After(time.Second):
				t.Fatal("worker did not stop")
			}
		})
	})

	convey.Convey("Given a slow recompute and a short job timeout", t, func() {
		_ = logging.InitWithWriter(io.Discard)
		q := queue.NewInMemoryQueue()
		rec := newMockRecomputer()
		rec.delay = time.Second
		rel := &mockReleaser{}
		w := worker.NewInMemoryWorker(q, rec, worker.WithJobTimeout(20*time.Millisecond), worker.WithReleaser(rel))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)
		convey.So(q.Enqueue(ctx, req("slow")), convey.ShouldBeNil)

		convey.Convey("Then the job is abandoned and its key released", func() {
			convey.So(eventually(func() bool { return len(rel.released()) == 1 }), convey.ShouldBeTrue)
			convey.So(rec.count("slow"), convey.ShouldEqual, 0)
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		_ = logging.InitWithWriter(io.Discard)

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, queue.NewInMemoryQueue(), newMockRecomputer())

			convey.Convey("Then it defaults to a CPU-derived size", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When processing many concurrent requests", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(1000))
			rec := newMockRecomputer()
			rel := &mockReleaser{}
			pool := worker.NewPool(4, q, rec, worker.WithReleaser(rel))
			ctx := context.Background()
			pool.Start(ctx)

			for i := 0; i < 200; i++ {
				convey.So(q.Enqueue(ctx, req(fmt.Sprintf("a%d", i))), convey.ShouldBeNil)
			}

			convey.Convey("Then shutdown drains every queued request", func() {
				sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
				defer cancel()
				convey.So(pool.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(rec.total(), convey.ShouldEqual, 200)
				convey.So(len(rel.released()), convey.ShouldEqual, 200)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}
