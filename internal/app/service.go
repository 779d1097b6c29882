// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"hash/fnv"
	"runtime"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/okian/prospect/internal/adapters/mq/queue"
	"github.com/okian/prospect/internal/adapters/mq/worker"
	"github.com/okian/prospect/internal/adapters/repository"
	"github.com/okian/prospect/internal/adapters/storage"
	"github.com/okian/prospect/internal/domain/dedupe"
	"github.com/okian/prospect/internal/domain/scoring"
	"github.com/okian/prospect/pkg/logger"
	"github.com/okian/prospect/pkg/metrics"
)

const (
	defaultQueueSize  = 10000
	defaultDedupeSize = 50000
	defaultMaxHistory = 365
	athleteLockCount  = 64
)

// recomputeJob adapts Service.Recompute to worker.Recomputer.
type recomputeJob struct {
	s *Service
}

func (j recomputeJob) Recompute(ctx context.Context, r worker.Request) error { //nolint:gocritic // hugeParam: matches worker.Recomputer
	_, err := j.s.Recompute(ctx, r.AthleteID, r.AsOf)
	return err
}

// Service implements the API dependencies for the scoring system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   storage.Store
	ranking *repository.TreapStore
	deduper dedupe.Deduper
	queue   queue.Queue
	pool    *worker.Pool
	engine  *scoring.Engine
	clock   clock.Clock

	// Configuration
	workerCount       int
	queueSize         int
	dedupeSize        int
	recomputeInterval time.Duration
	maxHistory        int
	autoRecompute     bool

	// Recomputes of one athlete are serialized so snapshots and the
	// ranking observe them in order.
	athleteLocks [athleteLockCount]sync.Mutex

	// State
	started bool
	stopCh  chan struct{}
	sweepWG sync.WaitGroup

	logger logger.Logger
}

// New constructs a new Service around store.
func New(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		engine:      scoring.NewEngine(),
		clock:       clock.New(),
		workerCount: runtime.NumCPU() * 2,
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		maxHistory:  defaultMaxHistory,

		autoRecompute: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the ranking from stored snapshots and starts the workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting scoring service...")

	s.ranking = repository.NewTreapStore(ctx)
	if err := s.loadRanking(ctx); err != nil {
		_ = s.ranking.Close()
		return err
	}

	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	}
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, recomputeJob{s: s},
		worker.WithReleaser(s.deduper),
	)
	s.pool.Start(ctx)

	s.stopCh = make(chan struct{})
	if s.recomputeInterval > 0 {
		s.sweepWG.Add(1)
		go s.sweepLoop(ctx)
	}

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("ranked", s.ranking.Count(ctx)),
		logger.Duration("recomputeInterval", s.recomputeInterval),
	)
	return nil
}

func (s *Service) loadRanking(ctx context.Context) error {
	scores, err := s.store.LatestScores(ctx)
	if err != nil {
		return translate("load ranking", err)
	}
	for _, sc := range scores {
		if _, err := s.ranking.Update(ctx, sc.AthleteID, sc.Score); err != nil {
			s.logger.Warn(ctx, "skipping unrankable score",
				logger.String("athlete_id", sc.AthleteID),
				logger.Float64("score", sc.Score),
				logger.Error(err),
			)
		}
	}
	return nil
}

// Stop drains the recompute queue and shuts the components down.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	close(s.stopCh)
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping scoring service...")
	s.sweepWG.Wait()

	err := s.pool.Shutdown(ctx)
	if cerr := s.deduper.Close(); cerr != nil {
		s.logger.Warn(ctx, "error closing deduper", logger.Error(cerr))
	}
	_ = s.ranking.Close()

	s.logger.Info(ctx, "scoring service stopped")
	return err
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Service) athleteLock(athleteID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(athleteID))
	return &s.athleteLocks[h.Sum32()%athleteLockCount]
}

func (s *Service) sweepLoop(ctx context.Context) {
	defer s.sweepWG.Done()
	ticker := s.clock.Ticker(s.recomputeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep enqueues a recompute for every athlete as of now.
func (s *Service) sweep(ctx context.Context) {
	ids, err := s.store.AthleteIDs(ctx)
	if err != nil {
		s.logger.Error(ctx, "sweep failed to list athletes", logger.Error(err))
		return
	}
	now := s.clock.Now()
	var accepted, skipped int
	for _, id := range ids {
		if _, err := s.enqueue(ctx, id, now, "sweep"); err != nil {
			skipped++
			continue
		}
		accepted++
	}
	s.logger.Info(ctx, "recompute sweep",
		logger.Int("athletes", len(ids)),
		logger.Int("enqueued", accepted),
		logger.Int("skipped", skipped),
	)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":           s.started,
		"workerCount":       s.workerCount,
		"queueSize":         s.queueSize,
		"dedupeSize":        s.dedupeSize,
		"recomputeInterval": s.recomputeInterval.String(),
	}

	if s.started {
		queueLen := s.queue.Len()
		ranked := s.ranking.Count(ctx)

		stats["queueLength"] = queueLen
		stats["pendingRecomputes"] = s.deduper.Size()
		stats["rankedAthletes"] = ranked
		if snap := s.ranking.Snapshot(); snap != nil {
			stats["rankingSnapshotAt"] = snap.TakenAt.UTC().Format(time.RFC3339)
		}

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateAthletesRanked(ranked)
		metrics.UpdateWorkerCount(s.pool.Size())
	}

	return stats
}
