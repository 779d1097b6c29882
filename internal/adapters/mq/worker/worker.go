// Package worker drains the recompute queue and runs MPI recalculations.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/prospect/internal/adapters/mq/queue"
	"github.com/okian/prospect/internal/domain/scoring"
	"github.com/okian/prospect/pkg/logger"
	"github.com/okian/prospect/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2
	defaultJobTimeout       = 30 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Request is what workers read off the queue.
type Request = queue.Request

// Recomputer recalculates an athlete's MPI for a request.
type Recomputer interface {
	Recompute(ctx context.Context, r Request) error
}

// Releaser frees the pending marker of a processed request.
type Releaser interface {
	Unrecord(ctx context.Context, key string)
}

// Source defines how workers receive requests.
type Source interface {
	Requests() <-chan Request
}

// Worker processes recompute requests.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the source closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current request.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	source     Source
	recomputer Recomputer
	releaser   Releaser
	name       string
	jobTimeout time.Duration

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(source Source, recomputer Recomputer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		source:     source,
		recomputer: recomputer,
		name:       "worker",
		jobTimeout: defaultJobTimeout,
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.source.Requests()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-requests:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			if err := w.process(ctx, r); err != nil {
				w.logger.Error(ctx, "recompute failed",
					logger.String("request_id", r.ID),
					logger.String("athlete_id", r.AthleteID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker and waits for its loop to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, r Request) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	metrics.WorkerBusy(1)
	defer func() {
		metrics.WorkerBusy(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()
	if w.releaser != nil {
		defer w.releaser.Unrecord(ctx, r.Key())
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	err := w.recomputer.Recompute(jobCtx, r)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, scoring.ErrInsufficientData):
		w.logger.Debug(ctx, "skipped recompute", logger.String("athlete_id", r.AthleteID), logger.Error(err))
		return nil
	default:
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "recompute_error")
		return fmt.Errorf("recompute %s: %w", r.Key(), err)
	}
}

// Pool manages multiple workers sharing one source.
type Pool struct {
	workers []*InMemoryWorker
	source  Source
	wg      sync.WaitGroup
	logger  logger.Logger
}

// NewPool creates workerCount workers. A count below one defaults to twice
// the number of CPUs. Options apply to every worker; names are assigned
// per worker.
func NewPool(workerCount int, source Source, recomputer Recomputer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		source:  source,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append(append([]Option{}, opts...), WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(source, recomputer, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the source if it can be closed, lets workers drain what
// is already queued, and waits for them to exit.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	finished := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-shutdownCtx.Done():
		for _, w := range p.workers {
			w.shutdownOnce.Do(func() { close(w.shutdown) })
		}
		p.logger.Warn(ctx, "worker pool shutdown timed out")
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
}
