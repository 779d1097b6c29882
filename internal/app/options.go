package service

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/okian/prospect/internal/domain/dedupe"
	"github.com/okian/prospect/internal/domain/scoring"
	"github.com/okian/prospect/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of recompute workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending recompute requests.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the in-memory pending-request set.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDeduper replaces the in-memory deduper, e.g. with a Redis-backed one.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithEngine sets the MPI engine.
func WithEngine(e *scoring.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithRecomputeInterval enables a periodic sweep that recomputes every
// athlete. Zero disables it.
func WithRecomputeInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.recomputeInterval = d
		}
	}
}

// WithMaxHistory caps how many snapshots a history read returns.
func WithMaxHistory(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAutoRecompute controls whether writes schedule a recompute of the
// affected athlete. Enabled by default.
func WithAutoRecompute(enabled bool) Option {
	return func(s *Service) {
		s.autoRecompute = enabled
	}
}
