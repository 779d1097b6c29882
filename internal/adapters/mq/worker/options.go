package worker

import (
	"time"

	"github.com/okian/prospect/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithReleaser releases each request's dedupe key once it is processed.
func WithReleaser(r Releaser) Option {
	return func(w *InMemoryWorker) {
		w.releaser = r
	}
}

// WithJobTimeout bounds a single recompute.
func WithJobTimeout(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.jobTimeout = d
		}
	}
}
