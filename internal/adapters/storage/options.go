package storage

import (
	"time"

	"github.com/okian/prospect/pkg/logger"
)

// Option applies a configuration option to the GormStore.
type Option func(*GormStore)

// WithLogger sets the logger used for slow and failed queries.
func WithLogger(l logger.Logger) Option {
	return func(s *GormStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSlowThreshold sets the duration above which queries are logged as slow.
func WithSlowThreshold(d time.Duration) Option {
	return func(s *GormStore) {
		if d > 0 {
			s.slowThreshold = d
		}
	}
}
