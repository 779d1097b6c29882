package repository

import "time"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithSnapshotInterval sets how often the read snapshot is rebuilt.
func WithSnapshotInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval > 0 {
			s.snapshotInterval = interval
		}
	}
}

// WithTopCacheSize sets how many leaders the snapshot keeps.
func WithTopCacheSize(n int) Option {
	return func(s *TreapStore) {
		if n > 0 {
			s.topCacheSize = n
		}
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithSeed fixes the treap priority source, for reproducible tests.
func WithSeed(seed uint64) Option {
	return func(s *TreapStore) {
		s.seed = seed
	}
}
