package dedupe

import (
	"time"

	"github.com/okian/prospect/pkg/logger"
)

const (
	defaultMaxSize   = 50000
	defaultTTL       = 10 * time.Minute
	defaultKeyPrefix = "prospect:recompute:"
)

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets the maximum number of pending keys kept in memory.
// If maxSize <= 0 the deduper is unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// RedisOption applies a configuration option to the Redis deduper.
type RedisOption func(*redisDeduper)

// WithTTL bounds how long a key stays pending if it is never released.
func WithTTL(ttl time.Duration) RedisOption {
	return func(d *redisDeduper) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithKeyPrefix namespaces the keys written to Redis.
func WithKeyPrefix(prefix string) RedisOption {
	return func(d *redisDeduper) {
		if prefix != "" {
			d.prefix = prefix
		}
	}
}

// WithLogger sets the logger used to report Redis failures.
func WithLogger(l logger.Logger) RedisOption {
	return func(d *redisDeduper) {
		if l != nil {
			d.log = l
		}
	}
}
