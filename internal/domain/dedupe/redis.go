package dedupe

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/okian/prospect/pkg/logger"
)

// redisDeduper shares pending keys across replicas with SET NX + TTL.
// On Redis errors it fails open: the request is treated as new.
type redisDeduper struct {
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
	log    logger.Logger
	size   atomic.Int64
}

// NewRedisDeduper creates a deduper backed by rdb. The caller keeps
// ownership of the client until Close.
func NewRedisDeduper(rdb goredis.UniversalClient, opts ...RedisOption) (Deduper, error) {
	if rdb == nil {
		return nil, ErrNilClient
	}
	d := &redisDeduper{
		rdb:    rdb,
		prefix: defaultKeyPrefix,
		ttl:    defaultTTL,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logger.Get().Named("dedupe")
	}
	return d, nil
}

// DialRedis connects to addr and verifies it with a PING.
func DialRedis(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (d *redisDeduper) SeenAndRecord(ctx context.Context, key string) bool {
	ok, err := d.rdb.SetNX(ctx, d.prefix+key, time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		d.log.Warn(ctx, "redis dedupe unavailable, accepting request", logger.String("key", key), logger.Error(err))
		return false
	}
	if !ok {
		return true
	}
	d.size.Add(1)
	return false
}

func (d *redisDeduper) Unrecord(ctx context.Context, key string) {
	n, err := d.rdb.Del(ctx, d.prefix+key).Result()
	if err != nil {
		d.log.Warn(ctx, "redis dedupe release failed", logger.String("key", key), logger.Error(err))
		return
	}
	if n > 0 {
		d.size.Add(-n)
	}
}

func (d *redisDeduper) Size() int64 { return d.size.Load() }

func (d *redisDeduper) Close() error {
	if err := d.rdb.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}
