// Package dedupe coalesces pending recompute requests so that an athlete is
// never queued twice for the same day.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records pending keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key is pending and records it if not.
	// Returns true if key was already pending.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord releases key once its request was processed or could not be
	// enqueued, so the next request for it is accepted.
	Unrecord(ctx context.Context, key string)

	// Size returns the number of pending keys known to this process.
	Size() int64

	Close() error
}

// inMemoryDeduper keeps keys in a map with an insertion-ordered list for
// eviction. When maxSize > 0 the oldest key is evicted to make room; when
// maxSize <= 0 it is unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[key] = d.order.PushBack(key)
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		d.order.Remove(el)
		delete(d.seen, key)
		d.size.Add(-1)
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	el := d.order.Front()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.seen, el.Value.(string))
	d.size.Add(-1)
}

func (d *inMemoryDeduper) Size() int64 { return d.size.Load() }

func (d *inMemoryDeduper) Close() error { return nil }
