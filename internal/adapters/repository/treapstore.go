package repository

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/prospect/internal/domain/scoring"
	"github.com/okian/prospect/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: score DESC, then athleteID ASC (deterministic). "less" means
// ranks earlier, so an in-order traversal yields the leaderboard from best to
// worst. A second treap holds each distinct score once; its subtree sizes
// give dense ranks in O(log n).

// scoreScale converts MPI scores to fixed point so equal scores compare equal.
const scoreScale = 1_000_000_000

const (
	defaultSnapshotInterval      = time.Second
	defaultTopCacheSize          = 500
	defaultMetricsUpdateInterval = 5 * time.Second
)

type scoreFP int64

func toFixedPoint(x float64) scoreFP { return scoreFP(math.Round(x * scoreScale)) }

func toFloat(x scoreFP) float64 { return float64(x) / scoreScale }

// Snapshot is an immutable view of the leaders published periodically.
type Snapshot struct {
	TakenAt time.Time
	Total   int
	// Version is the ranking version the snapshot was taken at.
	Version uint64
	// TopCache holds up to the configured number of leaders in rank order.
	TopCache []Entry
}

type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aScore, aID) ranks before (bScore, bID).
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n, nn *node) *node {
	if n == nil {
		return nn
	}
	if less(nn.score, nn.id, n.score, n.id) {
		n.left = insert(n.left, nn)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, nn)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countBefore returns how many nodes rank strictly before (score, id).
func countBefore(n *node, score scoreFP, id string) int {
	count := 0
	for n != nil {
		if less(n.score, n.id, score, id) {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collect appends up to limit entries in rank order with dense ranks.
func collect(n *node, limit int, total int, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collect(n.left, limit, total, out)
	if len(*out) < limit {
		score := toFloat(n.score)
		rank := 1
		if k := len(*out); k > 0 {
			prev := (*out)[k-1]
			rank = prev.Rank
			if prev.Score != score {
				rank++
			}
		}
		*out = append(*out, Entry{Rank: rank, AthleteID: n.id, Score: score, Percentile: scoring.Percentile(rank, total)})
	}
	collect(n.right, limit, total, out)
}

// TreapStore is a concurrency-safe Store.
type TreapStore struct {
	mu         sync.RWMutex
	root       *node
	distinct   *node
	scoreCount map[scoreFP]int
	byID       map[string]scoreFP
	rng        *rand.Rand
	seed       uint64
	version    uint64

	snapshotInterval      time.Duration
	topCacheSize          int
	metricsUpdateInterval time.Duration

	snapshot atomic.Pointer[Snapshot]

	wg        sync.WaitGroup
	stopChan  chan struct{}
	closeOnce sync.Once
}

// NewTreapStore constructs a treap store and starts its snapshot and metrics
// goroutines. They stop when ctx is done or Close is called.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		scoreCount:            make(map[scoreFP]int),
		byID:                  make(map[string]scoreFP),
		seed:                  uint64(time.Now().UnixNano()),
		snapshotInterval:      defaultSnapshotInterval,
		topCacheSize:          defaultTopCacheSize,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))

	s.publishSnapshot()
	s.every(ctx, s.snapshotInterval, s.publishSnapshot)
	s.every(ctx, s.metricsUpdateInterval, s.updateMetrics)
	return s
}

func (s *TreapStore) every(ctx context.Context, interval time.Duration, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// Close stops the background goroutines.
func (s *TreapStore) Close() error {
	s.closeOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// Update implements Store.Update in O(log n) expected time.
func (s *TreapStore) Update(_ context.Context, athleteID string, score float64) (bool, error) {
	start := time.Now()
	defer func() { metrics.RecordRankingUpdateLatency(sinceMs(start)) }()

	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 || score > 100 {
		metrics.RecordErrorByComponent("repository", "invalid_score")
		return false, ErrInvalidScore
	}
	ns := toFixedPoint(score)

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byID[athleteID]; ok {
		if old == ns {
			return false, nil
		}
		s.removeLocked(athleteID, old)
	}
	s.version++
	s.byID[athleteID] = ns
	s.root = insert(s.root, &node{id: athleteID, score: ns, prio: s.rng.Uint64(), size: 1})
	if s.scoreCount[ns]++; s.scoreCount[ns] == 1 {
		s.distinct = insert(s.distinct, &node{score: ns, prio: s.rng.Uint64(), size: 1})
	}
	return true, nil
}

func (s *TreapStore) removeLocked(athleteID string, score scoreFP) {
	s.root = deleteNode(s.root, athleteID, score)
	if s.scoreCount[score]--; s.scoreCount[score] <= 0 {
		delete(s.scoreCount, score)
		s.distinct = deleteNode(s.distinct, "", score)
	}
}

// Rank implements Store.Rank in O(log n).
func (s *TreapStore) Rank(_ context.Context, athleteID string) (Entry, error) {
	start := time.Now()
	defer func() { metrics.RecordRankingQueryLatency(sinceMs(start)) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	score, ok := s.byID[athleteID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	rank := countBefore(s.distinct, score, "") + 1
	return Entry{
		Rank:       rank,
		AthleteID:  athleteID,
		Score:      toFloat(score),
		Percentile: scoring.Percentile(rank, len(s.byID)),
	}, nil
}

// TopN implements Store.TopN. It serves from the published snapshot while
// no score has changed since it was taken and it holds enough leaders.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() { metrics.RecordRankingQueryLatency(sinceMs(start)) }()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if snap := s.snapshot.Load(); snap != nil && snap.Version == s.version &&
		(n <= len(snap.TopCache) || len(snap.TopCache) == snap.Total) {
		metrics.RecordRankingCacheHit()
		return append([]Entry(nil), snap.TopCache[:min(n, len(snap.TopCache))]...), nil
	}

	out := make([]Entry, 0, min(n, len(s.byID)))
	collect(s.root, n, len(s.byID), &out)
	return out, nil
}

// Count implements Store.Count.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Snapshot returns the most recently published snapshot.
func (s *TreapStore) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

func (s *TreapStore) publishSnapshot() {
	start := time.Now()

	s.mu.RLock()
	total := len(s.byID)
	snap := &Snapshot{
		Total:    total,
		Version:  s.version,
		TopCache: make([]Entry, 0, min(s.topCacheSize, total)),
	}
	collect(s.root, s.topCacheSize, total, &snap.TopCache)
	s.mu.RUnlock()

	snap.TakenAt = time.Now()
	s.snapshot.Store(snap)

	metrics.RecordRankingSnapshot(sinceMs(start), snap.TakenAt.Unix())
}

func (s *TreapStore) updateMetrics() {
	s.mu.RLock()
	n := len(s.byID)
	s.mu.RUnlock()
	metrics.UpdateAthletesRanked(n)
}
