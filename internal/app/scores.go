package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/prospect/internal/adapters/mq/queue"
	"github.com/okian/prospect/internal/adapters/repository"
	"github.com/okian/prospect/internal/adapters/storage"
	"github.com/okian/prospect/internal/domain/model"
	"github.com/okian/prospect/internal/domain/scoring"
	"github.com/okian/prospect/internal/domain/types"
	"github.com/okian/prospect/pkg/logger"
	"github.com/okian/prospect/pkg/metrics"
)

func (s *Service) rankingStore() (*repository.TreapStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ranking == nil {
		return nil, ErrNotStarted
	}
	return s.ranking, nil
}

// resolveAsOf defaults a zero asOf to now and rejects future days.
func (s *Service) resolveAsOf(asOf time.Time) (time.Time, error) {
	if asOf.IsZero() {
		return s.clock.Now().UTC(), nil
	}
	if err := s.notAfterToday("as_of", asOf); err != nil {
		return time.Time{}, err
	}
	return asOf.UTC(), nil
}

// Recompute calculates and appends a new MPI snapshot for the athlete and
// updates the ranking. A snapshot for a day before the athlete's latest one is
// kept as history and leaves the ranking untouched; its rank stays zero. A
// recompute for the latest snapshot's day supersedes it.
func (s *Service) Recompute(ctx context.Context, athleteID string, asOf time.Time) (model.CompositeScoreSnapshot, error) {
	start := time.Now()
	ranking, err := s.rankingStore()
	if err != nil {
		return model.CompositeScoreSnapshot{}, err
	}
	if asOf, err = s.resolveAsOf(asOf); err != nil {
		return model.CompositeScoreSnapshot{}, err
	}

	lock := s.athleteLock(athleteID)
	lock.Lock()
	defer lock.Unlock()

	in, latest, err := s.gatherInput(ctx, athleteID, asOf)
	if err != nil {
		metrics.RecordRecomputeError()
		return model.CompositeScoreSnapshot{}, err
	}

	res, err := s.engine.Compute(in)
	if err != nil {
		if errors.Is(err, scoring.ErrInsufficientData) {
			metrics.RecordInsufficientData()
		} else {
			metrics.RecordRecomputeError()
		}
		return model.CompositeScoreSnapshot{}, fmt.Errorf("athlete %s: %w", athleteID, err)
	}
	snap := res.Snapshot
	snap.ID = uuid.NewString()

	if latest == nil || !model.Day(asOf).Before(model.Day(latest.CalculatedAt)) {
		if latest != nil && !snap.CalculatedAt.After(latest.CalculatedAt) {
			snap.CalculatedAt = supersede(s.clock.Now().UTC(), latest.CalculatedAt)
		}
		if _, err := ranking.Update(ctx, athleteID, snap.AdjustedGlobalScore); err != nil {
			metrics.RecordRecomputeError()
			return model.CompositeScoreSnapshot{}, translate("rank athlete", err)
		}
		entry, err := ranking.Rank(ctx, athleteID)
		if err != nil {
			metrics.RecordRecomputeError()
			return model.CompositeScoreSnapshot{}, translate("rank athlete", err)
		}
		snap.GlobalRank = entry.Rank
		snap.Percentile = entry.Percentile
	}

	if err := s.store.AppendSnapshot(ctx, snap); err != nil {
		metrics.RecordRecomputeError()
		return model.CompositeScoreSnapshot{}, translate("append snapshot", err)
	}

	metrics.RecordSnapshotAppended()
	if err := metrics.RecordMPIScore(snap.AdjustedGlobalScore); err != nil {
		s.log().Warn(ctx, "mpi score not observed", logger.Error(err))
	}
	metrics.RecordRecompute(float64(time.Since(start).Microseconds()) / 1000)

	s.log().Debug(ctx, "mpi recomputed",
		logger.String("athlete_id", athleteID),
		logger.Float64("score", snap.AdjustedGlobalScore),
		logger.Int("rank", snap.GlobalRank),
		logger.String("trend", string(snap.Trend)),
	)
	return snap, nil
}

// supersede stamps a same-day snapshot so it orders after prev.
func supersede(now, prev time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Millisecond)
}

// gatherInput loads everything the engine needs, plus the athlete's latest snapshot.
func (s *Service) gatherInput(ctx context.Context, athleteID string, asOf time.Time) (scoring.MPIInput, *model.CompositeScoreSnapshot, error) {
	athlete, err := s.Athlete(ctx, athleteID)
	if err != nil {
		return scoring.MPIInput{}, nil, err
	}
	in := scoring.MPIInput{Athlete: athlete, AsOf: asOf}

	if in.Flags, err = s.store.Flags(ctx, athleteID); err != nil {
		return in, nil, translate("load flags", err)
	}

	// Verified sessions after the earliest active flag restore integrity,
	// so the session range reaches back to that flag when it is older.
	from := asOf.AddDate(0, 0, -s.engine.SessionWindowDays())
	for _, f := range in.Flags {
		if f.Active() && f.RaisedAt.Before(from) {
			from = f.RaisedAt
		}
	}
	if in.Sessions, err = s.store.Sessions(ctx, athleteID, from, asOf); err != nil {
		return in, nil, translate("load sessions", err)
	}
	if in.DailyLogs, err = s.store.DailyLogs(ctx, athleteID, asOf.AddDate(0, 0, -scoring.ConsistencyWindowDays), asOf); err != nil {
		return in, nil, translate("load daily logs", err)
	}

	if p, err := s.store.ProfessionalStatus(ctx, athleteID); err == nil {
		in.ProStatus = &p
	} else if !errors.Is(err, storage.ErrNotFound) {
		return in, nil, translate("load professional status", err)
	}

	if prev, err := s.store.SnapshotAtOrBefore(ctx, athleteID, scoring.TrendLookback(asOf)); err == nil {
		in.Previous = &prev
	} else if !errors.Is(err, storage.ErrNotFound) {
		return in, nil, translate("load previous snapshot", err)
	}

	var latest *model.CompositeScoreSnapshot
	if l, err := s.store.LatestSnapshot(ctx, athleteID); err == nil {
		latest = &l
	} else if !errors.Is(err, storage.ErrNotFound) {
		return in, nil, translate("load latest snapshot", err)
	}
	return in, latest, nil
}

// RequestRecompute schedules an asynchronous recompute. A request for the same
// athlete and day that is still pending is reported as a duplicate.
func (s *Service) RequestRecompute(ctx context.Context, athleteID string, asOf time.Time) (types.RecomputeStatus, error) {
	if !s.isStarted() {
		return "", ErrNotStarted
	}
	if _, err := s.Athlete(ctx, athleteID); err != nil {
		return "", err
	}
	asOf, err := s.resolveAsOf(asOf)
	if err != nil {
		return "", err
	}
	return s.enqueue(ctx, athleteID, asOf, "requested")
}

func (s *Service) enqueue(ctx context.Context, athleteID string, asOf time.Time, reason string) (types.RecomputeStatus, error) {
	s.mu.RLock()
	q, d := s.queue, s.deduper
	s.mu.RUnlock()
	if q == nil || d == nil {
		return "", ErrNotStarted
	}

	req := model.RecomputeRequest{
		ID:         uuid.NewString(),
		AthleteID:  athleteID,
		AsOf:       asOf,
		Reason:     reason,
		EnqueuedAt: s.clock.Now().UTC(),
	}
	key := req.Key()
	if d.SeenAndRecord(ctx, key) {
		metrics.RecordRecomputeDuplicate()
		return types.RecomputeDuplicate, nil
	}
	if err := q.Enqueue(ctx, req); err != nil {
		d.Unrecord(ctx, key)
		if errors.Is(err, queue.ErrFull) {
			return "", fmt.Errorf("enqueue %s: %w", key, ErrBackpressure)
		}
		if errors.Is(err, queue.ErrClosed) {
			return "", fmt.Errorf("enqueue %s: %w", key, ErrNotStarted)
		}
		return "", fmt.Errorf("enqueue %s: %w", key, err)
	}
	return types.RecomputeAccepted, nil
}

// LatestScore returns the athlete's most recent snapshot. An athlete who was
// never scored yields scoring.ErrInsufficientData.
func (s *Service) LatestScore(ctx context.Context, athleteID string) (model.CompositeScoreSnapshot, error) {
	if _, err := s.Athlete(ctx, athleteID); err != nil {
		return model.CompositeScoreSnapshot{}, err
	}
	snap, err := s.store.LatestSnapshot(ctx, athleteID)
	if errors.Is(err, storage.ErrNotFound) {
		return model.CompositeScoreSnapshot{}, fmt.Errorf("athlete %s: %w", athleteID, scoring.ErrInsufficientData)
	}
	if err != nil {
		return model.CompositeScoreSnapshot{}, translate("latest score", err)
	}
	return snap, nil
}

// ScoreHistory returns up to limit snapshots, newest first.
func (s *Service) ScoreHistory(ctx context.Context, athleteID string, limit int) ([]model.CompositeScoreSnapshot, error) {
	if _, err := s.Athlete(ctx, athleteID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.maxHistory {
		limit = s.maxHistory
	}
	out, err := s.store.Snapshots(ctx, athleteID, limit)
	if err != nil {
		return nil, translate("score history", err)
	}
	return out, nil
}

func (s *Service) logsFor(ctx context.Context, athleteID string, asOf time.Time, days int) (time.Time, []model.DailyLogEntry, error) {
	if _, err := s.Athlete(ctx, athleteID); err != nil {
		return time.Time{}, nil, err
	}
	asOf, err := s.resolveAsOf(asOf)
	if err != nil {
		return time.Time{}, nil, err
	}
	logs, err := s.store.DailyLogs(ctx, athleteID, asOf.AddDate(0, 0, -days), asOf)
	if err != nil {
		return time.Time{}, nil, translate("daily logs", err)
	}
	return asOf, logs, nil
}

// Consistency scores the athlete's logging over the 30 days ending at asOf.
func (s *Service) Consistency(ctx context.Context, athleteID string, asOf time.Time) (scoring.ConsistencyResult, error) {
	asOf, logs, err := s.logsFor(ctx, athleteID, asOf, scoring.ConsistencyWindowDays)
	if err != nil {
		return scoring.ConsistencyResult{}, err
	}
	return scoring.Consistency(logs, asOf), nil
}

// Streaks returns the performance and discipline streaks ending at asOf.
func (s *Service) Streaks(ctx context.Context, athleteID string, asOf time.Time) (scoring.StreakResult, error) {
	asOf, logs, err := s.logsFor(ctx, athleteID, asOf, scoring.StreakHorizonDays)
	if err != nil {
		return scoring.StreakResult{}, err
	}
	return scoring.DualStreaks(logs, asOf), nil
}

// Fatigue evaluates the athlete's latest wellness readings as of asOf.
func (s *Service) Fatigue(ctx context.Context, athleteID string, asOf time.Time) (scoring.FatigueResult, error) {
	asOf, logs, err := s.logsFor(ctx, athleteID, asOf, scoring.ConsistencyWindowDays)
	if err != nil {
		return scoring.FatigueResult{}, err
	}
	return s.engine.Fatigue(logs, asOf), nil
}

// HoF checks Hall of Fame eligibility from the athlete's professional status
// and latest pro probability.
func (s *Service) HoF(ctx context.Context, athleteID string) (scoring.HoFResult, error) {
	a, err := s.Athlete(ctx, athleteID)
	if err != nil {
		return scoring.HoFResult{}, err
	}

	var seasons map[string]int
	probability := 0.0
	p, err := s.store.ProfessionalStatus(ctx, athleteID)
	switch {
	case err == nil:
		seasons = p.Seasons
		if p.Verified {
			probability = scoring.VerifiedProProbability
		}
	case !errors.Is(err, storage.ErrNotFound):
		return scoring.HoFResult{}, translate("professional status", err)
	}

	if probability < scoring.VerifiedProProbability {
		snap, err := s.store.LatestSnapshot(ctx, athleteID)
		switch {
		case err == nil:
			probability = snap.ProProbability
		case !errors.Is(err, storage.ErrNotFound):
			return scoring.HoFResult{}, translate("latest score", err)
		}
	}
	return scoring.CheckHoF(probability, seasons, a.Sport), nil
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	ranking, err := s.rankingStore()
	if err != nil {
		return nil, err
	}
	entries, err := ranking.TopN(ctx, n)
	if err != nil {
		return nil, translate("leaderboard", err)
	}

	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = types.Entry{Rank: e.Rank, AthleteID: e.AthleteID, Score: e.Score, Percentile: e.Percentile}
	}
	return out, nil
}

// Rank returns the live rank, score and percentile for an athlete.
func (s *Service) Rank(ctx context.Context, athleteID string) (types.Entry, error) {
	ranking, err := s.rankingStore()
	if err != nil {
		return types.Entry{}, err
	}
	e, err := ranking.Rank(ctx, athleteID)
	if err != nil {
		return types.Entry{}, translate("rank "+athleteID, err)
	}
	return types.Entry{Rank: e.Rank, AthleteID: e.AthleteID, Score: e.Score, Percentile: e.Percentile}, nil
}
