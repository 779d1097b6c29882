package seed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/prospect/pkg/logger"
)

// Run seeds the service, scores every athlete and verifies the leaderboard.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("seed")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting prospect seed",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("athletes", cfg.Athletes),
		logger.Int("days", cfg.Days),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	plans := Generate(cfg, time.Now().UTC())
	stats.Athletes = len(plans)
	log.Info(ctx, "generated plans", logger.Int("count", len(plans)))

	scores := submit(ctx, client, cfg, plans, stats)
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	board, err := client.Leaderboard(ctx, min(cfg.TopN, max(len(scores), 1)))
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.LeaderboardEntries = len(board)

	ranks := make(map[string]Entry, len(board))
	for _, e := range board {
		r, err := client.Rank(ctx, e.AthleteID)
		if err != nil {
			return stats, fmt.Errorf("rank %s: %w", e.AthleteID, err)
		}
		ranks[e.AthleteID] = r
	}
	if err := VerifyLeaderboard(board, ranks, scores); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats, board)
	return stats, nil
}

// submit sends every plan with cfg.Workers submitters and returns the
// adjusted score of each athlete that could be scored.
func submit(ctx context.Context, client *Client, cfg *Config, plans []Plan, stats *Stats) map[string]float64 {
	log := logger.Get().Named("seed")

	var (
		logs, sessions, scored, insufficient, failed atomic.Int64
		mu                                           sync.Mutex
		wg                                           sync.WaitGroup
	)
	scores := make(map[string]float64, len(plans))

	planChan := make(chan Plan, cfg.Workers*2)
	for range max(cfg.Workers, 1) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range planChan {
				score, err := submitPlan(ctx, client, p, &logs, &sessions)
				var se *StatusError
				switch {
				case err == nil:
					scored.Add(1)
					mu.Lock()
					scores[p.Athlete.ID] = score
					mu.Unlock()
				case errors.As(err, &se) && se.Code == http.StatusUnprocessableEntity:
					insufficient.Add(1)
				default:
					failed.Add(1)
					log.Warn(ctx, "athlete submission failed", logger.String("athlete_id", p.Athlete.ID), logger.Error(err))
					continue
				}
				if cfg.Verbose {
					log.Info(ctx, "athlete submitted",
						logger.String("athlete_id", p.Athlete.ID),
						logger.Float64("score", score))
				}
			}
		}()
	}

feed:
	for _, p := range plans {
		select {
		case <-ctx.Done():
			break feed
		case planChan <- p:
		}
	}
	close(planChan)
	wg.Wait()

	stats.LogsSubmitted = int(logs.Load())
	stats.SessionsSubmitted = int(sessions.Load())
	stats.Scored = int(scored.Load())
	stats.InsufficientData = int(insufficient.Load())
	stats.Failed = int(failed.Load())
	return scores
}

func submitPlan(ctx context.Context, client *Client, p Plan, logs, sessions *atomic.Int64) (float64, error) {
	if err := client.PutAthlete(ctx, p.Athlete); err != nil {
		return 0, err
	}
	for _, e := range p.Logs {
		if err := client.PutDailyLog(ctx, e); err != nil {
			return 0, err
		}
		logs.Add(1)
	}
	for _, s := range p.Sessions {
		if _, err := client.PostSession(ctx, s); err != nil {
			return 0, err
		}
		sessions.Add(1)
	}
	snap, err := client.Recompute(ctx, p.Athlete.ID)
	if err != nil {
		return 0, err
	}
	return snap.AdjustedGlobalScore, nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats, board []Entry) {
	for _, e := range board[:min(len(board), 10)] {
		log.Info(ctx, "leader",
			logger.Int("rank", e.Rank),
			logger.String("athlete_id", e.AthleteID),
			logger.Float64("score", e.Score),
			logger.Float64("percentile", e.Percentile))
	}
	log.Info(ctx, "final statistics",
		logger.Int("athletes", stats.Athletes),
		logger.Int("logsSubmitted", stats.LogsSubmitted),
		logger.Int("sessionsSubmitted", stats.SessionsSubmitted),
		logger.Int("scored", stats.Scored),
		logger.Int("insufficientData", stats.InsufficientData),
		logger.Int("failed", stats.Failed),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration))
}
