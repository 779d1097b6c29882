package seed

import (
	"errors"
	"fmt"
	"math"
)

// scoreTolerance absorbs fixed-point rounding in the ranking.
const scoreTolerance = 1e-6

// ErrInconsistent reports a leaderboard that disagrees with itself or with
// the scores computed during the run.
var ErrInconsistent = errors.New("inconsistent leaderboard")

// VerifyLeaderboard checks the leaderboard ordering and dense ranks, that each
// row agrees with the athlete's live rank, and that every athlete scored in
// this run matches its row. Athletes absent from scores are not checked
// against it.
func VerifyLeaderboard(board []Entry, ranks map[string]Entry, scores map[string]float64) error {
	if len(board) == 0 {
		if len(scores) > 0 {
			return fmt.Errorf("%w: empty leaderboard after scoring %d athletes", ErrInconsistent, len(scores))
		}
		return nil
	}
	if board[0].Rank != 1 {
		return fmt.Errorf("%w: leader has rank %d", ErrInconsistent, board[0].Rank)
	}

	for i, e := range board {
		if i > 0 {
			prev := board[i-1]
			switch {
			case e.Score > prev.Score:
				return fmt.Errorf("%w: entry %d (%s) outscores entry %d", ErrInconsistent, i, e.AthleteID, i-1)
			case e.Score == prev.Score && (e.Rank != prev.Rank || e.AthleteID < prev.AthleteID):
				return fmt.Errorf("%w: tie at %d not ordered by athlete id with a shared rank", ErrInconsistent, i)
			case e.Score < prev.Score && e.Rank != prev.Rank+1:
				return fmt.Errorf("%w: entry %d has rank %d after rank %d", ErrInconsistent, i, e.Rank, prev.Rank)
			}
		}

		if r, ok := ranks[e.AthleteID]; ok && (r.Rank != e.Rank || math.Abs(r.Score-e.Score) > scoreTolerance) {
			return fmt.Errorf("%w: %s is rank %d (%.3f) on the board but rank %d (%.3f) live",
				ErrInconsistent, e.AthleteID, e.Rank, e.Score, r.Rank, r.Score)
		}
		if sc, ok := scores[e.AthleteID]; ok && math.Abs(sc-e.Score) > scoreTolerance {
			return fmt.Errorf("%w: %s scored %.3f but is listed at %.3f", ErrInconsistent, e.AthleteID, sc, e.Score)
		}
	}

	best := math.Inf(-1)
	for _, sc := range scores {
		best = max(best, sc)
	}
	if best > board[0].Score+scoreTolerance {
		return fmt.Errorf("%w: best score %.3f missing from the top of the board", ErrInconsistent, best)
	}
	return nil
}
