package scoring

import (
	"math"
	"time"

	"github.com/okian/prospect/internal/domain/model"
)

const (
	// ConsistencyWindowDays is the trailing window scored for consistency.
	ConsistencyWindowDays = 30
	// StreakHorizonDays bounds the dual-streak scan.
	StreakHorizonDays = 365

	recentWindowDays = 7
	wideWindowDays   = 14

	recentMissLimit = 2
	wideMissLimit   = 4
	dampingExempt   = 80

	dampingNone   = 1.0
	dampingRecent = 0.95
	dampingWide   = 0.85
)

// ConsistencyResult summarizes logging discipline over the trailing 30 days.
type ConsistencyResult struct {
	ConsistencyScore  int     `json:"consistency_score"`
	LoggedStreak      int     `json:"logged_streak"`
	MissedStreak      int     `json:"missed_streak"`
	TotalLogged       int     `json:"total_logged"`
	TotalMissed       int     `json:"total_missed"`
	InjuryHoldDays    int     `json:"injury_hold_days"`
	Missed7           int     `json:"missed_7"`
	Missed14          int     `json:"missed_14"`
	DampingMultiplier float64 `json:"damping_multiplier"`
}

// StreakResult holds the two independent streak counters.
type StreakResult struct {
	// PerformanceStreak breaks only on an explicit missed day.
	PerformanceStreak int `json:"performance_streak"`
	// DisciplineStreak breaks on the first day with no entry at all.
	DisciplineStreak int `json:"discipline_streak"`
}

func indexByDay(entries []model.DailyLogEntry) map[time.Time]model.DailyLogEntry {
	out := make(map[time.Time]model.DailyLogEntry, len(entries))
	for _, e := range entries {
		out[model.Day(e.Date)] = e
	}
	return out
}

// Consistency scores the 30 days ending on the calendar day of asOf.
// Entries outside the window are ignored.
func Consistency(entries []model.DailyLogEntry, asOf time.Time) ConsistencyResult {
	byDay := indexByDay(entries)
	today := model.Day(asOf)

	var r ConsistencyResult
	loggedRun, missedRun := true, true
	for i := 0; i < ConsistencyWindowDays; i++ {
		e, ok := byDay[today.AddDate(0, 0, -i)]
		// Injury-hold days are excused: they leave the denominator and
		// neither extend nor break a streak.
		if ok && e.InjuryHold() {
			r.InjuryHoldDays++
			continue
		}

		if ok && e.Status != model.StatusMissed {
			r.TotalLogged++
			missedRun = false
			if loggedRun {
				r.LoggedStreak++
			}
			continue
		}

		r.TotalMissed++
		loggedRun = false
		if missedRun {
			r.MissedStreak++
		}
		if i < recentWindowDays {
			r.Missed7++
		}
		if i < wideWindowDays {
			r.Missed14++
		}
	}

	denom := math.Max(1, float64(ConsistencyWindowDays-r.InjuryHoldDays))
	r.ConsistencyScore = int(clamp(math.Round(100*float64(r.TotalLogged)/denom), minScore, maxScore))
	r.DampingMultiplier = Damping(r.ConsistencyScore, r.Missed7, r.Missed14)
	return r
}

// Damping returns the consistency multiplier applied to the MPI. A score of
// 80 or more is never damped.
func Damping(consistencyScore, missed7, missed14 int) float64 {
	if consistencyScore >= dampingExempt {
		return dampingNone
	}
	switch {
	case missed14 >= wideMissLimit:
		return dampingWide
	case missed7 >= recentMissLimit:
		return dampingRecent
	default:
		return dampingNone
	}
}

// DualStreaks counts both streaks backward from the calendar day of asOf.
func DualStreaks(entries []model.DailyLogEntry, asOf time.Time) StreakResult {
	byDay := indexByDay(entries)
	today := model.Day(asOf)

	var r StreakResult
	for i := 0; i < StreakHorizonDays; i++ {
		e, ok := byDay[today.AddDate(0, 0, -i)]
		if !ok {
			continue
		}
		if e.Status == model.StatusMissed {
			break
		}
		r.PerformanceStreak++
	}
	for i := 0; i < StreakHorizonDays; i++ {
		if _, ok := byDay[today.AddDate(0, 0, -i)]; !ok {
			break
		}
		r.DisciplineStreak++
	}
	return r
}
