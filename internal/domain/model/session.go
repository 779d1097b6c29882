package model

import "time"

// SessionType is the kind of training or game unit a session records.
type SessionType string

const (
	SessionPersonalPractice SessionType = "personal_practice"
	SessionTeamPractice     SessionType = "team_practice"
	SessionCoachLesson      SessionType = "coach_lesson"
	SessionGame             SessionType = "game"
	SessionPostGameAnalysis SessionType = "post_game_analysis"
	SessionBullpen          SessionType = "bullpen"
	SessionLiveScrimmage    SessionType = "live_scrimmage"
	SessionRehab            SessionType = "rehab_session"
)

// Execution grades use the 20-80 scouting scale.
const (
	MinGrade = 20.0
	MaxGrade = 80.0
)

// DrillBlock is one drill inside a session.
type DrillBlock struct {
	DrillType      string   `json:"drill_type"`
	Intent         string   `json:"intent,omitempty"`
	PitchType      string   `json:"pitch_type,omitempty"`
	Reps           int      `json:"reps"`
	ExecutionGrade float64  `json:"execution_grade"`
	OutcomeTags    []string `json:"outcome_tags,omitempty"`
}

// PerformanceSession is a logged training or game unit.
type PerformanceSession struct {
	ID             string       `json:"id"`
	AthleteID      string       `json:"athlete_id"`
	Sport          Sport        `json:"sport"`
	Type           SessionType  `json:"session_type"`
	Date           time.Time    `json:"date"`
	Blocks         []DrillBlock `json:"blocks"`
	Grades         Grades       `json:"grades"`
	EffectiveGrade *float64     `json:"effective_grade,omitempty"`
	GradeSource    GradeSource  `json:"grade_source,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	DeletedAt      *time.Time   `json:"deleted_at,omitempty"`
}

// Deleted reports whether the session was soft-deleted.
func (s PerformanceSession) Deleted() bool { return s.DeletedAt != nil }

// Verified reports whether someone other than the athlete graded the session.
// Sessions stored without a resolved source fall back to the grade precedence.
func (s PerformanceSession) Verified() bool {
	if s.GradeSource != GradeNone {
		return s.GradeSource.Independent()
	}
	src, _ := ResolveGrade(s.Grades)
	return src.Independent()
}

// TotalReps sums the block volume, counting each block as at least one rep.
func (s PerformanceSession) TotalReps() int {
	total := 0
	for _, b := range s.Blocks {
		if b.Reps < 1 {
			total++
			continue
		}
		total += b.Reps
	}
	return total
}
