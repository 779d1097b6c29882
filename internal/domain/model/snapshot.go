package model

import "time"

// Trend is the 30-day direction of an athlete's MPI.
type Trend string

const (
	TrendRising   Trend = "rising"
	TrendDropping Trend = "dropping"
	TrendStable   Trend = "stable"
)

// CompositeScoreSnapshot is one append-only MPI calculation for an athlete.
type CompositeScoreSnapshot struct {
	ID                  string    `json:"id"`
	AthleteID           string    `json:"athlete_id"`
	CalculatedAt        time.Time `json:"calculated_at"`
	BaseScore           float64   `json:"base_score"`
	AdjustedGlobalScore float64   `json:"adjusted_global_score"`
	GlobalRank          int       `json:"global_rank"`
	Percentile          float64   `json:"percentile"`
	ProProbability      float64   `json:"pro_probability"`
	Trend               Trend     `json:"trend"`
	TrendDelta          float64   `json:"trend_delta"`
	IntegrityScore      float64   `json:"integrity_score"`

	// Breakdown of the multipliers applied to the base score.
	ConsistencyScore   int     `json:"consistency_score"`
	DampingMultiplier  float64 `json:"damping_multiplier"`
	FatigueMultiplier  float64 `json:"fatigue_multiplier"`
	AgeMultiplier      float64 `json:"age_multiplier"`
	TierMultiplier     float64 `json:"tier_multiplier"`
	PositionMultiplier float64 `json:"position_multiplier"`
	SessionsUsed       int     `json:"sessions_used"`
}

// AthleteScore is the latest adjusted score used for ranking.
type AthleteScore struct {
	AthleteID string
	Score     float64
}
