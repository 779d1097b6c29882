// Package types contains common types used across the application
package types

// Entry represents a leaderboard entry
type Entry struct {
	Rank       int     `json:"rank"`
	AthleteID  string  `json:"athlete_id"`
	Score      float64 `json:"score"`
	Percentile float64 `json:"percentile"`
}

// RecomputeStatus is the outcome of an asynchronous recompute request.
type RecomputeStatus string

const (
	RecomputeAccepted  RecomputeStatus = "accepted"
	RecomputeDuplicate RecomputeStatus = "duplicate"
)
