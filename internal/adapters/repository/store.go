// Package repository holds the in-memory ranking of athletes by their latest
// adjusted MPI.
package repository

import "context"

// Entry represents a ranked athlete.
type Entry struct {
	Rank       int
	AthleteID  string
	Score      float64
	Percentile float64
}

// Store provides read/write access to the ranking state.
type Store interface {
	// Update replaces the athlete's ranked score with their latest MPI.
	// Returns true if the score changed.
	Update(ctx context.Context, athleteID string, score float64) (bool, error)

	// Rank returns the athlete's dense rank, score and percentile.
	// Returns ErrNotFound if the athlete is unranked.
	Rank(ctx context.Context, athleteID string) (Entry, error)

	// TopN returns the top-N entries ordered by score desc, athlete id asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of ranked athletes.
	Count(ctx context.Context) int
}
