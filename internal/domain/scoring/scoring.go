// Package scoring holds the pure calculators behind the MPI: consistency,
// streaks, fatigue, age curve, weight tables, session composites, integrity,
// pro probability and HoF eligibility. No function here reads the wall clock;
// callers pass an explicit as-of instant.
package scoring

import (
	"math"
	"time"
)

const (
	minScore = 0.0
	maxScore = 100.0
	day      = 24 * time.Hour
)

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// daysBetween returns the number of whole calendar days from a to b.
// Both must already be truncated to UTC midnight.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / day)
}
