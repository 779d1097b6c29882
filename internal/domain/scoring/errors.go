package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	// ErrInsufficientData means there is nothing to score yet. Callers should
	// show "not enough data" rather than a zero.
	ErrInsufficientData = errors.New("insufficient data")
	ErrAthleteRequired  = errors.New("athlete is required")
)
