package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrInvalidObservation = errors.New("metrics: observation outside the valid range")
)
