package dedupe

import "errors"

// Sentinel kinds for dedupe errors.
var (
	ErrNilClient = errors.New("dedupe: redis client is required")
)
