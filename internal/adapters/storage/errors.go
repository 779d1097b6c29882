package storage

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrFlagResolved  = errors.New("integrity flag already resolved")
	ErrUnknownDriver = errors.New("unknown database driver")
)
