package service

import (
	"errors"
	"fmt"

	"github.com/okian/prospect/internal/adapters/repository"
	"github.com/okian/prospect/internal/adapters/storage"
)

// Sentinel kinds for service errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrBackpressure = errors.New("recompute queue full")
	ErrNotStarted   = errors.New("service not started")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// translate maps adapter sentinels onto the service's own.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, storage.ErrFlagResolved):
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	case errors.Is(err, repository.ErrInvalidLimit):
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidInput, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
