package api

import (
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/prospect/internal/app"
	"github.com/okian/prospect/internal/domain/scoring"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// statusFor maps an error onto an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, scoring.ErrInsufficientData):
		return http.StatusUnprocessableEntity, "insufficient_data"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
