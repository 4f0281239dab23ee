package service

import (
	"errors"
	"fmt"
)

// ErrUnsupported signals that the platform cannot perform the requested
// operation at all (e.g. editing a posted Instagram reply). Callers fall back
// to an alternative flow instead of retrying.
var ErrUnsupported = errors.New("operation not supported by platform")

// PlatformError is a failed platform API call, classified by HTTP status so
// task handlers can decide between retry and terminal failure.
type PlatformError struct {
	StatusCode int
	Message    string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform error %d: %s", e.StatusCode, e.Message)
}

// Transient reports whether the call is worth retrying: rate limits and
// server-side failures are, 4xx rejections are not.
func (e *PlatformError) Transient() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// IsTransient classifies an error from a platform or capability call.
// Unknown errors (network failures, timeouts) count as transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnsupported) {
		return false
	}
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.Transient()
	}
	return true
}
