package platform

import (
	"errors"
	"fmt"
)

// Common platform errors that can be checked with errors.Is.
var (
	// ErrUnavailable is returned when a platform cannot currently serve
	// requests, e.g. its circuit breaker is open.
	ErrUnavailable = errors.New("platform: unavailable")

	// ErrUnsupported is returned for an unknown or unregistered platform.
	ErrUnsupported = errors.New("platform: not supported")
)

// PlatformError wraps an error with the platform and operation that
// produced it.
type PlatformError struct {
	Platform string
	Op       string
	Err      error
}

// Error implements the error interface.
func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Platform, e.Op, e.Err)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *PlatformError) Unwrap() error {
	return e.Err
}

// NewUnavailableError creates a PlatformError for a platform that is down.
func NewUnavailableError(platform, op string) error {
	return &PlatformError{Platform: platform, Op: op, Err: ErrUnavailable}
}

// NewUnsupportedError creates a PlatformError for an unknown platform.
func NewUnsupportedError(platform, op string) error {
	return &PlatformError{Platform: platform, Op: op, Err: ErrUnsupported}
}
