package event

import (
	"errors"
	"fmt"
)

// Common adapter error types
var (
	ErrMalformedEvent  = errors.New("malformed invocation event")
	ErrMissingMethod   = errors.New("event has no HTTP method")
	ErrMissingPath     = errors.New("event has no request path")
	ErrInvalidHeader   = errors.New("invalid HTTP header")
	ErrInvalidBody     = errors.New("invalid request body encoding")
	ErrUnknownEnvelope = errors.New("unrecognized event envelope")
	ErrRendering       = errors.New("rendering failed")
	ErrPayloadTooLarge = errors.New("response payload exceeds host limit")
)

// AdapterError represents a decode/encode failure with additional context
type AdapterError struct {
	Op   string // Operation that failed (e.g., "Decode", "Encode")
	Kind Kind   // Envelope kind involved, if known
	Err  error  // Underlying error
}

func (e *AdapterError) Error() string {
	if e.Kind != KindUnknown {
		return fmt.Sprintf("event %s failed for %s envelope: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("event %s failed: %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewAdapterError creates a new AdapterError
func NewAdapterError(op string, kind Kind, err error) *AdapterError {
	return &AdapterError{Op: op, Kind: kind, Err: err}
}

// IsMalformed returns true if the error indicates a bad event shape.
// Malformed events are surfaced as a 400-class response and never retried.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedEvent) ||
		errors.Is(err, ErrMissingMethod) ||
		errors.Is(err, ErrMissingPath) ||
		errors.Is(err, ErrInvalidHeader) ||
		errors.Is(err, ErrInvalidBody) ||
		errors.Is(err, ErrUnknownEnvelope)
}

// IsPayloadTooLarge returns true if the error indicates the encoded response
// exceeded the host's payload limit. Terminal for the invocation.
func IsPayloadTooLarge(err error) bool {
	return errors.Is(err, ErrPayloadTooLarge)
}

// IsRendering returns true if the error originated inside the embedded
// rendering application rather than in envelope translation.
func IsRendering(err error) bool {
	return errors.Is(err, ErrRendering)
}
