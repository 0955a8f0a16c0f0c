package assets

import (
	"errors"
	"fmt"
)

// Common asset store error types
var (
	ErrAssetNotFound    = errors.New("asset not found")
	ErrInvalidKey       = errors.New("invalid asset key")
	ErrManifestNotFound = errors.New("asset manifest not found")
	ErrManifestInvalid  = errors.New("asset manifest is not valid JSON")
)

// StoreError represents an asset store operation error with additional context
type StoreError struct {
	Op  string // Operation that failed (e.g., "Retrieve", "Stat")
	Key string // Asset key involved in the operation
	Err error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("asset %s operation failed for key '%s': %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("asset %s operation failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError
func NewStoreError(op, key string, err error) *StoreError {
	return &StoreError{Op: op, Key: key, Err: err}
}

// IsNotFound returns true if the error indicates a missing asset
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAssetNotFound)
}
