package content

import "errors"

// Common content store error types
var (
	ErrPageNotFound = errors.New("page not found")
)

// IsNotFoundErr returns true if the error indicates a missing page
func IsNotFoundErr(err error) bool {
	return errors.Is(err, ErrPageNotFound)
}
