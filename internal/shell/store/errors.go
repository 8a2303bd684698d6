// Package store persists the instance registry as a JSON file under the
// tool's config directory.
package store

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrInvalidData is returned when the registry file exists but cannot
	// be decoded.
	ErrInvalidData = errors.New("invalid data format")
)

// StoreError wraps errors with additional context.
type StoreError struct {
	Op      string // Operation that failed (e.g., "Load", "Save")
	Path    string // File involved if applicable
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, path, message string, err error) *StoreError {
	return &StoreError{
		Op:      op,
		Path:    path,
		Message: message,
		Err:     err,
	}
}
