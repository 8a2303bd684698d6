// Package launcher realizes topology plans against Docker and tears them
// down again. Start walks a plan in order (network, config files, volumes,
// containers, bootstrap) and either commits a descriptor to the registry or
// rolls back everything the attempt created. Stop and Cleanup tolerate
// partial failure, counting what they could not remove instead of aborting.
package launcher

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrInstanceNotFound is returned when a named instance is not in the
	// registry, or no instance of the requested kind exists.
	ErrInstanceNotFound = errors.New("instance not found")

	// ErrKindMismatch is returned when a name resolves to an instance of a
	// different kind than the command expects.
	ErrKindMismatch = errors.New("instance kind mismatch")

	// ErrNameConflict is returned when Docker reports the chosen container
	// name is already taken.
	ErrNameConflict = errors.New("container name conflict")

	// ErrPortConflict is returned when Docker reports a requested host port
	// is already bound.
	ErrPortConflict = errors.New("port conflict")

	// ErrBootstrapFailed is returned when a required bootstrap command
	// exhausts its attempts.
	ErrBootstrapFailed = errors.New("bootstrap failed")
)

// LaunchError wraps errors with deployment context.
type LaunchError struct {
	Op       string // Operation that failed (e.g., "start", "stop")
	Instance string // Instance involved if applicable
	Message  string
	Err      error
}

func (e *LaunchError) Error() string {
	if e.Instance != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Instance, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// NewLaunchError creates a new LaunchError.
func NewLaunchError(op, instance, message string, err error) *LaunchError {
	return &LaunchError{
		Op:       op,
		Instance: instance,
		Message:  message,
		Err:      err,
	}
}

// =============================================================================
// Start Error Classification
// =============================================================================

// The two failure modes a user can fix themselves are recognized by the
// substrings Docker puts in its error text. Name conflicts are checked first
// because Docker's 409 responses mention "Conflict" for both cases.
var nameConflictMarkers = []string{
	"is already in use by container",
	"Conflict",
	"already exists",
}

var portConflictMarkers = []string{
	"port is already allocated",
	"bind",
	"Bind for",
	"failed to set up container networking",
	"address already in use",
	"driver failed programming external connectivity",
}

const (
	nameConflictHint = "container name already exists. Use --name to choose a different name or run 'redis-up cleanup' to remove old instances"
	portConflictHint = "port already in use. Use --port or --port-base to choose different ports or run 'redis-up cleanup' to remove old instances"
)

// classifyStartError inspects the failure text once, at the start boundary,
// and maps the two recoverable cases to actionable errors. Anything else
// passes through with the instance and operation attached.
func classifyStartError(op, name string, err error) error {
	var le *LaunchError
	if errors.As(err, &le) {
		// Already carries deployment context (config writes, bootstrap).
		return err
	}

	text := err.Error()

	for _, marker := range nameConflictMarkers {
		if strings.Contains(text, marker) {
			return NewLaunchError(op, name, nameConflictHint, ErrNameConflict)
		}
	}
	for _, marker := range portConflictMarkers {
		if strings.Contains(text, marker) {
			return NewLaunchError(op, name, portConflictHint, ErrPortConflict)
		}
	}

	return NewLaunchError(op, name, text, err)
}
