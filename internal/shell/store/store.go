package store

import (
	"github.com/joshrotenberg/redis-up/internal/core/instance"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for the instance registry. Commands
// load once, mutate the registry in memory, and save once; last writer wins.
type Store interface {
	// Load reads the registry. A missing backing file yields an empty
	// registry, not an error.
	Load() (*instance.Registry, error)

	// Save overwrites the backing file with the registry's current state.
	Save(reg *instance.Registry) error

	// Path returns the backing file location.
	Path() string
}
