package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
)

// RegistryFileName is the registry file created under the config directory.
const RegistryFileName = "instances.json"

// DefaultDir returns the per-user config directory for this tool, following
// the platform convention (XDG on Linux, Application Support on macOS).
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", NewStoreError("DefaultDir", "", "failed to resolve user config directory", err)
	}
	return filepath.Join(base, "redis-up"), nil
}

// RegistryPath returns the registry file location under dir.
func RegistryPath(dir string) string {
	return filepath.Join(dir, RegistryFileName)
}

// =============================================================================
// File Store
// =============================================================================

// FileStore persists the registry as pretty-printed JSON at a fixed path.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		path:   path,
		logger: logger,
	}
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the registry from disk. A missing file yields an empty registry
// so first runs need no setup step.
func (s *FileStore) Load() (*instance.Registry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("registry file absent, starting empty", "path", s.path)
			return instance.NewRegistry(), nil
		}
		return nil, NewStoreError("Load", s.path, "failed to read registry", err)
	}

	reg := instance.NewRegistry()
	if err := json.Unmarshal(data, reg); err != nil {
		return nil, NewStoreError("Load", s.path, "failed to decode registry", ErrInvalidData)
	}

	// Older or hand-edited files may omit either map.
	if reg.Instances == nil {
		reg.Instances = make(map[string]instance.Instance)
	}
	if reg.Counters == nil {
		reg.Counters = make(map[string]uint64)
	}

	s.logger.Debug("registry loaded", "path", s.path, "instances", reg.Len())
	return reg, nil
}

// Save overwrites the registry file, creating the parent directory first.
func (s *FileStore) Save(reg *instance.Registry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return NewStoreError("Save", s.path, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return NewStoreError("Save", s.path, "failed to encode registry", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return NewStoreError("Save", s.path, "failed to write registry", err)
	}

	s.logger.Debug("registry saved", "path", s.path, "instances", reg.Len())
	return nil
}
