package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	// SectionIDStorage is the identifier for the storage section
	SectionIDStorage = "storage"

	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// StorageSection selects the key-value backend holding profiles and
// credentials.
type StorageSection struct {
	Backend string
	// Path is the store file; empty means the backend's default location.
	Path string
	mu   sync.RWMutex
}

// NewStorageSection creates the section with the file backend.
func NewStorageSection() *StorageSection {
	return &StorageSection{Backend: BackendFile}
}

// ID returns the section identifier.
func (s *StorageSection) ID() string {
	return SectionIDStorage
}

// Title returns the section title.
func (s *StorageSection) Title() string {
	return "Storage"
}

// Description returns the section description.
func (s *StorageSection) Description() string {
	return "Backend for profiles and credentials: file (JSON), sqlite or memory."
}

// Data returns the current configuration data.
func (s *StorageSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"backend": s.Backend,
		"path":    s.Path,
	}
}

// SetData updates the configuration from the provided data.
func (s *StorageSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if backend, ok := data["backend"].(string); ok {
		s.Backend = strings.ToLower(strings.TrimSpace(backend))
	}
	if path, ok := data["path"].(string); ok {
		s.Path = path
	}
	return nil
}

// Validate checks the backend name.
func (s *StorageSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch s.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
		return nil
	default:
		return fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}

// Reset resets the section to default configuration.
func (s *StorageSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Backend = BackendFile
	s.Path = ""
}

// Resolve returns the backend and the path to open, filling in the default
// file name under dataDir when no path is configured.
func (s *StorageSection) Resolve(dataDir string) (backend, path string, err error) {
	if err := s.Validate(); err != nil {
		return "", "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	backend, path = s.Backend, s.Path
	if path != "" || backend == BackendMemory {
		return backend, path, nil
	}
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".formpilot")
	}
	name := "store.json"
	if backend == BackendSQLite {
		name = "store.db"
	}
	return backend, filepath.Join(dataDir, name), nil
}
