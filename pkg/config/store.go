package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/entrhq/formpilot/pkg/fsutil"
)

// Store persists section data between runs.
type Store interface {
	Load() error
	Save() error

	// GetSection returns a copy of the stored data for id, or an empty map.
	GetSection(id string) (map[string]interface{}, error)
	SetSection(id string, data map[string]interface{}) error
}

const fileVersion = "1"

// configFile is the on-disk layout: one JSON object per section ID.
type configFile struct {
	Version  string                     `json:"version"`
	Sections map[string]json.RawMessage `json:"sections"`
}

// FileStore keeps every section as encoded JSON in a single file.
type FileStore struct {
	path string

	mu       sync.RWMutex
	sections map[string]json.RawMessage
}

// NewFileStore opens the config file at path and loads it when present.
// If path is empty, defaults to ~/.formpilot/config.json
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".formpilot", "config.json")
	}

	s := &FileStore{path: path, sections: map[string]json.RawMessage{}}
	if err := s.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return s, nil
}

// Load rereads the file. A missing or blank file yields no sections.
func (s *FileStore) Load() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		raw = nil
	} else if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	sections := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(raw)) > 0 {
		var f configFile
		if err := json.Unmarshal(raw, &f); err != nil {
			return fmt.Errorf("failed to decode config file: %w", err)
		}
		for id, data := range f.Sections {
			sections[id] = data
		}
	}

	s.mu.Lock()
	s.sections = sections
	s.mu.Unlock()
	return nil
}

// Save writes every section through an atomic replace.
func (s *FileStore) Save() error {
	s.mu.RLock()
	raw, err := json.MarshalIndent(configFile{Version: fileVersion, Sections: s.sections}, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.path, append(raw, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

func (s *FileStore) GetSection(id string) (map[string]interface{}, error) {
	s.mu.RLock()
	raw, ok := s.sections[id]
	s.mu.RUnlock()

	out := map[string]interface{}{}
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("section %s: %w", id, err)
	}
	return out, nil
}

// SetSection encodes data immediately, so values that cannot be written as
// JSON are rejected here rather than on Save.
func (s *FileStore) SetSection(id string, data map[string]interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("section %s: %w", id, err)
	}
	s.mu.Lock()
	s.sections[id] = raw
	s.mu.Unlock()
	return nil
}

// Path returns the file path of the store.
func (s *FileStore) Path() string {
	return s.path
}
