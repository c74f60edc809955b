package kv

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/entrhq/formpilot/pkg/fsutil"
)

// FileStore implements Store using a single JSON file.
// Every Set and Delete rewrites the file atomically through a temp file.
type FileStore struct {
	path string
	mu   sync.RWMutex
	data map[string][]byte
}

type fileDocument struct {
	Version string            `json:"version"`
	Entries map[string]string `json:"entries"`
}

// NewFileStore opens (or lazily creates) the store at path.
// If path is empty, defaults to ~/.formpilot/store.json
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("kv: failed to get user home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".formpilot", "store.json")
	}

	s := &FileStore{path: path, data: make(map[string][]byte)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("kv: read %s: %w", s.path, err)
	}

	var doc fileDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("kv: decode %s: %w", s.path, err)
	}
	for k, v := range doc.Entries {
		b, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return fmt.Errorf("kv: decode entry %q: %w", k, err)
		}
		s.data[k] = b
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.data[key]
	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	if err := s.save(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.data[key]
	if !had {
		return nil
	}
	delete(s.data, key)
	if err := s.save(); err != nil {
		s.data[key] = prev
		return err
	}
	return nil
}

// save writes the whole map. Callers hold s.mu.
func (s *FileStore) save() error {
	doc := fileDocument{Version: "1.0", Entries: make(map[string]string, len(s.data))}
	for k, v := range s.data {
		doc.Entries[k] = base64.StdEncoding.EncodeToString(v)
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("kv: encode store: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.path, raw, 0600); err != nil {
		return fmt.Errorf("kv: %w", err)
	}
	return nil
}

// Path returns the file path of the store.
func (s *FileStore) Path() string {
	return s.path
}
