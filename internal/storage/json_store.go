package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// JSONStore keeps one JSON file per namespace under a data directory.
type JSONStore struct {
	mu      sync.RWMutex
	dataDir string
}

// NewJSONStore creates a new JSON store rooted at dataDir
func NewJSONStore(dataDir string) (*JSONStore, error) {
	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	return &JSONStore{dataDir: dataDir}, nil
}

func (s *JSONStore) path(ns string) string {
	return filepath.Join(s.dataDir, ns+".json")
}

func (s *JSONStore) Get(_ context.Context, ns, key string) (string, error) {
	if err := checkNamespace(ns); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.load(ns)
	if err != nil {
		return "", err
	}
	value, ok := data[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *JSONStore) Set(_ context.Context, ns, key, value string) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(ns)
	if err != nil {
		return err
	}
	data[key] = value
	return s.save(ns, data)
}

func (s *JSONStore) Delete(_ context.Context, ns, key string) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(ns)
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return s.save(ns, data)
}

func (s *JSONStore) Keys(_ context.Context, ns string) ([]string, error) {
	if err := checkNamespace(ns); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.load(ns)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *JSONStore) Clear(_ context.Context, ns string) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(ns)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *JSONStore) Close() error { return nil }

// load reads the namespace file. Callers hold s.mu.
func (s *JSONStore) load(ns string) (map[string]string, error) {
	data := make(map[string]string)

	file, err := os.Open(s.path(ns))
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist yet, not an error
			return data, nil
		}
		return nil, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}

// save writes the namespace file. Callers hold s.mu for writing.
func (s *JSONStore) save(ns string, data map[string]string) error {
	// Write to temp file first, then rename (atomic operation)
	filePath := s.path(ns)
	tempFile := filePath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		file.Close()
		os.Remove(tempFile)
		return err
	}

	if err := file.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}
