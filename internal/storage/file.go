package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps every key in a single JSON object on disk. Each write
// rewrites the whole file through a temp file and rename.
type FileStore struct {
	path string
	mu   sync.RWMutex
	data map[string]string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return s.Load()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]string)
	return s.save()
}

func (s *FileStore) Load() error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'habitlit init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}
	defer f.Close()

	data := make(map[string]string)
	if err := json.NewDecoder(f).Decode(&data); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse storage: %w", err)
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) GetConfigPath() string {
	return s.path
}

func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	return s.SetMany(ctx, map[string]string{key: value})
}

func (s *FileStore) SetMany(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return fmt.Errorf("storage not loaded")
	}

	prev := make(map[string]*string, len(values))
	for k, v := range values {
		if old, ok := s.data[k]; ok {
			prev[k] = &old
		} else {
			prev[k] = nil
		}
		s.data[k] = v
	}

	if err := s.save(); err != nil {
		// Keep the in-memory view consistent with the file
		for k, old := range prev {
			if old == nil {
				delete(s.data, k)
			} else {
				s.data[k] = *old
			}
		}
		return err
	}
	return nil
}

func (s *FileStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return fmt.Errorf("storage not loaded")
	}
	old, ok := s.data[key]
	if !ok {
		return nil
	}
	delete(s.data, key)
	if err := s.save(); err != nil {
		s.data[key] = old
		return err
	}
	return nil
}

// save must be called with s.mu held
func (s *FileStore) save() error {
	tempFile := s.path + ".tmp"
	f, err := os.OpenFile(tempFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, s.path)
}
