package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// FileStore persists keys as one JSON document on disk. Writes go through a
// temp file and an atomic rename so a crash mid-write leaves the previous
// document intact.
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]string
	log  zerolog.Logger
}

// OpenFile loads the document at path, starting empty if it does not exist.
// An unreadable document is treated as no data rather than an error.
func OpenFile(path string, log zerolog.Logger) (*FileStore, error) {
	s := &FileStore{
		path: path,
		data: make(map[string]string),
		log:  log.With().Str("component", "file_store").Logger(),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read state file: %w", err)
		}
		return s, nil
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("Corrupt state file, starting empty")
		s.data = make(map[string]string)
	}

	return s, nil
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data[key]
	return v, ok, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return s.flush()
}

func (s *FileStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return s.flush()
}

func (s *FileStore) Close() error {
	return nil
}

// flush writes the full document. Caller holds the lock.
func (s *FileStore) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close state file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}
