package storage

import (
	"context"
	"sync"
)

// MemoryStore is a map-backed Store. It does not survive restarts and exists
// as a test double for the persistence-dependent components.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemory() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
