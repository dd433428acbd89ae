package memory

import (
	"context"
	"sync"

	"BookmarkAdmin/internal/cli/repo"
)

// Store is a process-local KVStore. Nothing survives the process.
type Store struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ repo.KVStore = (*Store)(nil)

func New() *Store {
	return &Store{data: map[string]string{}}
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", repo.ErrEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key], nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	if key == "" {
		return repo.ErrEmptyKey
	}
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	if key == "" {
		return repo.ErrEmptyKey
	}
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Has reports whether key is present, distinguishing "absent" from "set to empty".
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}
