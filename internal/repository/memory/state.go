package memory

import (
	"context"
	"sync"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
)

// StateStore is an in-process domain.StateStore, used for development and tests
type StateStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStateStore creates an empty in-memory state store
func NewStateStore() *StateStore {
	return &StateStore{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key
func (s *StateStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), val...), nil
}

// Set stores a copy of value under key
func (s *StateStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key
func (s *StateStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// Len returns the number of stored keys
func (s *StateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
