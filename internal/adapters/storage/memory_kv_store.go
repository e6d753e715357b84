package storage

import (
	"context"
	"itinerary-planner-service/internal/ports"
	"sync"
)

var _ ports.KVStore = (*MemoryKVStore)(nil)

// MemoryKVStore is a process-local KVStore. Contents are lost on exit.
type MemoryKVStore struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{m: make(map[string]string)}
}

func (s *MemoryKVStore) Load(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.m[key]
	return v, ok, nil
}

func (s *MemoryKVStore) Save(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[key] = value
	return nil
}

func (s *MemoryKVStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.m, key)
	return nil
}
