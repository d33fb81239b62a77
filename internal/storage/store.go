package storage

import "sync"

// Store abstracts persistence for small string key-value state.
//
// Delete accepts multiple keys and removes them as one call so state that
// must disappear together (the session tokens and the cached profile) cannot
// be half-cleared by an interleaved reader.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// MemoryStore is a Store backed by a mutex-guarded map.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the stored value for key and whether it was present.
func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok, nil
}

// Set stores value under key.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Delete removes the given keys.
func (s *MemoryStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}
