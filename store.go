package persist

import (
	"sort"
	"sync"
)

// Store holds preserved resource state across module loads.
//
// Serialized entries map a type identifier to an opaque blob produced by a
// Codec. Value entries hold in-memory representations handed over without
// serialization. Each identifier has at most one entry of each kind and the
// last write wins. Entries are never evicted.
type Store struct {
	mu     sync.RWMutex
	blobs  map[string][]byte
	values map[string]any
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		blobs:  make(map[string][]byte),
		values: make(map[string]any),
	}
}

// Put stores data under id, replacing any previous blob.
// The slice is copied so callers may reuse it.
func (s *Store) Put(id string, data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[id] = cp
}

// Get returns the last blob stored under id.
func (s *Store) Get(id string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[id]
	return data, ok
}

// PutValue stores v under id without serialization.
func (s *Store) PutValue(id string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[id] = v
}

// Value returns the last value stored under id with PutValue.
func (s *Store) Value(id string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[id]
	return v, ok
}

// Keys returns every identifier with a serialized or value entry, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.blobs)+len(s.values))
	for id := range s.blobs {
		seen[id] = struct{}{}
	}
	for id := range s.values {
		seen[id] = struct{}{}
	}

	keys := make([]string, 0, len(seen))
	for id := range seen {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of distinct identifiers held.
func (s *Store) Len() int {
	return len(s.Keys())
}
