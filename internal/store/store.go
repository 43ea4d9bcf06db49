// Package store keeps live component instances between update cycles and
// serializes access to each one.
package store

import (
	"sync"

	"github.com/vk/wirestate/internal/engine"
)

// Handle pairs an instance with the mutex that serializes its update
// cycles. Callers must hold the lock for the full cycle: apply, calls,
// snapshot.
type Handle struct {
	mu       sync.Mutex
	Instance *engine.Instance
}

// Lock acquires the instance for one update cycle.
func (h *Handle) Lock() { h.mu.Lock() }

// Unlock releases the instance.
func (h *Handle) Unlock() { h.mu.Unlock() }

// Store is an in-memory map of instance ID to handle.
type Store struct {
	mu   sync.RWMutex
	byID map[string]*Handle
}

// New creates an empty store.
func New() *Store {
	return &Store{byID: make(map[string]*Handle)}
}

// Get returns the handle for an instance ID.
func (s *Store) Get(id string) (*Handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byID[id]
	return h, ok
}

// Put registers an instance and returns its handle. If a handle already
// exists for the instance's ID it is returned unchanged, so two racing
// creates converge on one instance.
func (s *Store) Put(in *engine.Instance) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.byID[in.ID()]; ok {
		return h
	}
	h := &Handle{Instance: in}
	s.byID[in.ID()] = h
	return h
}

// Drop removes an instance from the store.
func (s *Store) Drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

// Len returns the number of live instances.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
