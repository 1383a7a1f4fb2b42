package state

import (
	"sync"
)

// Store owns the state tree. Dispatch is the only write path; readers get
// deep copies from Snapshot.
type Store struct {
	mu      sync.RWMutex
	state   State
	version uint64
}

// NewStore returns a store seeded with initial.
func NewStore(initial State) *Store {
	return &Store{state: initial.clone()}
}

// Dispatch applies a through the reducer. Actions are applied one at a time in
// the order Dispatch is called.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, applied := apply(s.state, a)
	if !applied {
		return
	}
	s.state = next
	s.version++
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Version increases by one for every applied action. Renderers compare it to
// skip redundant redraws.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
