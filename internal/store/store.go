package store

import (
	"sync"
	"sync/atomic"
)

// Store publishes the current State and applies mutations one at a time.
//
// State is lock-free and may be called from any goroutine. Apply and Reset
// are serialized by mu.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[State]
}

// New returns a Store whose current State is initial, or an empty State when
// initial is nil.
func New(initial *State) *Store {
	if initial == nil {
		initial = NewState()
	}
	s := &Store{}
	s.current.Store(initial)
	return s
}

// State returns the current snapshot.
func (s *Store) State() *State {
	return s.current.Load()
}

// Apply reduces m against the current State and publishes the result. On
// error the current State is left unchanged.
func (s *Store) Apply(m Mutation) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Reduce(s.current.Load(), m)
	if err != nil {
		return nil, err
	}
	s.current.Store(next)
	return next, nil
}

// Reset replaces the current State wholesale, as when restoring a snapshot.
func (s *Store) Reset(state *State) {
	if state == nil {
		state = NewState()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Store(state)
}
