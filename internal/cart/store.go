package cart

import "sync"

// Store is an explicitly owned cart state container. All mutation goes
// through Dispatch; readers take Snapshot copies. Subscribers are notified
// after every dispatch with the resulting state.
type Store struct {
	mu          sync.Mutex
	state       State
	subscribers map[int]func(State)
	nextSubID   int
}

// NewStore returns a store holding an empty cart.
func NewStore() *Store {
	return &Store{
		state:       NewState(),
		subscribers: make(map[int]func(State)),
	}
}

// Dispatch applies the action through the reducer and returns the resulting
// state. Subscribers run synchronously after the state swap, outside the lock.
func (s *Store) Dispatch(action Action) State {
	s.mu.Lock()
	s.state = Apply(s.state, action)
	next := s.state
	listeners := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return next
}

// Snapshot returns the current state. The Items slice is a copy; callers may
// not mutate the store through it.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state
	state.Items = cloneItems(s.state.Items)
	return state
}

// Subscribe registers a change listener and returns its cancel function.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}
