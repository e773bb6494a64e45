package live

import "sync"

// Scope owns the subscriptions of one screen or identity. Close releases all of them.
type Scope struct {
	mu     sync.Mutex
	subs   []*Subscription
	closed bool
}

// NewScope creates an open scope.
func NewScope() *Scope {
	return &Scope{}
}

// Add hands sub to the scope. A sub added to a closed scope is released at once.
func (s *Scope) Add(sub *Subscription) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.Unsubscribe()

		return
	}
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
}

// Close releases every subscription in the scope. It is safe to call more than once.
func (s *Scope) Close() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.closed = true
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

// Len returns the number of subscriptions held by the scope.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.subs)
}
