// Package authstate fans the current identity of an identity backend out to observers.
package authstate

import (
	"sync"

	"eventboard/internal/domain/entity"
)

// Broadcaster holds the current identity and notifies observers on every change.
// Callbacks run one at a time and must not call Set.
type Broadcaster struct {
	deliverMu sync.Mutex

	mu        sync.Mutex
	current   *entity.UserIdentity
	observers map[int]func(*entity.UserIdentity)
	nextID    int
}

// NewBroadcaster creates a Broadcaster in the signed-out state.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{observers: make(map[int]func(*entity.UserIdentity))}
}

// Current returns a copy of the current identity, or nil.
func (b *Broadcaster) Current() *entity.UserIdentity {
	b.mu.Lock()
	defer b.mu.Unlock()

	return clone(b.current)
}

// Set replaces the current identity and notifies every observer.
func (b *Broadcaster) Set(identity *entity.UserIdentity) {
	b.deliverMu.Lock()
	defer b.deliverMu.Unlock()

	b.publish(identity)
}

// Clear signs the current identity out. It reports whether an identity was present.
func (b *Broadcaster) Clear() bool {
	b.deliverMu.Lock()
	defer b.deliverMu.Unlock()

	if b.Current() == nil {
		return false
	}
	b.publish(nil)

	return true
}

// ReplaceIf sets identity only while expected is still the current session,
// matched on UID and ID token. It reports whether the swap happened.
func (b *Broadcaster) ReplaceIf(expected, identity *entity.UserIdentity) bool {
	b.deliverMu.Lock()
	defer b.deliverMu.Unlock()

	current := b.Current()
	if current == nil || expected == nil || current.UID != expected.UID || current.IDToken != expected.IDToken {
		return false
	}
	b.publish(identity)

	return true
}

// ClearIf signs out only while expected is still the current session.
func (b *Broadcaster) ClearIf(expected *entity.UserIdentity) bool {
	return b.ReplaceIf(expected, nil)
}

// publish must run with deliverMu held.
func (b *Broadcaster) publish(identity *entity.UserIdentity) {
	b.mu.Lock()
	b.current = clone(identity)
	observers := make([]func(*entity.UserIdentity), 0, len(b.observers))
	for _, observer := range b.observers {
		observers = append(observers, observer)
	}
	b.mu.Unlock()

	for _, observer := range observers {
		observer(clone(identity))
	}
}

// Observe registers callback and immediately delivers the current identity to it.
func (b *Broadcaster) Observe(callback func(*entity.UserIdentity)) func() {
	b.deliverMu.Lock()
	defer b.deliverMu.Unlock()

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.observers[id] = callback
	current := clone(b.current)
	b.mu.Unlock()

	callback(current)

	var once sync.Once

	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.observers, id)
			b.mu.Unlock()
		})
	}
}

func clone(identity *entity.UserIdentity) *entity.UserIdentity {
	if identity == nil {
		return nil
	}
	c := *identity

	return &c
}
