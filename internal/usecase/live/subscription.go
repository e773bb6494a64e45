// Package live turns document store listeners into typed, ordered snapshot streams.
package live

import (
	"context"
	"sync"

	domainerrors "eventboard/internal/domain/errors"
	"eventboard/internal/domain/repository"
	"eventboard/internal/infra/metrics"
)

// Decoder converts one stored document into T.
type Decoder[T any] func(*repository.Document) (T, error)

// Subscription is one open live query. Callbacks run one at a time and must not
// call Unsubscribe on the subscription that is delivering them.
type Subscription struct {
	collection string

	// deliverMu is held for the whole of every callback.
	deliverMu   sync.Mutex
	closed      bool
	lastVersion int64

	mu       sync.Mutex
	listener repository.Listener
	released bool
}

// Subscribe opens query on store. onSnapshot receives the full decoded result
// every time it changes, starting with the initial result. Errors go to onError;
// a decode failure rejects only the snapshot it occurred in, while a stream
// failure ends the subscription.
func Subscribe[T any](
	ctx context.Context,
	store repository.DocumentStore,
	query repository.Query,
	decode Decoder[T],
	onSnapshot func([]T),
	onError func(error),
) (*Subscription, error) {
	sub := &Subscription{collection: query.Collection}

	handleSnapshot := func(snap *repository.QuerySnapshot) {
		items, err := decodeAll(snap, decode)

		sub.deliverMu.Lock()
		defer sub.deliverMu.Unlock()

		if sub.closed || snap.Version <= sub.lastVersion {
			return
		}
		sub.lastVersion = snap.Version

		if err != nil {
			metrics.StreamError(sub.collection)
			if onError != nil {
				onError(err)
			}

			return
		}

		metrics.SnapshotDelivered(sub.collection)
		onSnapshot(items)
	}

	handleError := func(err error) {
		sub.deliverMu.Lock()
		if sub.closed {
			sub.deliverMu.Unlock()

			return
		}
		sub.closed = true
		metrics.StreamError(sub.collection)
		if onError != nil {
			onError(err)
		}
		sub.deliverMu.Unlock()

		sub.release()
	}

	listener, err := store.Subscribe(ctx, query, handleSnapshot, handleError)
	if err != nil {
		return nil, err
	}
	metrics.SubscriptionOpened(sub.collection)

	sub.mu.Lock()
	released := sub.released
	sub.listener = listener
	sub.mu.Unlock()
	if released {
		listener.Stop()
	}

	return sub, nil
}

// Unsubscribe releases the backend listener. It waits for a callback in progress
// to finish, and none starts after it returns. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.deliverMu.Lock()
	s.closed = true
	s.deliverMu.Unlock()

	s.release()
}

func (s *Subscription) release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()

		return
	}
	s.released = true
	listener := s.listener
	s.mu.Unlock()

	// A stream that fails before Subscribe returns is stopped there.
	if listener != nil {
		listener.Stop()
	}
	metrics.SubscriptionClosed(s.collection)
}

func decodeAll[T any](snap *repository.QuerySnapshot, decode Decoder[T]) ([]T, error) {
	items := make([]T, 0, len(snap.Documents))
	for _, doc := range snap.Documents {
		item, err := decode(doc)
		if err != nil {
			return nil, domainerrors.NewPersistenceError(domainerrors.PersistenceInternal, "decode "+doc.Path, err)
		}
		items = append(items, item)
	}

	return items, nil
}
