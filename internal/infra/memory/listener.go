package memory

import (
	"context"
	"sync"

	domainerrors "eventboard/internal/domain/errors"
	"eventboard/internal/domain/repository"
	"eventboard/internal/errors"
)

// listener keeps only the newest undelivered snapshot. Intermediate states may be
// skipped, but the delivered sequence is always in commit order.
type listener struct {
	store      *Store
	id         int64
	query      repository.Query
	onSnapshot func(*repository.QuerySnapshot)
	onError    func(error)
	version    int64

	mu      sync.Mutex
	pending *repository.QuerySnapshot
	err     error

	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newListener(store *Store, id int64, query repository.Query, onSnapshot func(*repository.QuerySnapshot), onError func(error)) *listener {
	return &listener{
		store:      store,
		id:         id,
		query:      query,
		onSnapshot: onSnapshot,
		onError:    onError,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Stop releases the listener. It is safe to call more than once.
func (l *listener) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
		l.store.removeListener(l.id)
	})
}

func (l *listener) push(snapshot *repository.QuerySnapshot) {
	l.mu.Lock()
	if l.err == nil {
		l.pending = snapshot
	}
	l.mu.Unlock()
	l.signal()
}

func (l *listener) fail(err error) {
	l.mu.Lock()
	if l.err == nil {
		l.err = err
	}
	l.mu.Unlock()
	l.signal()
}

func (l *listener) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *listener) run(ctx context.Context) {
	for {
		select {
		case <-l.done:
			return
		case <-ctx.Done():
			// The owner never asked for this, so it hears about it as a stream failure.
			report := !l.stopped() && l.onError != nil
			l.Stop()
			if report {
				l.onError(domainerrors.NewPersistenceError(domainerrors.PersistenceUnavailable, "listen", errors.WithStack(ctx.Err())))
			}

			return
		case <-l.wake:
		}

		l.mu.Lock()
		snapshot, err := l.pending, l.err
		l.pending = nil
		l.mu.Unlock()

		if snapshot != nil && !l.stopped() {
			l.onSnapshot(snapshot)
		}
		if err != nil {
			report := !l.stopped() && l.onError != nil
			l.Stop()
			if report {
				l.onError(err)
			}

			return
		}
	}
}

func (l *listener) stopped() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}
