package firebase

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"eventboard/internal/domain/entity"
	domainerrors "eventboard/internal/domain/errors"
	"eventboard/internal/domain/repository"
	"eventboard/internal/errors"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
)

// Store is a repository.DocumentStore backed by Cloud Firestore. Guarded writes
// run in a transaction that re-reads the document before applying the change.
type Store struct {
	client *firestore.Client
	logger *slog.Logger
}

// NewStore opens the Firestore database of app.
func NewStore(ctx context.Context, app *firebase.App, logger *slog.Logger) (*Store, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get firestore client")
	}

	return &Store{client: client, logger: logger}, nil
}

// CreateDocument stores data under a new Firestore id in collection.
func (s *Store) CreateDocument(ctx context.Context, collection string, data map[string]any) (string, error) {
	coll, err := s.collection("create", collection)
	if err != nil {
		return "", err
	}
	ref, _, err := coll.Add(ctx, toFirestoreData(data))
	if err != nil {
		return "", persistenceError("create", err)
	}

	return ref.ID, nil
}

// SetDocument creates or overwrites the document at path.
func (s *Store) SetDocument(ctx context.Context, path string, data map[string]any) error {
	ref, err := s.doc("set", path)
	if err != nil {
		return err
	}
	_, err = ref.Set(ctx, toFirestoreData(data))

	return persistenceError("set", err)
}

// UpdateDocument merges patch into the document at path.
func (s *Store) UpdateDocument(ctx context.Context, path string, patch map[string]any, preconditions ...repository.Precondition) error {
	ref, err := s.doc("update", path)
	if err != nil {
		return err
	}
	updates := toUpdates(patch)
	if len(preconditions) == 0 {
		_, err := ref.Update(ctx, updates)

		return persistenceError("update", err)
	}

	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		if err := checkPreconditions("update", snap, preconditions); err != nil {
			return err
		}

		return tx.Update(ref, updates)
	})

	return transactionError("update", err)
}

// DeleteDocument removes the document at path.
func (s *Store) DeleteDocument(ctx context.Context, path string, preconditions ...repository.Precondition) error {
	ref, err := s.doc("delete", path)
	if err != nil {
		return err
	}
	if len(preconditions) == 0 {
		_, err := ref.Delete(ctx)

		return persistenceError("delete", err)
	}

	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		if err := checkPreconditions("delete", snap, preconditions); err != nil {
			return err
		}

		return tx.Delete(ref)
	})

	return transactionError("delete", err)
}

// ReadDocument fetches the document at path.
func (s *Store) ReadDocument(ctx context.Context, path string) (*repository.Document, error) {
	ref, err := s.doc("read", path)
	if err != nil {
		return nil, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, persistenceError("read", err)
	}

	return &repository.Document{ID: snap.Ref.ID, Path: path, Data: snap.Data()}, nil
}

// Subscribe opens a Firestore snapshot listener for query.
func (s *Store) Subscribe(ctx context.Context, query repository.Query, onSnapshot func(*repository.QuerySnapshot), onError func(error)) (repository.Listener, error) {
	coll, err := s.collection("subscribe", query.Collection)
	if err != nil {
		return nil, err
	}

	q := coll.Query
	if query.OrderBy != "" {
		dir := firestore.Asc
		if query.Direction == repository.Desc {
			dir = firestore.Desc
		}
		q = q.OrderBy(query.OrderBy, dir)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	l := &snapshotListener{
		it:     q.Snapshots(streamCtx),
		parent: ctx,
		cancel: cancel,
	}
	go l.run(query.Collection, onSnapshot, onError, s.logger)

	return l, nil
}

// Collection and Doc return nil for paths with the wrong number of segments.
func (s *Store) collection(op, path string) (*firestore.CollectionRef, error) {
	coll := s.client.Collection(path)
	if coll == nil {
		return nil, invalidPath(op, path)
	}

	return coll, nil
}

func (s *Store) doc(op, path string) (*firestore.DocumentRef, error) {
	ref := s.client.Doc(path)
	if ref == nil {
		return nil, invalidPath(op, path)
	}

	return ref, nil
}

// Close releases the Firestore client.
func (s *Store) Close() error {
	return errors.WithStack(s.client.Close())
}

type snapshotListener struct {
	it       *firestore.QuerySnapshotIterator
	parent   context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	stopped  atomic.Bool
}

// Stop cancels the listen stream. The iterator itself is stopped by the
// delivering goroutine, since Stop must not run concurrently with Next.
func (l *snapshotListener) Stop() {
	l.stopOnce.Do(func() {
		l.stopped.Store(true)
		l.cancel()
	})
}

// closed reports a stream that ended because the subscribing ctx was done
// rather than through Stop.
func (l *snapshotListener) closed(onError func(error)) {
	if l.stopped.Load() || l.parent.Err() == nil || onError == nil {
		return
	}
	onError(domainerrors.NewPersistenceError(domainerrors.PersistenceUnavailable, "listen", errors.WithStack(l.parent.Err())))
}

func (l *snapshotListener) run(collection string, onSnapshot func(*repository.QuerySnapshot), onError func(error), logger *slog.Logger) {
	defer l.it.Stop()
	defer l.Stop()

	var version int64
	for {
		snap, err := l.it.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) || isStreamClosed(err) {
				l.closed(onError)

				return
			}
			logger.Warn("Firestore listener failed",
				slog.String("collection", collection),
				slog.Any("error", err),
			)
			if onError != nil {
				onError(persistenceError("listen", err))
			}

			return
		}

		docs, err := snap.Documents.GetAll()
		if err != nil {
			if isStreamClosed(err) {
				l.closed(onError)

				return
			}
			if onError != nil {
				onError(persistenceError("listen", err))
			}

			return
		}

		version++
		out := &repository.QuerySnapshot{
			Documents: make([]*repository.Document, 0, len(docs)),
			Version:   version,
			ReadTime:  snap.ReadTime,
		}
		for _, doc := range docs {
			out.Documents = append(out.Documents, &repository.Document{
				ID:   doc.Ref.ID,
				Path: entity.JoinPath(collection, doc.Ref.ID),
				Data: doc.Data(),
			})
		}
		onSnapshot(out)
	}
}

func checkPreconditions(op string, snap *firestore.DocumentSnapshot, preconditions []repository.Precondition) error {
	data := snap.Data()
	for _, p := range preconditions {
		if !reflect.DeepEqual(data[p.Field], p.Value) {
			return domainerrors.NewPersistenceError(domainerrors.PersistencePermissionDenied, op,
				errors.Errorf("precondition on %q failed for %s", p.Field, snap.Ref.ID))
		}
	}

	return nil
}

// transactionError keeps domain errors raised inside a transaction function and
// converts everything else.
func transactionError(op string, err error) error {
	if err == nil {
		return nil
	}
	var persistenceErr *domainerrors.PersistenceError
	if errors.As(err, &persistenceErr) {
		return persistenceErr
	}

	return persistenceError(op, err)
}

func toFirestoreData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if v == repository.ServerTimestamp {
			v = firestore.ServerTimestamp
		}
		out[k] = v
	}

	return out
}

func toUpdates(patch map[string]any) []firestore.Update {
	updates := make([]firestore.Update, 0, len(patch))
	for k, v := range toFirestoreData(patch) {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}

	return updates
}

func invalidPath(op, path string) error {
	return domainerrors.NewPersistenceError(domainerrors.PersistenceInternal, op, errors.Errorf("invalid path %q", path))
}
