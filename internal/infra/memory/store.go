// Package memory contains an in-process identity backend and document store.
// They keep the contracts of the managed backend and serve local runs and tests.
package memory

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"eventboard/internal/domain/entity"
	domainerrors "eventboard/internal/domain/errors"
	"eventboard/internal/domain/repository"
	"eventboard/internal/errors"

	"github.com/google/uuid"
)

type storedDocument struct {
	id         string
	path       string
	collection string
	data       map[string]any
	seq        int64
}

// Store is an in-memory repository.DocumentStore. Writes are serialized by a single
// lock; every listener receives snapshots from its own goroutine.
type Store struct {
	mu         sync.Mutex
	docs       map[string]*storedDocument
	seq        int64
	listeners  map[int64]*listener
	nextID     int64
	clock      func() time.Time
	writeErr   error
	writeCalls int
	closed     bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock replaces the time source used for server timestamps.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		s.clock = clock
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		docs:      make(map[string]*storedDocument),
		listeners: make(map[int64]*listener),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateDocument stores data under a new id in collection.
func (s *Store) CreateDocument(ctx context.Context, collection string, data map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", domainerrors.NewPersistenceError(domainerrors.PersistenceUnavailable, "create", err)
	}
	if !isCollectionPath(collection) {
		return "", invalidPath("create", collection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.beginWrite("create"); err != nil {
		return "", err
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	path := entity.JoinPath(collection, id)
	s.seq++
	s.docs[path] = &storedDocument{
		id:         id,
		path:       path,
		collection: collection,
		data:       s.resolve(data),
		seq:        s.seq,
	}
	s.notifyLocked(collection)

	return id, nil
}

// SetDocument creates or overwrites the document at path.
func (s *Store) SetDocument(ctx context.Context, path string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return domainerrors.NewPersistenceError(domainerrors.PersistenceUnavailable, "set", err)
	}
	collection, id, ok := splitDocumentPath(path)
	if !ok {
		return invalidPath("set", path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.beginWrite("set"); err != nil {
		return err
	}

	doc, exists := s.docs[path]
	if !exists {
		s.seq++
		doc = &storedDocument{id: id, path: path, collection: collection, seq: s.seq}
		s.docs[path] = doc
	}
	doc.data = s.resolve(data)
	s.notifyLocked(collection)

	return nil
}

// UpdateDocument merges patch into the document at path.
func (s *Store) UpdateDocument(ctx context.Context, path string, patch map[string]any, preconditions ...repository.Precondition) error {
	if err := ctx.Err(); err != nil {
		return domainerrors.NewPersistenceError(domainerrors.PersistenceUnavailable, "update", err)
	}
	if _, _, ok := splitDocumentPath(path); !ok {
		return invalidPath("update", path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.beginWrite("update"); err != nil {
		return err
	}

	doc, exists := s.docs[path]
	if !exists {
		return domainerrors.NewPersistenceError(domainerrors.PersistenceNotFound, "update", errors.Errorf("no document at %s", path))
	}
	if err := checkPreconditions("update", doc, preconditions); err != nil {
		return err
	}

	merged := copyData(doc.data)
	for k, v := range s.resolve(patch) {
		merged[k] = v
	}
	doc.data = merged
	s.notifyLocked(doc.collection)

	return nil
}

// DeleteDocument removes the document at path.
func (s *Store) DeleteDocument(ctx context.Context, path string, preconditions ...repository.Precondition) error {
	if err := ctx.Err(); err != nil {
		return domainerrors.NewPersistenceError(domainerrors.PersistenceUnavailable, "delete", err)
	}
	collection, _, ok := splitDocumentPath(path)
	if !ok {
		return invalidPath("delete", path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.beginWrite("delete"); err != nil {
		return err
	}

	doc, exists := s.docs[path]
	if !exists {
		if len(preconditions) > 0 {
			return domainerrors.NewPersistenceError(domainerrors.PersistenceNotFound, "delete", errors.Errorf("no document at %s", path))
		}

		return nil
	}
	if err := checkPreconditions("delete", doc, preconditions); err != nil {
		return err
	}

	delete(s.docs, path)
	s.notifyLocked(collection)

	return nil
}

// ReadDocument fetches the document at path.
func (s *Store) ReadDocument(ctx context.Context, path string) (*repository.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.NewPersistenceError(domainerrors.PersistenceUnavailable, "read", err)
	}
	if _, _, ok := splitDocumentPath(path); !ok {
		return nil, invalidPath("read", path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.docs[path]
	if !exists {
		return nil, domainerrors.NewPersistenceError(domainerrors.PersistenceNotFound, "read", errors.Errorf("no document at %s", path))
	}

	return toDocument(doc), nil
}

// Subscribe streams query results to onSnapshot until the listener is stopped
// or the stream fails. A done ctx fails the stream with an UNAVAILABLE error.
func (s *Store) Subscribe(ctx context.Context, query repository.Query, onSnapshot func(*repository.QuerySnapshot), onError func(error)) (repository.Listener, error) {
	if !isCollectionPath(query.Collection) {
		return nil, invalidPath("subscribe", query.Collection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domainerrors.NewPersistenceError(domainerrors.PersistenceUnavailable, "subscribe", errors.New("store closed"))
	}

	s.nextID++
	l := newListener(s, s.nextID, query, onSnapshot, onError)
	s.listeners[l.id] = l
	l.push(s.snapshotLocked(l))

	go l.run(ctx)

	return l, nil
}

// Close stops every listener.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	listeners := make([]*listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l.Stop()
	}

	return nil
}

// ListenerCount returns the number of live backend listeners.
func (s *Store) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.listeners)
}

// WriteCalls returns how many write operations reached the store.
func (s *Store) WriteCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeCalls
}

// FailWrites makes every following write fail with err until called with nil.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writeErr = err
}

// FailListeners ends every listener on collection with err, as a backend does
// when read permission is revoked mid-stream.
func (s *Store) FailListeners(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.listeners {
		if l.query.Collection == collection {
			l.fail(err)
		}
	}
}

func (s *Store) beginWrite(op string) error {
	s.writeCalls++
	if s.closed {
		return domainerrors.NewPersistenceError(domainerrors.PersistenceUnavailable, op, errors.New("store closed"))
	}
	if s.writeErr != nil {
		return s.writeErr
	}

	return nil
}

func (s *Store) removeListener(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.listeners, id)
}

func (s *Store) notifyLocked(collection string) {
	for _, l := range s.listeners {
		if l.query.Collection == collection {
			l.push(s.snapshotLocked(l))
		}
	}
}

func (s *Store) snapshotLocked(l *listener) *repository.QuerySnapshot {
	matched := make([]*storedDocument, 0)
	for _, doc := range s.docs {
		if doc.collection == l.query.Collection {
			matched = append(matched, doc)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].seq < matched[j].seq
	})
	if field := l.query.OrderBy; field != "" {
		desc := l.query.Direction == repository.Desc
		sort.SliceStable(matched, func(i, j int) bool {
			c := compareValues(matched[i].data[field], matched[j].data[field])
			if desc {
				return c > 0
			}

			return c < 0
		})
	}

	docs := make([]*repository.Document, 0, len(matched))
	for _, doc := range matched {
		docs = append(docs, toDocument(doc))
	}
	l.version++

	return &repository.QuerySnapshot{
		Documents: docs,
		Version:   l.version,
		ReadTime:  s.clock(),
	}
}

func (s *Store) resolve(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if v == repository.ServerTimestamp {
			v = s.clock()
		}
		out[k] = v
	}

	return out
}

func checkPreconditions(op string, doc *storedDocument, preconditions []repository.Precondition) error {
	for _, p := range preconditions {
		if !reflect.DeepEqual(doc.data[p.Field], p.Value) {
			return domainerrors.NewPersistenceError(domainerrors.PersistencePermissionDenied, op,
				errors.Errorf("precondition on %q failed for %s", p.Field, doc.path))
		}
	}

	return nil
}

func toDocument(doc *storedDocument) *repository.Document {
	return &repository.Document{
		ID:   doc.id,
		Path: doc.path,
		Data: copyData(doc.data),
	}
}

func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}

	return out
}

func invalidPath(op, path string) error {
	return domainerrors.NewPersistenceError(domainerrors.PersistenceInternal, op, errors.Errorf("invalid path %q", path))
}

func segments(path string) []string {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	for _, p := range parts {
		if p == "" {
			return nil
		}
	}

	return parts
}

func isCollectionPath(path string) bool {
	n := len(segments(path))

	return n > 0 && n%2 == 1
}

func splitDocumentPath(path string) (collection, id string, ok bool) {
	parts := segments(path)
	if len(parts) == 0 || len(parts)%2 != 0 {
		return "", "", false
	}

	return strings.Join(parts[:len(parts)-1], "/"), parts[len(parts)-1], true
}

// compareValues orders the field types the store holds. Missing values sort first.
func compareValues(a, b any) int {
	switch av := a.(type) {
	case nil:
		if b == nil {
			return 0
		}

		return -1
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 1
		}

		return av.Compare(bv)
	case string:
		bv, ok := b.(string)
		if !ok {
			return 1
		}

		return strings.Compare(av, bv)
	case int:
		return compareFloat(float64(av), b)
	case int64:
		return compareFloat(float64(av), b)
	case float64:
		return compareFloat(av, b)
	default:
		return 0
	}
}

func compareFloat(a float64, b any) int {
	var bv float64
	switch v := b.(type) {
	case int:
		bv = float64(v)
	case int64:
		bv = float64(v)
	case float64:
		bv = v
	default:
		return 1
	}

	switch {
	case a < bv:
		return -1
	case a > bv:
		return 1
	default:
		return 0
	}
}
