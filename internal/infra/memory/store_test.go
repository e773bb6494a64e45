package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	domainerrors "eventboard/internal/domain/errors"
	"eventboard/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type snapshotRecorder struct {
	mu        sync.Mutex
	snapshots []*repository.QuerySnapshot
	errs      []error
}

func (r *snapshotRecorder) onSnapshot(s *repository.QuerySnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *snapshotRecorder) onError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *snapshotRecorder) last() *repository.QuerySnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil
	}

	return r.snapshots[len(r.snapshots)-1]
}

func (r *snapshotRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.snapshots)
}

func (r *snapshotRecorder) errCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.errs)
}

func (r *snapshotRecorder) waitLen(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		s := r.last()

		return s != nil && len(s.Documents) == n
	}, waitFor, time.Millisecond)
}

func titles(s *repository.QuerySnapshot) []string {
	out := make([]string, 0, len(s.Documents))
	for _, d := range s.Documents {
		out = append(out, d.Data["title"].(string))
	}

	return out
}

func TestStore_SubscribeDeliversInitialEmptySnapshot(t *testing.T) {
	store := NewStore()
	rec := &snapshotRecorder{}

	l, err := store.Subscribe(context.Background(), repository.Query{Collection: "events"}, rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer l.Stop()

	require.Eventually(t, func() bool { return rec.count() == 1 }, waitFor, time.Millisecond)
	assert.Empty(t, rec.last().Documents)
}

func TestStore_OrdersByFieldDescending(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	day := func(d int) time.Time { return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC) }

	_, err := store.CreateDocument(ctx, "events", map[string]any{"title": "early", "date": day(1)})
	require.NoError(t, err)
	_, err = store.CreateDocument(ctx, "events", map[string]any{"title": "late", "date": day(20)})
	require.NoError(t, err)
	_, err = store.CreateDocument(ctx, "events", map[string]any{"title": "tie-first", "date": day(10)})
	require.NoError(t, err)
	_, err = store.CreateDocument(ctx, "events", map[string]any{"title": "tie-second", "date": day(10)})
	require.NoError(t, err)

	rec := &snapshotRecorder{}
	l, err := store.Subscribe(ctx, repository.Query{Collection: "events", OrderBy: "date", Direction: repository.Desc}, rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer l.Stop()

	rec.waitLen(t, 4)
	assert.Equal(t, []string{"late", "tie-first", "tie-second", "early"}, titles(rec.last()))
}

func TestStore_SnapshotVersionsIncrease(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	rec := &snapshotRecorder{}

	l, err := store.Subscribe(ctx, repository.Query{Collection: "events"}, rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer l.Stop()

	for i := 0; i < 20; i++ {
		_, err := store.CreateDocument(ctx, "events", map[string]any{"title": "e"})
		require.NoError(t, err)
	}
	rec.waitLen(t, 20)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i := 1; i < len(rec.snapshots); i++ {
		assert.Greater(t, rec.snapshots[i].Version, rec.snapshots[i-1].Version)
	}
}

func TestStore_ListenerScopedToCollection(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	rec := &snapshotRecorder{}

	l, err := store.Subscribe(ctx, repository.Query{Collection: "users/u1/favorites"}, rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer l.Stop()

	require.NoError(t, store.SetDocument(ctx, "users/u2/favorites/e1", map[string]any{"title": "other"}))
	require.NoError(t, store.SetDocument(ctx, "users/u1/favorites/e1", map[string]any{"title": "mine"}))

	rec.waitLen(t, 1)
	assert.Equal(t, []string{"mine"}, titles(rec.last()))
	assert.Equal(t, "e1", rec.last().Documents[0].ID)
}

func TestStore_StopReleasesListener(t *testing.T) {
	store := NewStore()
	rec := &snapshotRecorder{}

	l, err := store.Subscribe(context.Background(), repository.Query{Collection: "events"}, rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	assert.Equal(t, 1, store.ListenerCount())

	l.Stop()
	l.Stop()

	assert.Equal(t, 0, store.ListenerCount())
}

func TestStore_ContextCancelReleasesListener(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	rec := &snapshotRecorder{}

	_, err := store.Subscribe(ctx, repository.Query{Collection: "events"}, rec.onSnapshot, rec.onError)
	require.NoError(t, err)

	cancel()

	require.Eventually(t, func() bool { return rec.errCount() == 1 }, waitFor, time.Millisecond)
	assert.ErrorIs(t, rec.errs[0], domainerrors.ErrUnavailable)
	assert.ErrorIs(t, rec.errs[0], context.Canceled)
	assert.Equal(t, 0, store.ListenerCount())
}

func TestStore_ContextCancelAfterStopIsSilent(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	rec := &snapshotRecorder{}

	l, err := store.Subscribe(ctx, repository.Query{Collection: "events"}, rec.onSnapshot, rec.onError)
	require.NoError(t, err)

	l.Stop()
	cancel()

	assert.Never(t, func() bool { return rec.errCount() > 0 }, 50*time.Millisecond, time.Millisecond)
	assert.Equal(t, 0, store.ListenerCount())
}

func TestStore_FailListenersReportsErrorAndReleases(t *testing.T) {
	store := NewStore()
	rec := &snapshotRecorder{}

	_, err := store.Subscribe(context.Background(), repository.Query{Collection: "events"}, rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return rec.count() == 1 }, waitFor, time.Millisecond)

	store.FailListeners("events", domainerrors.NewPersistenceError(domainerrors.PersistencePermissionDenied, "listen", nil))

	require.Eventually(t, func() bool { return rec.errCount() == 1 }, waitFor, time.Millisecond)
	assert.ErrorIs(t, rec.errs[0], domainerrors.ErrPermissionDenied)
	assert.Equal(t, 0, store.ListenerCount())
}

func TestStore_UpdatePreconditions(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	id, err := store.CreateDocument(ctx, "events", map[string]any{"title": "a", "ownerId": "u1"})
	require.NoError(t, err)
	path := "events/" + id

	err = store.UpdateDocument(ctx, path, map[string]any{"title": "b"}, repository.FieldEquals("ownerId", "u2"))
	assert.ErrorIs(t, err, domainerrors.ErrPermissionDenied)

	err = store.UpdateDocument(ctx, path, map[string]any{"title": "b"}, repository.FieldEquals("ownerId", "u1"))
	require.NoError(t, err)

	doc, err := store.ReadDocument(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "b", doc.Data["title"])
	assert.Equal(t, "u1", doc.Data["ownerId"])
}

func TestStore_UpdateMissingDocument(t *testing.T) {
	store := NewStore()

	err := store.UpdateDocument(context.Background(), "events/missing", map[string]any{"title": "b"})
	assert.ErrorIs(t, err, domainerrors.ErrDocumentNotFound)
}

func TestStore_DeletePreconditions(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	id, err := store.CreateDocument(ctx, "events", map[string]any{"ownerId": "u1"})
	require.NoError(t, err)
	path := "events/" + id

	assert.ErrorIs(t, store.DeleteDocument(ctx, path, repository.FieldEquals("ownerId", "u2")), domainerrors.ErrPermissionDenied)
	require.NoError(t, store.DeleteDocument(ctx, path, repository.FieldEquals("ownerId", "u1")))

	_, err = store.ReadDocument(ctx, path)
	assert.ErrorIs(t, err, domainerrors.ErrDocumentNotFound)

	assert.NoError(t, store.DeleteDocument(ctx, path))
	assert.ErrorIs(t, store.DeleteDocument(ctx, path, repository.FieldEquals("ownerId", "u1")), domainerrors.ErrDocumentNotFound)
}

func TestStore_ServerTimestamp(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	store := NewStore(WithClock(func() time.Time { return now }))

	require.NoError(t, store.SetDocument(ctx, "users/u1", map[string]any{"createdAt": repository.ServerTimestamp}))

	doc, err := store.ReadDocument(ctx, "users/u1")
	require.NoError(t, err)
	assert.Equal(t, now, doc.Data["createdAt"])
}

func TestStore_FailWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.FailWrites(domainerrors.NewPersistenceError(domainerrors.PersistenceUnavailable, "create", nil))

	_, err := store.CreateDocument(ctx, "events", map[string]any{})
	assert.ErrorIs(t, err, domainerrors.ErrUnavailable)

	store.FailWrites(nil)
	_, err = store.CreateDocument(ctx, "events", map[string]any{})
	assert.NoError(t, err)
	assert.Equal(t, 2, store.WriteCalls())
}

func TestStore_RejectsInvalidPaths(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	_, err := store.CreateDocument(ctx, "events/e1", map[string]any{})
	assert.Error(t, err)
	assert.Error(t, store.SetDocument(ctx, "events", map[string]any{}))
	_, err = store.ReadDocument(ctx, "users//favorites")
	assert.Error(t, err)
	_, err = store.Subscribe(ctx, repository.Query{Collection: "users/u1"}, func(*repository.QuerySnapshot) {}, nil)
	assert.Error(t, err)
}

func TestStore_ReturnedDataIsACopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.SetDocument(ctx, "events/e1", map[string]any{"title": "a"}))

	doc, err := store.ReadDocument(ctx, "events/e1")
	require.NoError(t, err)
	doc.Data["title"] = "mutated"

	doc, err = store.ReadDocument(ctx, "events/e1")
	require.NoError(t, err)
	assert.Equal(t, "a", doc.Data["title"])
}

func TestStore_CloseStopsListeners(t *testing.T) {
	store := NewStore()
	_, err := store.Subscribe(context.Background(), repository.Query{Collection: "events"}, func(*repository.QuerySnapshot) {}, nil)
	require.NoError(t, err)

	require.NoError(t, store.Close())

	assert.Equal(t, 0, store.ListenerCount())
	_, err = store.Subscribe(context.Background(), repository.Query{Collection: "events"}, func(*repository.QuerySnapshot) {}, nil)
	assert.ErrorIs(t, err, domainerrors.ErrUnavailable)
}
