package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"eventboard/config"
	"eventboard/internal/infra/memory"
	"eventboard/internal/usecase"
	"eventboard/internal/usecase/impl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	lc       *fxtest.Lifecycle
	identity *memory.Identity
	session  usecase.SessionUsecase
	uid      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lc := fxtest.NewLifecycle(t)
	identity := memory.NewIdentity(memory.IdentityOptions{
		BcryptCost:  bcrypt.MinCost,
		TokenSecret: "test-secret",
		Logger:      logger,
	})
	session := impl.NewSessionService(impl.SessionServiceParams{
		Lc:       lc,
		Identity: identity,
		Store:    memory.NewStore(),
		Logger:   logger,
	})

	return &fixture{lc: lc, identity: identity, session: session}
}

func (f *fixture) signIn(t *testing.T) {
	t.Helper()

	identity, err := f.session.Register(context.Background(), &usecase.RegisterInput{
		Email:       "alice@example.com",
		Password:    "secret123",
		DisplayName: "Alice",
	})
	require.NoError(t, err)
	f.uid = identity.UID
}

func newWorker(t *testing.T, f *fixture, schedule string) *workerServer {
	t.Helper()

	cfg := &config.Config{Session: &config.SessionConfig{RevalidateSchedule: schedule}}
	d, err := NewServer(ServerParams{
		Lc:      f.lc,
		Cfg:     cfg,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Session: f.session,
	})
	require.NoError(t, err)

	return d.(*workerServer)
}

func TestNewServer_InvalidSchedule(t *testing.T) {
	f := newFixture(t)
	cfg := &config.Config{Session: &config.SessionConfig{RevalidateSchedule: "every now and then"}}

	_, err := NewServer(ServerParams{
		Lc:      f.lc,
		Cfg:     cfg,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Session: f.session,
	})

	assert.ErrorContains(t, err, "invalid session revalidate schedule")
}

func TestNewServer_EmptyScheduleHasNoJobs(t *testing.T) {
	f := newFixture(t)

	w := newWorker(t, f, "")

	assert.Empty(t, w.cron.Entries())
}

func TestRevalidate_SignsOutRevokedSession(t *testing.T) {
	f := newFixture(t)
	w := newWorker(t, f, "")
	f.lc.RequireStart()
	defer f.lc.RequireStop()
	f.signIn(t)

	w.revalidate()
	assert.True(t, f.session.Current().Authenticated())

	f.identity.RevokeSessions(f.uid)
	w.revalidate()
	assert.False(t, f.session.Current().Authenticated())

	// Signed out: nothing to check.
	w.revalidate()
	assert.False(t, f.session.Current().Authenticated())
}

func TestServe_RunsScheduleUntilStopped(t *testing.T) {
	f := newFixture(t)
	w := newWorker(t, f, "@every 1s")
	f.lc.RequireStart()
	f.signIn(t)
	f.identity.RevokeSessions(f.uid)

	served := make(chan error, 1)
	go func() { served <- w.Serve(context.Background()) }()

	require.Eventually(t, func() bool {
		return !f.session.Current().Authenticated()
	}, 3*time.Second, 10*time.Millisecond)

	f.lc.RequireStop()

	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after stop")
	}
}
