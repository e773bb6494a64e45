package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"eventboard/internal/domain/entity"
	"eventboard/internal/infra/memory"
	"eventboard/internal/infra/qrcode"
	mockService "eventboard/internal/mocks/service"
	"eventboard/internal/usecase"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"golang.org/x/crypto/bcrypt"
)

const waitFor = 2 * time.Second

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// clientFixtures is one client process: its own identity state, session store,
// workspace and gateway, talking to a document store that may be shared.
type clientFixtures struct {
	identity  *memory.Identity
	store     *memory.Store
	session   usecase.SessionUsecase
	workspace usecase.WorkspaceUsecase
	events    usecase.EventUsecase
	publisher *mockService.MockEventPublisher
	lc        *fxtest.Lifecycle
}

func newTestIdentity() *memory.Identity {
	return memory.NewIdentity(memory.IdentityOptions{
		BcryptCost:  bcrypt.MinCost,
		TokenSecret: "test-secret",
		Logger:      discardLogger(),
	})
}

// newClient builds and starts a client on store. The lifecycle is stopped on cleanup.
func newClient(t *testing.T, store *memory.Store) *clientFixtures {
	t.Helper()

	lc := fxtest.NewLifecycle(t)
	identity := newTestIdentity()
	logger := discardLogger()

	publisher := mockService.NewMockEventPublisher(t)
	publisher.EXPECT().PublishEventChange(mock.Anything, mock.Anything).Return(nil).Maybe()

	session := NewSessionService(SessionServiceParams{
		Lc:       lc,
		Identity: identity,
		Store:    store,
		Logger:   logger,
	})
	workspace := NewWorkspaceService(WorkspaceServiceParams{
		Lc:      lc,
		Ctx:     context.Background(),
		Session: session,
		Store:   store,
		Logger:  logger,
	})
	events := NewEventService(EventServiceParams{
		Session:   session,
		Store:     store,
		Publisher: publisher,
		QRCode:    qrcode.NewQRCodeService(128, "M", "eventboard://events"),
		Logger:    logger,
	})

	lc.RequireStart()
	t.Cleanup(func() { lc.RequireStop() })

	return &clientFixtures{
		identity:  identity,
		store:     store,
		session:   session,
		workspace: workspace,
		events:    events,
		publisher: publisher,
		lc:        lc,
	}
}

func (c *clientFixtures) register(t *testing.T, email, name string) string {
	t.Helper()

	identity, err := c.session.Register(context.Background(), &usecase.RegisterInput{
		Email:       email,
		Password:    "secret123",
		DisplayName: name,
	})
	require.NoError(t, err)

	return identity.UID
}

func eventInput(title, location string, date time.Time) *usecase.EventInput {
	return &usecase.EventInput{Title: title, Location: location, Date: &date}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func eventFor(id, title string) entity.Event {
	return entity.Event{ID: id, Title: title, Location: "HQ", Date: day(2025, time.June, 1)}
}
