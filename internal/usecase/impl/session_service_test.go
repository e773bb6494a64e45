package impl

import (
	"context"
	"sync"
	"testing"

	"eventboard/internal/domain/entity"
	domainerrors "eventboard/internal/domain/errors"
	"eventboard/internal/infra/memory"
	"eventboard/internal/infra/persistence/model"
	"eventboard/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func TestSessionService_LoadingUntilFirstAuthState(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	session := NewSessionService(SessionServiceParams{
		Lc:       lc,
		Identity: newTestIdentity(),
		Store:    memory.NewStore(),
		Logger:   discardLogger(),
	})

	assert.True(t, session.Current().Loading)
	assert.False(t, session.Current().Authenticated())

	lc.RequireStart()
	defer lc.RequireStop()

	assert.False(t, session.Current().Loading)
	assert.False(t, session.Current().Authenticated())
}

func TestSessionService_LoadingStaysFalse(t *testing.T) {
	client := newClient(t, memory.NewStore())
	ctx := context.Background()

	client.register(t, "a@example.com", "Alice")
	assert.False(t, client.session.Current().Loading)

	require.NoError(t, client.session.Logout(ctx))
	assert.False(t, client.session.Current().Loading)
	assert.False(t, client.session.Current().Authenticated())
}

func TestSessionService_RegisterWritesProfile(t *testing.T) {
	client := newClient(t, memory.NewStore())
	ctx := context.Background()

	identity, err := client.session.Register(ctx, &usecase.RegisterInput{
		Email:       "alice@example.com",
		Password:    "secret123",
		DisplayName: "Alice",
	})
	require.NoError(t, err)

	assert.Equal(t, "Alice", identity.DisplayName)
	current := client.session.Current()
	require.True(t, current.Authenticated())
	assert.Equal(t, identity.UID, current.UID())
	assert.Equal(t, "Alice", current.Identity.DisplayName)

	doc, err := client.store.ReadDocument(ctx, entity.UserPath(identity.UID))
	require.NoError(t, err)
	profile, err := model.ToProfileDomain(doc)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, "Alice", profile.DisplayName)
	assert.False(t, profile.CreatedAt.IsZero())
}

func TestSessionService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name  string
		input usecase.RegisterInput
		field string
	}{
		{"missing email", usecase.RegisterInput{Password: "secret123", DisplayName: "A"}, "email"},
		{"bad email", usecase.RegisterInput{Email: "nope", Password: "secret123", DisplayName: "A"}, "email"},
		{"short password", usecase.RegisterInput{Email: "a@example.com", Password: "123", DisplayName: "A"}, "password"},
		{"missing name", usecase.RegisterInput{Email: "a@example.com", Password: "secret123"}, "display_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t, memory.NewStore())

			_, err := client.session.Register(context.Background(), &tt.input)

			var validationErr *domainerrors.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.True(t, validationErr.HasField(tt.field), validationErr.Details())
			assert.Zero(t, client.store.WriteCalls())
			assert.False(t, client.session.Current().Authenticated())
		})
	}
}

func TestSessionService_RegisterEmailInUse(t *testing.T) {
	client := newClient(t, memory.NewStore())
	ctx := context.Background()

	client.register(t, "a@example.com", "Alice")
	require.NoError(t, client.session.Logout(ctx))

	_, err := client.session.Register(ctx, &usecase.RegisterInput{
		Email:       "a@example.com",
		Password:    "another123",
		DisplayName: "Again",
	})

	var authErr *domainerrors.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, domainerrors.AuthCodeEmailExists, authErr.Code())
}

func TestSessionService_RegisterProfileWriteFails(t *testing.T) {
	client := newClient(t, memory.NewStore())
	client.store.FailWrites(domainerrors.NewPersistenceError(domainerrors.PersistenceUnavailable, "set", nil))

	_, err := client.session.Register(context.Background(), &usecase.RegisterInput{
		Email:       "a@example.com",
		Password:    "secret123",
		DisplayName: "Alice",
	})

	assert.ErrorIs(t, err, domainerrors.ErrUnavailable)
}

func TestSessionService_Login(t *testing.T) {
	client := newClient(t, memory.NewStore())
	ctx := context.Background()

	uid := client.register(t, "a@example.com", "Alice")
	require.NoError(t, client.session.Logout(ctx))

	t.Run("wrong password", func(t *testing.T) {
		_, err := client.session.Login(ctx, &usecase.LoginInput{Email: "a@example.com", Password: "wrong-one"})

		var authErr *domainerrors.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, domainerrors.AuthCodeInvalidPassword, authErr.Code())
		assert.False(t, client.session.Current().Authenticated())
	})

	t.Run("no such user", func(t *testing.T) {
		_, err := client.session.Login(ctx, &usecase.LoginInput{Email: "b@example.com", Password: "secret123"})

		var authErr *domainerrors.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, domainerrors.AuthCodeEmailNotFound, authErr.Code())
	})

	t.Run("missing password", func(t *testing.T) {
		_, err := client.session.Login(ctx, &usecase.LoginInput{Email: "a@example.com"})

		var validationErr *domainerrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.True(t, validationErr.HasField("password"))
	})

	t.Run("success", func(t *testing.T) {
		identity, err := client.session.Login(ctx, &usecase.LoginInput{Email: "a@example.com", Password: "secret123"})

		require.NoError(t, err)
		assert.Equal(t, uid, identity.UID)
		assert.Equal(t, uid, client.session.Current().UID())
	})
}

func TestSessionService_LoginDisabledAccount(t *testing.T) {
	client := newClient(t, memory.NewStore())
	ctx := context.Background()

	client.register(t, "a@example.com", "Alice")
	require.NoError(t, client.session.Logout(ctx))
	client.identity.Disable("a@example.com")

	_, err := client.session.Login(ctx, &usecase.LoginInput{Email: "a@example.com", Password: "secret123"})

	var authErr *domainerrors.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, domainerrors.AuthCodeUserDisabled, authErr.Code())
}

func TestSessionService_RevalidateClearsRevokedSession(t *testing.T) {
	client := newClient(t, memory.NewStore())
	ctx := context.Background()

	uid := client.register(t, "a@example.com", "Alice")
	require.NoError(t, client.session.Revalidate(ctx))
	assert.True(t, client.session.Current().Authenticated())

	client.identity.RevokeSessions(uid)
	require.NoError(t, client.session.Revalidate(ctx))

	assert.False(t, client.session.Current().Authenticated())
	assert.False(t, client.session.Current().Loading)
}

func TestSessionService_RevalidateSignedOut(t *testing.T) {
	client := newClient(t, memory.NewStore())

	assert.NoError(t, client.session.Revalidate(context.Background()))
}

func TestSessionService_Watch(t *testing.T) {
	client := newClient(t, memory.NewStore())
	ctx := context.Background()

	var mu sync.Mutex
	var seen []string
	cancel := client.session.Watch(func(s entity.Session) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s.UID())
	})

	uid := client.register(t, "a@example.com", "Alice")
	require.NoError(t, client.session.Logout(ctx))
	cancel()
	client.register(t, "b@example.com", "Bob")

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, "", seen[0])
	assert.Contains(t, seen, uid)
	assert.Equal(t, "", seen[len(seen)-1])
}

func TestSessionService_StopEndsObservation(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	identity := newTestIdentity()
	session := NewSessionService(SessionServiceParams{
		Lc:       lc,
		Identity: identity,
		Store:    memory.NewStore(),
		Logger:   discardLogger(),
	})
	lc.RequireStart()
	lc.RequireStop()

	_, err := identity.CreateIdentity(context.Background(), "a@example.com", "secret123")
	require.NoError(t, err)

	assert.False(t, session.Current().Authenticated())
}

func TestSessionService_CurrentIsACopy(t *testing.T) {
	client := newClient(t, memory.NewStore())
	client.register(t, "a@example.com", "Alice")

	current := client.session.Current()
	current.Identity.DisplayName = "Mallory"

	assert.Equal(t, "Alice", client.session.Current().Identity.DisplayName)
}
