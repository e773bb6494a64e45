// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"log/slog"
	"sync"

	deliverycontext "eventboard/internal/delivery/context"
	"eventboard/internal/domain/entity"
	"eventboard/internal/domain/repository"
	"eventboard/internal/domain/service"
	"eventboard/internal/errors"
	"eventboard/internal/infra/persistence/model"
	"eventboard/internal/usecase"

	"go.uber.org/fx"
)

// SessionServiceParams holds dependencies for the session store, injected by Fx.
type SessionServiceParams struct {
	fx.In

	Lc       fx.Lifecycle
	Identity service.IdentityBackend
	Store    repository.DocumentStore
	Logger   *slog.Logger
}

// sessionService implements the SessionUsecase interface. The auth-state
// subscription is opened when the application starts and closed when it stops.
type sessionService struct {
	identity service.IdentityBackend
	store    repository.DocumentStore
	validate *inputValidator
	logger   *slog.Logger

	mu      sync.Mutex
	session entity.Session

	// deliverMu serializes watcher calls.
	deliverMu sync.Mutex
	watchers  map[int]func(entity.Session)
	nextID    int

	unobserve func()
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	srv := &sessionService{
		identity: params.Identity,
		store:    params.Store,
		validate: newInputValidator(),
		logger:   params.Logger,
		session:  entity.Session{Loading: true},
		watchers: make(map[int]func(entity.Session)),
	}

	params.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			srv.start()

			return nil
		},
		OnStop: func(context.Context) error {
			srv.stop()

			return nil
		},
	})

	return srv
}

func (srv *sessionService) start() {
	srv.logger.Info("Observing auth state")
	unobserve := srv.identity.ObserveIdentity(srv.onIdentity)

	srv.mu.Lock()
	srv.unobserve = unobserve
	srv.mu.Unlock()
}

func (srv *sessionService) stop() {
	srv.mu.Lock()
	unobserve := srv.unobserve
	srv.unobserve = nil
	srv.mu.Unlock()

	if unobserve != nil {
		srv.logger.Info("Stopped observing auth state")
		unobserve()
	}
}

// onIdentity is the only place the session changes.
func (srv *sessionService) onIdentity(identity *entity.UserIdentity) {
	srv.deliverMu.Lock()
	defer srv.deliverMu.Unlock()

	srv.mu.Lock()
	previous := srv.session.UID()
	srv.session = entity.Session{Identity: identity}
	session := srv.session
	watchers := make([]func(entity.Session), 0, len(srv.watchers))
	for _, w := range srv.watchers {
		watchers = append(watchers, w)
	}
	srv.mu.Unlock()

	if previous != session.UID() {
		srv.logger.Info("Auth state changed",
			slog.String("previous_uid", previous),
			slog.String("uid", session.UID()),
		)
	}

	for _, w := range watchers {
		w(session)
	}
}

// Current returns the current session.
func (srv *sessionService) Current() entity.Session {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	return copySession(srv.session)
}

// Register creates the identity, names it and writes the users/{uid} profile.
func (srv *sessionService) Register(ctx context.Context, input *usecase.RegisterInput) (*entity.UserIdentity, error) {
	logger := deliverycontext.GetLoggerOrDefault(ctx, srv.logger)

	if err := srv.validate.Struct(input); err != nil {
		logger.Debug("Rejected registration input", slog.Any("error", err))

		return nil, err
	}

	identity, err := srv.identity.CreateIdentity(ctx, input.Email, input.Password)
	if err != nil {
		logger.Warn("Failed to create identity", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to create identity")
	}

	named, err := srv.identity.UpdateDisplayName(ctx, input.DisplayName)
	if err != nil {
		logger.Warn("Failed to set display name", slog.String("uid", identity.UID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to set display name")
	}

	profile := model.NewProfileFields(input.Email, input.DisplayName)
	if err := srv.store.SetDocument(ctx, entity.UserPath(named.UID), profile); err != nil {
		logger.Error("Failed to write user profile", slog.String("uid", named.UID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to write user profile")
	}

	logger.Info("User registered", slog.String("uid", named.UID))

	return named, nil
}

// Login exchanges credentials for a session.
func (srv *sessionService) Login(ctx context.Context, input *usecase.LoginInput) (*entity.UserIdentity, error) {
	logger := deliverycontext.GetLoggerOrDefault(ctx, srv.logger)

	if err := srv.validate.Struct(input); err != nil {
		logger.Debug("Rejected login input", slog.Any("error", err))

		return nil, err
	}

	identity, err := srv.identity.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		logger.Warn("Sign in failed", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to sign in")
	}

	logger.Info("User signed in", slog.String("uid", identity.UID))

	return identity, nil
}

// Logout ends the current session.
func (srv *sessionService) Logout(ctx context.Context) error {
	logger := deliverycontext.GetLoggerOrDefault(ctx, srv.logger)

	uid := srv.Current().UID()
	if err := srv.identity.Invalidate(ctx); err != nil {
		logger.Warn("Sign out failed", slog.String("uid", uid), slog.Any("error", err))

		return errors.Wrap(err, "failed to sign out")
	}

	logger.Info("User signed out", slog.String("uid", uid))

	return nil
}

// Revalidate asks the identity backend to re-check the current session. An
// invalid session is cleared through the auth-state stream.
func (srv *sessionService) Revalidate(ctx context.Context) error {
	if !srv.Current().Authenticated() {
		return nil
	}

	return errors.Wrap(srv.identity.Revalidate(ctx), "failed to revalidate session")
}

// Watch calls fn with the current session, then after every change.
func (srv *sessionService) Watch(fn func(entity.Session)) func() {
	srv.deliverMu.Lock()
	defer srv.deliverMu.Unlock()

	srv.mu.Lock()
	id := srv.nextID
	srv.nextID++
	srv.watchers[id] = fn
	session := copySession(srv.session)
	srv.mu.Unlock()

	fn(session)

	var once sync.Once

	return func() {
		once.Do(func() {
			srv.mu.Lock()
			delete(srv.watchers, id)
			srv.mu.Unlock()
		})
	}
}

func copySession(s entity.Session) entity.Session {
	if s.Identity != nil {
		identity := *s.Identity
		s.Identity = &identity
	}

	return s
}
