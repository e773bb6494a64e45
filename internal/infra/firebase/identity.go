package firebase

import (
	"context"
	"log/slog"

	"eventboard/internal/domain/entity"
	domainerrors "eventboard/internal/domain/errors"
	"eventboard/internal/errors"
	"eventboard/internal/infra/authstate"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// Identity signs users in through the Identity Toolkit REST API, the same
// endpoints the client SDKs call, and checks revocation with the Admin SDK.
type Identity struct {
	toolkit *identitytoolkit.Service
	admin   *auth.Client
	state   *authstate.Broadcaster
	logger  *slog.Logger
}

// NewIdentity creates a Firebase identity backend. apiKey is the project's web API key.
func NewIdentity(ctx context.Context, app *firebase.App, apiKey string, logger *slog.Logger) (*Identity, error) {
	if apiKey == "" {
		return nil, errors.New("firebase API key is required")
	}

	toolkit, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Identity Toolkit client")
	}

	admin, err := app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get auth client")
	}

	return &Identity{
		toolkit: toolkit,
		admin:   admin,
		state:   authstate.NewBroadcaster(),
		logger:  logger,
	}, nil
}

// CreateIdentity registers a new account and signs it in.
func (i *Identity) CreateIdentity(ctx context.Context, email, password string) (*entity.UserIdentity, error) {
	resp, err := i.toolkit.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return nil, authError(err)
	}

	identity := i.newIdentity(resp.LocalId, resp.Email, resp.DisplayName, resp.IdToken)
	i.state.Set(identity)

	return identity, nil
}

// Authenticate exchanges credentials for a session.
func (i *Identity) Authenticate(ctx context.Context, email, password string) (*entity.UserIdentity, error) {
	resp, err := i.toolkit.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, authError(err)
	}

	identity := i.newIdentity(resp.LocalId, resp.Email, resp.DisplayName, resp.IdToken)
	i.state.Set(identity)

	return identity, nil
}

// Invalidate signs the current identity out. Firebase ID tokens are stateless,
// so only the local session ends.
func (i *Identity) Invalidate(ctx context.Context) error {
	i.state.Clear()

	return nil
}

// UpdateDisplayName changes the display name of the current identity.
func (i *Identity) UpdateDisplayName(ctx context.Context, displayName string) (*entity.UserIdentity, error) {
	current := i.state.Current()
	if current == nil {
		return nil, domainerrors.ErrUnauthenticated
	}

	resp, err := i.toolkit.Relyingparty.SetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartySetAccountInfoRequest{
		IdToken:           current.IDToken,
		DisplayName:       displayName,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, authError(err)
	}

	token := current.IDToken
	if resp.IdToken != "" {
		token = resp.IdToken
	}
	identity := i.newIdentity(current.UID, current.Email, displayName, token)
	i.state.Set(identity)

	return identity, nil
}

// ObserveIdentity calls callback with the current identity, then on every change.
func (i *Identity) ObserveIdentity(callback func(*entity.UserIdentity)) func() {
	return i.state.Observe(callback)
}

// Revalidate signs out the current identity when its account was deleted or
// disabled, or when its refresh tokens were revoked after the ID token was issued.
func (i *Identity) Revalidate(ctx context.Context) error {
	current := i.state.Current()
	if current == nil {
		return nil
	}

	user, err := i.admin.GetUser(ctx, current.UID)
	if auth.IsUserNotFound(err) {
		i.signOut(current, "account deleted")

		return nil
	}
	if err != nil {
		return domainerrors.NewAuthError("", "", errors.Wrap(err, "failed to look up user"))
	}
	if user.Disabled {
		i.signOut(current, "account disabled")

		return nil
	}

	issuedAt, _, err := tokenTimes(current.IDToken)
	if err != nil {
		i.signOut(current, "unreadable token")

		return nil
	}
	if user.TokensValidAfterMillis > issuedAt.UnixMilli() {
		i.signOut(current, "sessions revoked")
	}

	return nil
}

// signOut leaves a session that replaced current while it was being checked alone.
func (i *Identity) signOut(current *entity.UserIdentity, reason string) {
	if !i.state.ClearIf(current) {
		return
	}
	i.logger.Info("Session no longer valid, signing out",
		slog.String("uid", current.UID),
		slog.String("reason", reason),
	)
}

func (i *Identity) newIdentity(uid, email, displayName, idToken string) *entity.UserIdentity {
	identity := &entity.UserIdentity{
		UID:         uid,
		Email:       email,
		DisplayName: displayName,
		IDToken:     idToken,
	}
	if _, expiresAt, err := tokenTimes(idToken); err == nil {
		identity.ExpiresAt = expiresAt
	} else {
		i.logger.Debug("ID token has no readable expiry", slog.Any("error", err))
	}

	return identity
}
