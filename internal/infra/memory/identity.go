package memory

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"eventboard/internal/domain/entity"
	domainerrors "eventboard/internal/domain/errors"
	"eventboard/internal/errors"
	"eventboard/internal/infra/authstate"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	tokenIssuer       = "eventboard-memory"
	defaultTokenTTL   = time.Hour
)

type account struct {
	uid          string
	email        string
	displayName  string
	passwordHash []byte
	disabled     bool
	generation   int
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email      string `json:"email"`
	Generation int    `json:"gen"`
}

// IdentityOptions configures an Identity backend.
type IdentityOptions struct {
	BcryptCost  int
	TokenSecret string
	TokenTTL    time.Duration
	Clock       func() time.Time
	Logger      *slog.Logger
}

// Identity is an in-memory service.IdentityBackend with bcrypt password hashes and
// HS256 ID tokens.
type Identity struct {
	mu       sync.Mutex
	byEmail  map[string]*account
	byUID    map[string]*account
	state    *authstate.Broadcaster
	validate *validator.Validate

	cost   int
	secret []byte
	ttl    time.Duration
	clock  func() time.Time
	logger *slog.Logger
}

// NewIdentity creates an Identity backend with no accounts.
func NewIdentity(opts IdentityOptions) *Identity {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.TokenTTL == 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	if opts.TokenSecret == "" {
		opts.TokenSecret = uuid.NewString()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Identity{
		byEmail:  make(map[string]*account),
		byUID:    make(map[string]*account),
		state:    authstate.NewBroadcaster(),
		validate: validator.New(),
		cost:     opts.BcryptCost,
		secret:   []byte(opts.TokenSecret),
		ttl:      opts.TokenTTL,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
}

// CreateIdentity registers a new account and signs it in.
func (i *Identity) CreateIdentity(ctx context.Context, email, password string) (*entity.UserIdentity, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.NewAuthError("", "", err)
	}
	if err := i.validate.Var(email, "required,email"); err != nil {
		return nil, domainerrors.NewAuthError(domainerrors.AuthCodeInvalidEmail, "", nil)
	}
	if len(password) < minPasswordLength {
		return nil, domainerrors.NewAuthError(domainerrors.AuthCodeWeakPassword, "", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), i.cost)
	if err != nil {
		return nil, domainerrors.NewAuthError("", "", errors.Wrap(err, "failed to hash password"))
	}

	i.mu.Lock()
	key := normalizeEmail(email)
	if _, exists := i.byEmail[key]; exists {
		i.mu.Unlock()

		return nil, domainerrors.NewAuthError(domainerrors.AuthCodeEmailExists, "", nil)
	}
	acc := &account{
		uid:          strings.ReplaceAll(uuid.NewString(), "-", ""),
		email:        email,
		passwordHash: hash,
	}
	i.byEmail[key] = acc
	i.byUID[acc.uid] = acc
	identity, err := i.signInLocked(acc)
	i.mu.Unlock()
	if err != nil {
		return nil, err
	}

	i.logger.Debug("Created identity", slog.String("uid", identity.UID))
	i.state.Set(identity)

	return identity, nil
}

// Authenticate exchanges credentials for a session.
func (i *Identity) Authenticate(ctx context.Context, email, password string) (*entity.UserIdentity, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.NewAuthError("", "", err)
	}

	i.mu.Lock()
	acc, exists := i.byEmail[normalizeEmail(email)]
	if !exists {
		i.mu.Unlock()

		return nil, domainerrors.NewAuthError(domainerrors.AuthCodeEmailNotFound, "", nil)
	}
	if acc.disabled {
		i.mu.Unlock()

		return nil, domainerrors.NewAuthError(domainerrors.AuthCodeUserDisabled, "", nil)
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		i.mu.Unlock()

		return nil, domainerrors.NewAuthError(domainerrors.AuthCodeInvalidPassword, "", nil)
	}
	identity, err := i.signInLocked(acc)
	i.mu.Unlock()
	if err != nil {
		return nil, err
	}

	i.state.Set(identity)

	return identity, nil
}

// Invalidate signs the current identity out.
func (i *Identity) Invalidate(ctx context.Context) error {
	i.state.Clear()

	return nil
}

// UpdateDisplayName changes the display name of the signed-in account.
func (i *Identity) UpdateDisplayName(ctx context.Context, displayName string) (*entity.UserIdentity, error) {
	current := i.state.Current()
	if current == nil {
		return nil, domainerrors.ErrUnauthenticated
	}

	i.mu.Lock()
	acc, exists := i.byUID[current.UID]
	if !exists {
		i.mu.Unlock()

		return nil, domainerrors.NewAuthError(domainerrors.AuthCodeEmailNotFound, "", nil)
	}
	acc.displayName = displayName
	i.mu.Unlock()

	current.DisplayName = displayName
	i.state.Set(current)

	return current, nil
}

// ObserveIdentity calls callback with the current identity, then on every change.
func (i *Identity) ObserveIdentity(callback func(*entity.UserIdentity)) func() {
	return i.state.Observe(callback)
}

// Revalidate signs out a current identity whose account was disabled, deleted or
// had its sessions revoked. Expired tokens are reissued.
func (i *Identity) Revalidate(ctx context.Context) error {
	current := i.state.Current()
	if current == nil {
		return nil
	}

	claims := &tokenClaims{}
	_, parseErr := jwt.ParseWithClaims(current.IDToken, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(i.clock), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	i.mu.Lock()
	acc, exists := i.byUID[current.UID]
	switch {
	case !exists, acc.disabled, claims.Generation != acc.generation:
		i.mu.Unlock()
		if i.state.ClearIf(current) {
			i.logger.Info("Session no longer valid, signing out", slog.String("uid", current.UID))
		}

		return nil
	case errors.Is(parseErr, jwt.ErrTokenExpired):
		refreshed, err := i.signInLocked(acc)
		i.mu.Unlock()
		if err != nil {
			return err
		}
		i.state.ReplaceIf(current, refreshed)

		return nil
	case parseErr != nil:
		i.mu.Unlock()
		if i.state.ClearIf(current) {
			i.logger.Warn("Rejecting malformed session token", slog.String("uid", current.UID), slog.Any("error", parseErr))
		}

		return nil
	}
	i.mu.Unlock()

	return nil
}

// Disable blocks sign-in for email. The current session ends at the next Revalidate.
func (i *Identity) Disable(email string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if acc, ok := i.byEmail[normalizeEmail(email)]; ok {
		acc.disabled = true
	}
}

// RevokeSessions invalidates every token issued to uid so far.
func (i *Identity) RevokeSessions(uid string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if acc, ok := i.byUID[uid]; ok {
		acc.generation++
	}
}

func (i *Identity) signInLocked(acc *account) (*entity.UserIdentity, error) {
	now := i.clock()
	expiresAt := now.Add(i.ttl)
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   acc.uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:      acc.email,
		Generation: acc.generation,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, domainerrors.NewAuthError("", "", errors.Wrap(err, "failed to sign token"))
	}

	return &entity.UserIdentity{
		UID:         acc.uid,
		Email:       acc.email,
		DisplayName: acc.displayName,
		IDToken:     token,
		ExpiresAt:   expiresAt,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
