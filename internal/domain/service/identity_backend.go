// Package service defines the interfaces of external services used by the use cases.
package service

import (
	"context"

	"eventboard/internal/domain/entity"
)

// IdentityBackend issues and validates user credentials. It keeps the current
// identity of this client process, the same way a client auth SDK does.
// Failures are reported as *domainerrors.AuthError.
type IdentityBackend interface {
	// CreateIdentity registers a new account and signs it in.
	CreateIdentity(ctx context.Context, email, password string) (*entity.UserIdentity, error)

	// Authenticate exchanges credentials for a session.
	Authenticate(ctx context.Context, email, password string) (*entity.UserIdentity, error)

	// Invalidate signs the current identity out.
	Invalidate(ctx context.Context) error

	// UpdateDisplayName changes the display name of the current identity.
	UpdateDisplayName(ctx context.Context, displayName string) (*entity.UserIdentity, error)

	// ObserveIdentity calls callback with the current identity, then on every change.
	// A nil identity means signed out.
	ObserveIdentity(callback func(*entity.UserIdentity)) (unsubscribe func())

	// Revalidate checks the current session with the backend and signs out an
	// identity that has been revoked or disabled elsewhere.
	Revalidate(ctx context.Context) error
}
