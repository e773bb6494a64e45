// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"

	"eventboard/internal/domain/entity"
)

// SessionUsecase is the process-wide Session Store. It holds the local view of
// the identity backend's auth state and is the only way to change it.
type SessionUsecase interface {
	// Current returns the current session. Loading is true until the identity
	// backend has reported the auth state once.
	Current() entity.Session

	// Register creates an account, sets its display name and writes its profile.
	Register(ctx context.Context, input *RegisterInput) (*entity.UserIdentity, error)

	// Login exchanges credentials for a session.
	Login(ctx context.Context, input *LoginInput) (*entity.UserIdentity, error)

	// Logout ends the current session.
	Logout(ctx context.Context) error

	// Revalidate asks the identity backend whether the current session is still valid.
	Revalidate(ctx context.Context) error

	// Watch calls fn with the current session, then after every change.
	// Calls are serialized. The returned function stops the notifications.
	Watch(fn func(entity.Session)) (cancel func())
}

// --- Input DTOs ---

// RegisterInput defines the data required to create an account.
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"display_name" validate:"required"`
}

// LoginInput defines the credentials for signing in.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
