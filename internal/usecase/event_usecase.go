package usecase

import (
	"context"
	"time"

	"eventboard/internal/domain/entity"
)

// EventUsecase is the Mutation Gateway. Every operation writes to the document
// store and leaves local state alone; open subscriptions reflect the change.
type EventUsecase interface {
	// CreateEvent validates input and stores a new event owned by the current user.
	CreateEvent(ctx context.Context, input *EventInput) (string, error)

	// UpdateEvent validates input and replaces the editable fields of an event.
	// The store rejects the write unless the current user owns the event.
	UpdateEvent(ctx context.Context, eventID string, input *EventInput) error

	// DeleteEvent removes an event owned by the current user. Favorite marks
	// other users hold for it are left in place.
	DeleteEvent(ctx context.Context, eventID string) error

	// GetEvent reads one event, for the edit form.
	GetEvent(ctx context.Context, eventID string) (*entity.Event, error)

	// ToggleFavorite writes a favorite mark for event, or deletes it when
	// currentlyFavorited is set. It returns the new favorite state.
	ToggleFavorite(ctx context.Context, event entity.Event, currentlyFavorited bool) (bool, error)

	// RemoveFavorite deletes the current user's favorite mark for eventID.
	RemoveFavorite(ctx context.Context, eventID string) error

	// ShareCode renders a PNG QR code linking to an existing event.
	ShareCode(ctx context.Context, eventID string) ([]byte, error)
}

// --- Input DTOs ---

// EventInput is the create/edit event form. Text fields are trimmed before validation.
type EventInput struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Location    string     `json:"location" validate:"required"`
	Date        *time.Time `json:"date" validate:"required"`
}
