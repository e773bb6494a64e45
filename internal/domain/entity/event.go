package entity

import "time"

// Event is a dated happening owned by the user that created it.
type Event struct {
	ID          string    `json:"id"`          // Backend-assigned document id.
	Title       string    `json:"title"`       // Required, non-empty.
	Description string    `json:"description"` // Free text, may be empty.
	Location    string    `json:"location"`    // Required, non-empty.
	Date        time.Time `json:"date"`        // Required.
	OwnerID     string    `json:"owner_id"`    // UID of the creator, immutable.
	OwnerEmail  string    `json:"owner_email"` // Email of the creator at creation time.
	CreatedAt   time.Time `json:"created_at"`  // Server-assigned creation time.
}

// OwnedBy reports whether uid owns the event.
func (e Event) OwnedBy(uid string) bool {
	return uid != "" && e.OwnerID == uid
}

// FavoriteMark is a per-user denormalized copy of an event taken when it was favorited.
// It is not kept in sync with later edits or deletion of the source event.
type FavoriteMark struct {
	EventID  string    `json:"event_id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	OwnerID  *string   `json:"owner_id"`
	Location string    `json:"location"`
}

// NewFavoriteMark snapshots the fields of e that the favorites list shows.
func NewFavoriteMark(e Event) FavoriteMark {
	mark := FavoriteMark{
		EventID:  e.ID,
		Title:    e.Title,
		Date:     e.Date,
		Location: e.Location,
	}
	if e.OwnerID != "" {
		ownerID := e.OwnerID
		mark.OwnerID = &ownerID
	}

	return mark
}
