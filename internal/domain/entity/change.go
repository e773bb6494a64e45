package entity

// ChangeType names a mutation applied to an event.
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// EventChange is the message published after an event write has been accepted.
type EventChange struct {
	RequestID string     `json:"request_id,omitempty"`
	Type      ChangeType `json:"type"`
	EventID   string     `json:"event_id"`
	ActorID   string     `json:"actor_id"`
}
