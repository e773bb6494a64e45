package service

import (
	"context"

	"eventboard/internal/domain/entity"
)

// EventPublisher defines the interface for publishing event changes to a message queue
type EventPublisher interface {
	// PublishEventChange publishes a change after the store accepted the write
	PublishEventChange(ctx context.Context, change *entity.EventChange) error

	// Close releases any resources held by the publisher
	Close() error
}
