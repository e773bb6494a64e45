package pubsub

import (
	"context"
	"log/slog"

	"eventboard/internal/domain/entity"
	"eventboard/internal/domain/service"
)

// noopPublisher drops every change when Pub/Sub is not configured
type noopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher creates a publisher that only logs at debug level
func NewNoopPublisher(logger *slog.Logger) service.EventPublisher {
	return &noopPublisher{logger: logger}
}

func (p *noopPublisher) PublishEventChange(_ context.Context, change *entity.EventChange) error {
	p.logger.Debug("Change publishing disabled, skipping",
		slog.String("event_id", change.EventID),
		slog.String("type", string(change.Type)),
	)

	return nil
}

func (p *noopPublisher) Close() error {
	return nil
}
