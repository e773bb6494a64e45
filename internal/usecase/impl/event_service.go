package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "eventboard/internal/delivery/context"
	"eventboard/internal/domain/entity"
	domainerrors "eventboard/internal/domain/errors"
	"eventboard/internal/domain/repository"
	"eventboard/internal/domain/service"
	"eventboard/internal/errors"
	"eventboard/internal/infra/metrics"
	"eventboard/internal/infra/persistence/model"
	"eventboard/internal/usecase"

	"go.uber.org/fx"
)

// Mutation outcomes recorded in metrics.
const (
	outcomeOK      = "ok"
	outcomeInvalid = "invalid"
	outcomeFailed  = "failed"
)

// EventServiceParams holds dependencies for the mutation gateway, injected by Fx.
type EventServiceParams struct {
	fx.In

	Session   usecase.SessionUsecase
	Store     repository.DocumentStore
	Publisher service.EventPublisher
	QRCode    service.QRCodeService
	Logger    *slog.Logger
}

// eventService implements the EventUsecase interface.
type eventService struct {
	session   usecase.SessionUsecase
	store     repository.DocumentStore
	publisher service.EventPublisher
	qrcode    service.QRCodeService
	validate  *inputValidator
	logger    *slog.Logger
}

// NewEventService is the constructor for eventService.
func NewEventService(params EventServiceParams) usecase.EventUsecase {
	return &eventService{
		session:   params.Session,
		store:     params.Store,
		publisher: params.Publisher,
		qrcode:    params.QRCode,
		validate:  newInputValidator(),
		logger:    params.Logger,
	}
}

// CreateEvent validates input and writes events/{auto-id} stamped with the owner.
func (srv *eventService) CreateEvent(ctx context.Context, input *usecase.EventInput) (string, error) {
	logger := deliverycontext.GetLoggerOrDefault(ctx, srv.logger)

	owner, err := srv.currentIdentity()
	if err != nil {
		return "", err
	}

	content, err := srv.eventContent(input)
	if err != nil {
		logger.Debug("Rejected event input", slog.Any("error", err))
		metrics.Mutation("create_event", outcomeInvalid)

		return "", err
	}

	id, err := srv.store.CreateDocument(ctx, entity.EventsCollection, model.NewEventFields(content, owner.UID, owner.Email))
	if err != nil {
		logger.Error("Failed to create event", slog.String("uid", owner.UID), slog.Any("error", err))
		metrics.Mutation("create_event", outcomeFailed)

		return "", errors.Wrap(err, "failed to create event")
	}

	logger.Info("Event created", slog.String("event_id", id), slog.String("uid", owner.UID))
	metrics.Mutation("create_event", outcomeOK)
	srv.publish(ctx, entity.ChangeCreated, id, owner.UID)

	return id, nil
}

// UpdateEvent validates input and patches the event. Ownership is checked by
// the store atomically with the write.
func (srv *eventService) UpdateEvent(ctx context.Context, eventID string, input *usecase.EventInput) error {
	logger := deliverycontext.GetLoggerOrDefault(ctx, srv.logger)

	owner, err := srv.currentIdentity()
	if err != nil {
		return err
	}

	content, err := srv.eventContent(input)
	if err != nil {
		logger.Debug("Rejected event input", slog.Any("error", err))
		metrics.Mutation("update_event", outcomeInvalid)

		return err
	}

	err = srv.store.UpdateDocument(ctx, entity.EventPath(eventID), model.EventUpdateFields(content),
		repository.FieldEquals(model.FieldOwnerID, owner.UID))
	if err != nil {
		logger.Warn("Failed to update event",
			slog.String("event_id", eventID),
			slog.String("uid", owner.UID),
			slog.Any("error", err),
		)
		metrics.Mutation("update_event", outcomeFailed)

		return errors.Wrap(err, "failed to update event")
	}

	logger.Info("Event updated", slog.String("event_id", eventID))
	metrics.Mutation("update_event", outcomeOK)
	srv.publish(ctx, entity.ChangeUpdated, eventID, owner.UID)

	return nil
}

// DeleteEvent removes an event owned by the current user.
func (srv *eventService) DeleteEvent(ctx context.Context, eventID string) error {
	logger := deliverycontext.GetLoggerOrDefault(ctx, srv.logger)

	owner, err := srv.currentIdentity()
	if err != nil {
		return err
	}

	err = srv.store.DeleteDocument(ctx, entity.EventPath(eventID), repository.FieldEquals(model.FieldOwnerID, owner.UID))
	if err != nil {
		logger.Warn("Failed to delete event",
			slog.String("event_id", eventID),
			slog.String("uid", owner.UID),
			slog.Any("error", err),
		)
		metrics.Mutation("delete_event", outcomeFailed)

		return errors.Wrap(err, "failed to delete event")
	}

	logger.Info("Event deleted", slog.String("event_id", eventID))
	metrics.Mutation("delete_event", outcomeOK)
	srv.publish(ctx, entity.ChangeDeleted, eventID, owner.UID)

	return nil
}

// GetEvent reads one event.
func (srv *eventService) GetEvent(ctx context.Context, eventID string) (*entity.Event, error) {
	if _, err := srv.currentIdentity(); err != nil {
		return nil, err
	}

	doc, err := srv.store.ReadDocument(ctx, entity.EventPath(eventID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read event")
	}

	event, err := model.ToEventDomain(doc)
	if err != nil {
		return nil, errors.Wrap(
			domainerrors.NewPersistenceError(domainerrors.PersistenceInternal, "decode "+doc.Path, err),
			"failed to read event",
		)
	}

	return &event, nil
}

// ToggleFavorite writes or deletes the favorite mark purely from currentlyFavorited.
// The stored state is not re-read first.
func (srv *eventService) ToggleFavorite(ctx context.Context, event entity.Event, currentlyFavorited bool) (bool, error) {
	logger := deliverycontext.GetLoggerOrDefault(ctx, srv.logger)

	user, err := srv.currentIdentity()
	if err != nil {
		return currentlyFavorited, err
	}

	path := entity.FavoritePath(user.UID, event.ID)
	if currentlyFavorited {
		err = srv.store.DeleteDocument(ctx, path)
	} else {
		err = srv.store.SetDocument(ctx, path, model.FromFavoriteDomain(entity.NewFavoriteMark(event)))
	}
	if err != nil {
		logger.Warn("Failed to update favorites",
			slog.String("event_id", event.ID),
			slog.Bool("was_favorite", currentlyFavorited),
			slog.Any("error", err),
		)
		metrics.Mutation("toggle_favorite", outcomeFailed)

		return currentlyFavorited, errors.Wrap(err, "failed to update favorites")
	}

	metrics.Mutation("toggle_favorite", outcomeOK)
	logger.Debug("Favorite toggled", slog.String("event_id", event.ID), slog.Bool("favorite", !currentlyFavorited))

	return !currentlyFavorited, nil
}

// RemoveFavorite deletes the current user's favorite mark for eventID.
func (srv *eventService) RemoveFavorite(ctx context.Context, eventID string) error {
	logger := deliverycontext.GetLoggerOrDefault(ctx, srv.logger)

	user, err := srv.currentIdentity()
	if err != nil {
		return err
	}

	if err := srv.store.DeleteDocument(ctx, entity.FavoritePath(user.UID, eventID)); err != nil {
		logger.Warn("Failed to remove favorite", slog.String("event_id", eventID), slog.Any("error", err))
		metrics.Mutation("remove_favorite", outcomeFailed)

		return errors.Wrap(err, "failed to remove favorite")
	}

	metrics.Mutation("remove_favorite", outcomeOK)

	return nil
}

// ShareCode renders a QR code for an event that still exists.
func (srv *eventService) ShareCode(ctx context.Context, eventID string) ([]byte, error) {
	event, err := srv.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	png, err := srv.qrcode.GenerateEventQR(event.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render share code")
	}

	return png, nil
}

func (srv *eventService) currentIdentity() (*entity.UserIdentity, error) {
	session := srv.session.Current()
	if !session.Authenticated() {
		return nil, domainerrors.ErrUnauthenticated
	}

	return session.Identity, nil
}

// eventContent trims the form and validates it without touching the backend.
func (srv *eventService) eventContent(input *usecase.EventInput) (model.EventContent, error) {
	if input == nil {
		input = &usecase.EventInput{}
	}

	trimmed := usecase.EventInput{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		Date:        input.Date,
	}
	if trimmed.Date != nil && trimmed.Date.IsZero() {
		trimmed.Date = nil
	}
	if err := srv.validate.Struct(&trimmed); err != nil {
		return model.EventContent{}, err
	}

	return model.EventContent{
		Title:       trimmed.Title,
		Description: trimmed.Description,
		Location:    trimmed.Location,
		Date:        *trimmed.Date,
	}, nil
}

// publish announces an accepted write. Failures do not fail the mutation.
func (srv *eventService) publish(ctx context.Context, changeType entity.ChangeType, eventID, actorID string) {
	change := &entity.EventChange{
		RequestID: deliverycontext.GetRequestIDFromContext(ctx),
		Type:      changeType,
		EventID:   eventID,
		ActorID:   actorID,
	}
	if err := srv.publisher.PublishEventChange(ctx, change); err != nil {
		deliverycontext.GetLoggerOrDefault(ctx, srv.logger).Warn("Failed to publish event change",
			slog.String("event_id", eventID),
			slog.String("type", string(changeType)),
			slog.Any("error", err),
		)
	}
}
