package model

import (
	"time"

	"eventboard/internal/domain/entity"
	"eventboard/internal/domain/repository"
)

// EventContent is the editable part of an event.
type EventContent struct {
	Title       string
	Description string
	Location    string
	Date        time.Time
}

// NewEventFields builds the fields of a new event document. createdAt is set by the store.
func NewEventFields(content EventContent, ownerID, ownerEmail string) map[string]any {
	fields := EventUpdateFields(content)
	fields[FieldOwnerID] = ownerID
	fields[FieldOwnerEmail] = ownerEmail
	fields[FieldCreatedAt] = repository.ServerTimestamp

	return fields
}

// EventUpdateFields builds the patch for an event edit. Ownership fields are never patched.
func EventUpdateFields(content EventContent) map[string]any {
	return map[string]any{
		FieldTitle:       content.Title,
		FieldDescription: content.Description,
		FieldLocation:    content.Location,
		FieldDate:        content.Date,
	}
}

// ToEventDomain decodes an event document.
func ToEventDomain(doc *repository.Document) (entity.Event, error) {
	if doc == nil {
		return entity.Event{}, ErrDecode
	}

	event := entity.Event{ID: doc.ID}
	var err error
	if event.Title, err = stringField(doc.Data, FieldTitle); err != nil {
		return entity.Event{}, err
	}
	if event.Description, err = stringField(doc.Data, FieldDescription); err != nil {
		return entity.Event{}, err
	}
	if event.Location, err = stringField(doc.Data, FieldLocation); err != nil {
		return entity.Event{}, err
	}
	if event.Date, err = timeField(doc.Data, FieldDate); err != nil {
		return entity.Event{}, err
	}
	if event.OwnerID, err = stringField(doc.Data, FieldOwnerID); err != nil {
		return entity.Event{}, err
	}
	if event.OwnerEmail, err = stringField(doc.Data, FieldOwnerEmail); err != nil {
		return entity.Event{}, err
	}
	if event.CreatedAt, err = timeField(doc.Data, FieldCreatedAt); err != nil {
		return entity.Event{}, err
	}

	return event, nil
}
