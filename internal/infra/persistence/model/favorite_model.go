package model

import (
	"eventboard/internal/domain/entity"
	"eventboard/internal/domain/repository"
)

// FromFavoriteDomain builds the fields of a favorite mark document.
func FromFavoriteDomain(mark entity.FavoriteMark) map[string]any {
	fields := map[string]any{
		FieldEventID:  mark.EventID,
		FieldTitle:    mark.Title,
		FieldDate:     mark.Date,
		FieldLocation: mark.Location,
		FieldOwnerID:  nil,
	}
	if mark.OwnerID != nil {
		fields[FieldOwnerID] = *mark.OwnerID
	}

	return fields
}

// ToFavoriteDomain decodes a favorite mark document. The document id is the event id.
func ToFavoriteDomain(doc *repository.Document) (entity.FavoriteMark, error) {
	if doc == nil {
		return entity.FavoriteMark{}, ErrDecode
	}

	mark := entity.FavoriteMark{EventID: doc.ID}
	var err error
	if mark.Title, err = stringField(doc.Data, FieldTitle); err != nil {
		return entity.FavoriteMark{}, err
	}
	if mark.Date, err = timeField(doc.Data, FieldDate); err != nil {
		return entity.FavoriteMark{}, err
	}
	if mark.Location, err = stringField(doc.Data, FieldLocation); err != nil {
		return entity.FavoriteMark{}, err
	}
	if mark.OwnerID, err = optionalStringField(doc.Data, FieldOwnerID); err != nil {
		return entity.FavoriteMark{}, err
	}

	return mark, nil
}
