package model

import (
	"eventboard/internal/domain/entity"
	"eventboard/internal/domain/repository"
)

// NewProfileFields builds the users/{uid} document written at registration.
func NewProfileFields(email, displayName string) map[string]any {
	return map[string]any{
		FieldEmail:       email,
		FieldDisplayName: displayName,
		FieldCreatedAt:   repository.ServerTimestamp,
	}
}

// ToProfileDomain decodes a user profile document.
func ToProfileDomain(doc *repository.Document) (*entity.UserProfile, error) {
	if doc == nil {
		return nil, ErrDecode
	}

	profile := &entity.UserProfile{}
	var err error
	if profile.Email, err = stringField(doc.Data, FieldEmail); err != nil {
		return nil, err
	}
	if profile.DisplayName, err = stringField(doc.Data, FieldDisplayName); err != nil {
		return nil, err
	}
	if profile.CreatedAt, err = timeField(doc.Data, FieldCreatedAt); err != nil {
		return nil, err
	}

	return profile, nil
}
