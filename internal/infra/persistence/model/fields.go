// Package model maps domain entities to and from stored document fields.
package model

import (
	"time"

	"eventboard/internal/errors"
)

// Stored field names. They match the documents written by the mobile client.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldLocation    = "location"
	FieldDate        = "date"
	FieldOwnerID     = "ownerId"
	FieldOwnerEmail  = "ownerEmail"
	FieldCreatedAt   = "createdAt"
	FieldEventID     = "eventId"
	FieldEmail       = "email"
	FieldDisplayName = "displayName"
)

// ErrDecode is wrapped by every field decoding failure.
var ErrDecode = errors.New("malformed document")

// stringField reads an optional string field.
func stringField(data map[string]any, key string) (string, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.Wrapf(ErrDecode, "field %q: want string, got %T", key, v)
	}

	return s, nil
}

// optionalStringField reads a string field that may be absent or null.
func optionalStringField(data map[string]any, key string) (*string, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, errors.Wrapf(ErrDecode, "field %q: want string, got %T", key, v)
	}

	return &s, nil
}

// timeField reads an optional timestamp. RFC 3339 strings are accepted for
// documents written by tools that do not produce native timestamps.
func timeField(data map[string]any, key string) (time.Time, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return time.Time{}, nil
	}

	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, nil
		}

		return *t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, errors.Wrapf(ErrDecode, "field %q: %v", key, err)
		}

		return parsed, nil
	default:
		return time.Time{}, errors.Wrapf(ErrDecode, "field %q: want timestamp, got %T", key, v)
	}
}
