// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"time"
)

// Direction is a query sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// Query selects the documents of one collection.
type Query struct {
	Collection string    // Hierarchical collection path, e.g. "users/u1/favorites".
	OrderBy    string    // Field to sort by; empty means backend order.
	Direction  Direction // Sort direction for OrderBy.
}

// Document is one stored document.
type Document struct {
	ID   string
	Path string
	Data map[string]any
}

// QuerySnapshot is the full materialized result of a query at one point in time.
type QuerySnapshot struct {
	Documents []*Document
	// Version increases strictly with every snapshot of the same listener.
	Version  int64
	ReadTime time.Time
}

// serverTimestamp is the type of ServerTimestamp.
type serverTimestamp struct{}

// ServerTimestamp is a field value that the store replaces with its own commit time.
//
//nolint:gochecknoglobals
var ServerTimestamp any = serverTimestamp{}

// Precondition is checked by the store atomically with the write it guards.
type Precondition struct {
	Field string
	Value any
}

// FieldEquals builds a precondition requiring the stored field to equal value.
func FieldEquals(field string, value any) Precondition {
	return Precondition{Field: field, Value: value}
}

// Listener is the backend half of a live query.
type Listener interface {
	// Stop releases the backend listener. It is safe to call more than once.
	Stop()
}

// DocumentStore is a hierarchical document database with streaming queries.
// Failures are reported as *domainerrors.PersistenceError.
type DocumentStore interface {
	// CreateDocument stores data under a new backend-assigned id in collection.
	CreateDocument(ctx context.Context, collection string, data map[string]any) (string, error)

	// SetDocument creates or overwrites the document at path.
	SetDocument(ctx context.Context, path string, data map[string]any) error

	// UpdateDocument merges patch into the existing document at path.
	UpdateDocument(ctx context.Context, path string, patch map[string]any, preconditions ...Precondition) error

	// DeleteDocument removes the document at path. Deleting a missing document
	// succeeds unless a precondition is given.
	DeleteDocument(ctx context.Context, path string, preconditions ...Precondition) error

	// ReadDocument fetches the document at path, or fails with NOT_FOUND.
	ReadDocument(ctx context.Context, path string) (*Document, error)

	// Subscribe streams query results. onSnapshot is always called once with the
	// initial result, then after every change, from a single goroutine. After a
	// terminal error onError is called and no further snapshots follow.
	Subscribe(ctx context.Context, query Query, onSnapshot func(*QuerySnapshot), onError func(error)) (Listener, error)
}
