// Package docstore is the document-oriented storage port. Records are
// schemaless field maps grouped into named collections and addressed by id.
package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrInvalidCollection = errors.New("invalid collection")
	ErrInvalidPath       = errors.New("invalid field path")
)

// Fields is the body of a document. Nested maps are addressed with dotted
// paths ("races.r1") in Update and Filter.
type Fields = map[string]any

type Document struct {
	ID     string
	Fields Fields
}

type Operator string

const (
	OpEquals Operator = "=="
	OpPrefix Operator = "prefix"
)

type Filter struct {
	Field string
	Op    Operator
	Value any
}

func Equals(field string, value any) Filter {
	return Filter{Field: field, Op: OpEquals, Value: value}
}

func HasPrefix(field, prefix string) Filter {
	return Filter{Field: field, Op: OpPrefix, Value: prefix}
}

// Store is implemented by the in-memory and postgres backends. Writes are
// last-write-wins per document.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, bool, error)
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	// Set creates or fully overwrites a document.
	Set(ctx context.Context, collection, id string, fields Fields) error
	// Update merges patch into an existing document. Keys may be dotted
	// paths; intermediate maps are created as needed. Returns ErrNotFound
	// when the document does not exist.
	Update(ctx context.Context, collection, id string, patch Fields) error
	// Add creates a document under a generated id.
	Add(ctx context.Context, collection string, fields Fields) (string, error)
	Delete(ctx context.Context, collection, id string) error
}
