package port

import (
	"context"
	"errors"
)

// Storage-level errors returned by every DocumentStore implementation.
var (
	ErrNotFound  = errors.New("storage: document not found")
	ErrDuplicate = errors.New("storage: duplicate document")
	ErrConflict  = errors.New("storage: version conflict")
)

// Document is a schemaless record as held by the backend. Values are the
// JSON data model: nil, bool, float64 (or other numbers), string,
// []any and map[string]any. Every document carries its key in "id".
type Document map[string]any

// Snapshot is one document returned by a query.
type Snapshot struct {
	ID   string
	Data Document
}

// Filter is a single equality clause.
type Filter struct {
	Field string
	Value any
}

// Order sorts a query by one field. The document id always breaks ties.
type Order struct {
	Field string
	Desc  bool
}

// Query is the only query shape the data layer issues: at most one
// equality clause, one ordering, one limit and an optional cursor.
type Query struct {
	Where      *Filter
	OrderBy    *Order
	Limit      int
	StartAfter *Snapshot
}

// MutationKind is the kind of a batched write.
type MutationKind int

const (
	MutationCreate MutationKind = iota + 1
	MutationUpdate
	MutationDelete
)

func (k MutationKind) String() string {
	switch k {
	case MutationCreate:
		return "create"
	case MutationUpdate:
		return "update"
	case MutationDelete:
		return "delete"
	}
	return "unknown"
}

// Mutation is one write of a batch. ExpectVersion > 0 conditions an update
// on the stored version.
type Mutation struct {
	Kind          MutationKind
	Collection    string
	ID            string
	Data          Document
	ExpectVersion int
}

// DocumentStore is the remote document database behind the data layer.
type DocumentStore interface {
	// Insert stores a new document. ErrDuplicate when the id is taken.
	Insert(ctx context.Context, collection, id string, doc Document) error
	// Get returns (nil, nil) when the document does not exist.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Merge overwrites the given top-level fields and increments "version".
	// ErrNotFound when absent, ErrConflict when expectVersion > 0 and differs.
	Merge(ctx context.Context, collection, id string, fields Document, expectVersion int) error
	// Delete removes a document. Deleting an absent id is not an error.
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, q Query) ([]Snapshot, error)
	Count(ctx context.Context, collection string, where *Filter) (int, error)
	// Watch calls fn with the full result set of q right away and again after
	// every change to the collection, until stop is called or ctx ends.
	Watch(ctx context.Context, collection string, q Query, fn func([]Snapshot)) (stop func(), err error)
	// Commit applies all mutations atomically: either all or none.
	Commit(ctx context.Context, muts []Mutation) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
