// Package docstore abstracts the document database behind a small driver
// interface: named collections of schemaless documents, atomic multi-write
// batches, and transactions with automatic conflict retry. The production
// implementation is MongoDB; an in-memory implementation backs tests.
package docstore

import "context"

// Doc is a raw storage document: its identity plus the stored field map.
// Timestamp fields inside Data carry the store's native timestamp type,
// not epoch milliseconds.
type Doc struct {
	ID   string
	Data map[string]any
}

// Where is a single query predicate. Multiple predicates combine with AND.
//
// Supported operators: ==, !=, <, <=, >, >=, in, array-contains.
type Where struct {
	Field string
	Op    string
	Value any
}

// Order is a single sort clause.
type Order struct {
	Field string
	Desc  bool
}

// Query describes a collection query. StartAfter and Limit are only honored
// when OrderBy is present; that gating lives in the model layer, the driver
// applies whatever it is given.
type Query struct {
	Where      []Where
	OrderBy    []Order
	StartAfter []any
	Limit      int
}

// Collection is a handle to one named collection.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// NewID generates a fresh document id.
	NewID() string

	// Get fetches a document by id. Returns (nil, nil) when absent.
	Get(ctx context.Context, id string) (*Doc, error)

	// Set writes the full document unconditionally, overwriting any
	// existing document with the same id.
	Set(ctx context.Context, id string, data map[string]any) error

	// MergeSet upserts the given fields into the document, creating it if
	// it does not exist and leaving unmentioned fields untouched.
	MergeSet(ctx context.Context, id string, data map[string]any) error

	// Delete removes the document. Deleting a missing document is not an
	// error.
	Delete(ctx context.Context, id string) error

	// Query runs a query against the collection.
	Query(ctx context.Context, q Query) ([]*Doc, error)
}

// Batch stages writes across collections and commits them as one atomic
// unit. Partial commit is impossible.
type Batch interface {
	Set(collection, id string, data map[string]any)
	MergeSet(collection, id string, data map[string]any)
	Commit(ctx context.Context) error
}

// Tx is the handle passed to a transaction body. Reads observe the
// transaction snapshot; staged writes apply atomically on commit.
type Tx interface {
	Get(ctx context.Context, collection, id string) (*Doc, error)
	MergeSet(collection, id string, data map[string]any)
}

// Store is the top-level driver handle.
type Store interface {
	Collection(name string) Collection
	NewBatch() Batch

	// RunTransaction executes fn inside a transaction. On a detected write
	// conflict the whole body re-executes, so fn must be safe to run more
	// than once.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
