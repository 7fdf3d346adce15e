// Package store defines the document-store handle the access layer is built
// against. The production implementation wraps Firestore; tests run against
// the in-memory implementation in memstore. The handle is constructed once at
// startup and injected, never reached through package-level state.
package store

import (
	"context"
	"errors"
)

// Typed query failures the resilient executor discriminates on. Adapters must
// map their backend's errors onto these so fallback tiers stay testable.
var (
	// ErrUnsupportedOrderField reports an ordering field the backend cannot
	// order by (unknown or untyped field).
	ErrUnsupportedOrderField = errors.New("store: unsupported order field")
	// ErrMissingIndex reports a filter+order combination lacking a composite
	// index.
	ErrMissingIndex = errors.New("store: missing composite index")
)

type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Store is the root handle. Safe for concurrent use.
type Store interface {
	Collection(name string) Collection
	Ping(ctx context.Context) error
}

type Collection interface {
	// Doc addresses a document by id.
	Doc(id string) Doc
	// NewDoc allocates a document reference with a fresh server-style id.
	NewDoc() Doc
	Query() Query
}

type Doc interface {
	ID() string
	Get(ctx context.Context) (Snapshot, error)
	// Set replaces the document contents.
	Set(ctx context.Context, data map[string]any) error
	// Merge writes only the given fields, preserving the rest.
	Merge(ctx context.Context, data map[string]any) error
	// Update applies field updates to an existing document. Values may be
	// sentinels (ServerTimestamp, ArrayUnion).
	Update(ctx context.Context, data map[string]any) error
	Delete(ctx context.Context) error
}

// Snapshot is a point-in-time read of a document. A missing document yields a
// snapshot with Exists() == false rather than an error.
type Snapshot interface {
	ID() string
	Exists() bool
	Data() map[string]any
}

// Query builds a filtered, ordered, paginated read. Implementations return a
// new value from each builder call.
type Query interface {
	Where(field, op string, value any) Query
	OrderBy(field string, dir Direction) Query
	Offset(n int) Query
	Limit(n int) Query
	Documents(ctx context.Context) ([]Snapshot, error)
}
