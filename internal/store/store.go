// Package store abstracts the external document database behind the two
// primitives the projectors rely on: commutative field increments and
// transactional read-modify-write over a small set of documents.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Update when the target document is absent.
var ErrNotFound = errors.New("store: document not found")

// Increment is a sentinel value: the field is atomically incremented by
// the given delta instead of overwritten. Increments are commutative, so
// concurrent writers never lose updates.
type Increment float64

// serverTimestamp is the sentinel type behind ServerTimestamp.
type serverTimestamp struct{}

// ServerTimestamp is a sentinel value: the field is set to the store's
// own time at write application.
var ServerTimestamp = serverTimestamp{}

// Store is a document database with collection/document paths like
// "tokens/0xabc" and "tokens/0xabc/trades".
type Store interface {
	// Get reads a document. A missing document is not an error: the
	// returned Document reports Exists() == false.
	Get(ctx context.Context, path string) (*Document, error)

	// Set overwrites the document with exactly the given fields,
	// creating it if absent.
	Set(ctx context.Context, path string, data map[string]any) error

	// Merge upserts the given fields into the document, leaving other
	// fields untouched. Values may be Increment or ServerTimestamp
	// sentinels.
	Merge(ctx context.Context, path string, data map[string]any) error

	// Update modifies fields of an existing document. Returns
	// ErrNotFound when the document is absent.
	Update(ctx context.Context, path string, data map[string]any) error

	// Add appends a new document with a generated id to a collection
	// and returns the id.
	Add(ctx context.Context, collection string, data map[string]any) (string, error)

	// RunTransaction executes fn as an optimistic read-modify-write.
	// On a conflicting concurrent writer the store retries fn from
	// scratch; fn must therefore be free of external side effects.
	// All reads must happen before the first staged write.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the underlying connection.
	Close() error
}

// Tx stages reads and writes inside RunTransaction. Staged writes are
// applied atomically when fn returns nil.
type Tx interface {
	Get(path string) (*Document, error)
	Set(path string, data map[string]any)
	Update(path string, data map[string]any)
}

// Document is a point-in-time snapshot of a document.
type Document struct {
	path   string
	data   map[string]any
	exists bool
}

// NewDocument builds a snapshot; used by Store implementations.
func NewDocument(path string, data map[string]any, exists bool) *Document {
	return &Document{path: path, data: data, exists: exists}
}

// Path returns the document path.
func (d *Document) Path() string { return d.path }

// Exists reports whether the document was present at read time.
func (d *Document) Exists() bool { return d.exists }

// Data returns the raw field map. Nil for a missing document.
func (d *Document) Data() map[string]any {
	return d.data
}

// String returns the named field as a string, or "" when missing or not
// a string.
func (d *Document) String(field string) string {
	if s, ok := d.data[field].(string); ok {
		return s
	}
	return ""
}

// Int64 returns the named field as an int64, accepting the integer types
// a document store round-trips numbers through.
func (d *Document) Int64(field string) int64 {
	switch v := d.data[field].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// Float64 returns the named field as a float64.
func (d *Document) Float64(field string) float64 {
	switch v := d.data[field].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}
