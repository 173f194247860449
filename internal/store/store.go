package store

import (
	"context"
	"time"
)

// Document is the loosely-typed record shape the backing document
// store works with. Values are restricted to what the backends
// produce after normalization: string, bool, int, int64, float64,
// time.Time, []any and nested Document.
type Document = map[string]any

// Snapshot is one document delivered by a query or subscription.
type Snapshot struct {
	ID   string
	Data Document
}

// MaxInValues is the largest membership ("field in values") filter the
// backing stores support per query. Callers with more values must
// partition them into multiple queries.
const MaxInValues = 10

// ServerTimestamp is a sentinel value; the store replaces it with the
// server-side write time when a document is created or updated.
var ServerTimestamp = &struct{ serverTimestamp bool }{true}

// Query describes the filtering the core needs: equality filters, one
// bounded membership filter, ordering on a single field and a limit.
// Collection is a path, possibly nested ("users/{id}/following").
type Query struct {
	Collection  string
	Eq          map[string]any
	InField     string
	InValues    []string
	PrefixField string // string prefix match (range query underneath)
	Prefix      string
	OrderBy     string
	Descending  bool
	Limit       int
}

// CancelFunc detaches a live subscription. Safe to call more than
// once.
type CancelFunc func()

// Handler receives the full current result set of a subscribed query
// every time it changes. Deliveries within one subscription are
// ordered; there is no ordering guarantee across subscriptions.
type Handler func(snapshots []Snapshot)

// Store is the document database the core delegates persistence to.
type Store interface {
	Get(ctx context.Context, collection, id string) (Snapshot, error)

	Query(ctx context.Context, q Query) ([]Snapshot, error)

	// Insert creates a document with a store-assigned id and returns
	// that id. ServerTimestamp sentinels are resolved at write time.
	Insert(ctx context.Context, collection string, doc Document) (string, error)

	// Set writes a document at a known id. With merge, existing fields
	// not present in doc are kept.
	Set(ctx context.Context, collection, id string, doc Document, merge bool) error

	Delete(ctx context.Context, collection, id string) error

	// Subscribe attaches a live listener to a query. The handler is
	// invoked with the full result set on attach and after every
	// relevant change, until the returned CancelFunc is called or ctx
	// is done.
	Subscribe(ctx context.Context, q Query, h Handler) (CancelFunc, error)
}

// StoreError distinguishes store-level failures.
type StoreError string

func (e StoreError) Error() string { return string(e) }

var (
	ErrNotFound        = StoreError("document not found")
	ErrTooManyInValues = StoreError("membership filter exceeds value limit")
)

// Now returns the current UTC time; stores use it to resolve the
// ServerTimestamp sentinel when the backend has no server clock of its
// own (the in-memory store).
func Now() time.Time { return time.Now().UTC() }
