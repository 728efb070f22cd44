// Package store defines the document-store abstraction the services run on:
// schemaless JSON documents grouped into named collections. Implementations
// live under internal/infra.
package store

import (
	"context"
	"errors"
)

// ErrUnavailable wraps backend failures so the transport layer can map them
// to a service-unavailable response. Implementations wrap driver errors with
// it; it is never used for data-level outcomes like "no match".
var ErrUnavailable = errors.New("document store unavailable")

// Doc is one stored document. Values follow JSON conventions (string, bool,
// float64, []any, map[string]any). Store-internal row identifiers are never
// part of a Doc.
type Doc = map[string]any

// Cond is a non-equality comparison inside a Filter.
type Cond struct {
	Op    string // "lt", "gt", "gte"
	Value any
}

// Lt matches documents whose field is strictly less than v.
func Lt(v any) Cond { return Cond{Op: "lt", Value: v} }

// Gt matches documents whose field is strictly greater than v.
func Gt(v any) Cond { return Cond{Op: "gt", Value: v} }

// Gte matches documents whose field is greater than or equal to v.
func Gte(v any) Cond { return Cond{Op: "gte", Value: v} }

// Filter selects documents. Plain values mean equality; Cond values express
// comparisons. A nil or empty filter matches every document. Comparable
// values are strings, bools, numbers, and time.Time.
type Filter map[string]any

// Patch mutates matched documents. Set overwrites fields; Inc adds to
// numeric fields (missing fields count as zero). UpdateOne evaluates its
// filter and applies the patch as one atomic step, which is what makes
// conditional increments race-free.
type Patch struct {
	Set Doc
	Inc map[string]int
}

// DocumentStore is the sole storage primitive of the service.
type DocumentStore interface {
	Insert(ctx context.Context, collection string, doc Doc) error
	InsertMany(ctx context.Context, collection string, docs []Doc) error
	// InsertUnique inserts doc only if no document matches unique, as a
	// single atomic operation. It reports whether the insert happened.
	InsertUnique(ctx context.Context, collection string, unique Filter, doc Doc) (bool, error)
	Find(ctx context.Context, collection string, filter Filter) ([]Doc, error)
	// UpdateOne patches at most one matching document and returns the
	// matched count (0 or 1).
	UpdateOne(ctx context.Context, collection string, filter Filter, patch Patch) (int, error)
	DeleteOne(ctx context.Context, collection string, filter Filter) (int, error)
	DeleteMany(ctx context.Context, collection string, filter Filter) (int, error)
	Count(ctx context.Context, collection string, filter Filter) (int, error)
	// ReplaceAll atomically swaps a collection's entire contents. Readers
	// observe either the old or the new contents, never a partial state.
	ReplaceAll(ctx context.Context, collection string, docs []Doc) error
	ListCollections(ctx context.Context) ([]string, error)
}
