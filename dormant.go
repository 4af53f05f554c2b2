package duotier

import "context"

/*
DormantStore is the pluggable cold-tier capability set (spec.md §4.5).
It is the one seam the spec explicitly designates an external
collaborator (§1: "configuration loading and plugin discovery for
alternative dormant-tier implementations" is out of scope) — callers
wire an implementation in via Option, there is no name-based registry
lookup, matching spec.md §9's guidance that runtime reflection is not
required.

Read/Write/Clear return error because, unlike the rest of the public API,
a DormantStore crosses a real I/O boundary; the CacheController is the
layer that catches these errors, logs them, and downgrades them to
"not found"/no-op for its own callers per the policy table in spec.md §7.

Keys are string, matching every cache in the retrieval pack (including
the teacher) and EntryRecord's own key-agnostic design — see
dormantfile.go for the full grounding note.
*/
type DormantStore[V any] interface {
	// Read returns the current valid contents, filtering out any record
	// whose age exceeds the store's configured logical TTL.
	Read(ctx context.Context) (map[string]*EntryRecord[V], error)

	// Write persists the full mapping, replacing prior state atomically
	// to the extent the backing medium allows.
	Write(ctx context.Context, records map[string]*EntryRecord[V]) error

	// Clear drops all stored records.
	Clear(ctx context.Context) error

	// Exists reports whether the backing store has been created.
	Exists() bool

	// IsEmpty reports whether the store currently holds zero records.
	IsEmpty(ctx context.Context) bool

	// IsAccessible reports whether the store can currently be read from
	// or written to. Cache itself does not call it.
	IsAccessible() bool

	// EnsureExists idempotently prepares the backing store (e.g.
	// creates the directory/file).
	EnsureExists() error

	// Count returns the last-known cardinality; may lag behind the true
	// contents (feeds CacheController.PreviousCount).
	Count() int
}
