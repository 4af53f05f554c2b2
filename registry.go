package duotier

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

/*
Registry is the optional process-wide convenience layer spec.md §9
describes: "a process-wide registry is optional and, if provided, should
be keyed by the (K,V) pair." Go cannot key a runtime map by a type pair,
so this keys by a caller-supplied string name instead — callers who want
one cache per (purpose, value-type) combination pick a name that encodes
both, e.g. "sessions" vs. "sessions-v2".

Registry is not required: Init always returns an independently-owned
*Cache, and nothing else in this package consults a Registry. It exists
purely as a lookup-by-name convenience on top of Init, mirroring the
teacher's own preference for explicit construction over hidden global
state (the teacher has no registry at all — every example is
`cache := New(...)`).
*/
type Registry[V any] struct {
	mu     sync.Mutex
	caches map[string]*Cache[V]
}

// NewRegistry constructs an empty Registry.
func NewRegistry[V any]() *Registry[V] {
	return &Registry[V]{caches: make(map[string]*Cache[V])}
}

// GetOrInit returns the named cache, constructing it via Init on first
// use. Subsequent calls with the same name ignore capacity/ttl/opts and
// return the existing instance — matching sync.Map's LoadOrStore shape,
// generalized to a fallible constructor.
func (r *Registry[V]) GetOrInit(name string, capacity int, activeTTL, cleanerPeriod time.Duration, opts ...Option[V]) (*Cache[V], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.caches[name]; ok {
		return c, nil
	}

	c, err := Init[V](capacity, activeTTL, cleanerPeriod, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "duotier: registry init %q", name)
	}
	r.caches[name] = c
	return c, nil
}

// Lookup returns the named cache without constructing one.
func (r *Registry[V]) Lookup(name string) (*Cache[V], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.caches[name]
	return c, ok
}

// Remove disposes and forgets the named cache. Safe to call on an
// absent name.
func (r *Registry[V]) Remove(name string) {
	r.mu.Lock()
	c, ok := r.caches[name]
	delete(r.caches, name)
	r.mu.Unlock()

	if ok {
		c.Dispose()
	}
}

// DisposeAll disposes every registered cache and clears the registry.
func (r *Registry[V]) DisposeAll() {
	r.mu.Lock()
	caches := r.caches
	r.caches = make(map[string]*Cache[V])
	r.mu.Unlock()

	for _, c := range caches {
		c.Dispose()
	}
}
