package duotier

import "time"

/*
EntryRecord is the unit of cached data stored in either tier.

DESIGN PURPOSE

Every key maps to an EntryRecord instead of a bare value, the same
indirection the teacher uses for Item: it lets the cache carry metadata
(frequency, timestamps, an optional refresh hook) alongside the value
without widening the map's value type into an anonymous struct at every
call site.

FIELDS

value      -> the stored data, generic over V.
frequency  -> monotonically increasing hit counter; never decreases
              except on eviction/promotion, which preserve it verbatim.
createdAt  -> set once, at construction.
modifiedAt -> reset on every Update; createdAt <= modifiedAt always.
onExpire   -> optional refresh hook invoked when the active-tier TTL
              elapses; its lifetime is tied to the record and it is
              carried across Update unless the caller supplies a new one.
*/
type EntryRecord[V any] struct {
	value      V
	frequency  uint64
	createdAt  time.Time
	modifiedAt time.Time
	onExpire   func() V
}

// newEntryRecord constructs a fresh record with frequency 1, matching the
// invariant that frequency >= 1 for the whole time a record exists in
// either tier.
func newEntryRecord[V any](value V, onExpire func() V) *EntryRecord[V] {
	now := time.Now()
	return &EntryRecord[V]{
		value:      value,
		frequency:  1,
		createdAt:  now,
		modifiedAt: now,
		onExpire:   onExpire,
	}
}

// touch increments frequency on a successful lookup. For a record held
// by the active tier, the caller holds that tier's lock.
func (e *EntryRecord[V]) touch() {
	e.frequency++
}

// setValue replaces the stored value and resets modifiedAt, preserving
// frequency and onExpire (the refresh hook survives an Update unless the
// caller supplies a replacement explicitly).
func (e *EntryRecord[V]) setValue(v V, onExpire func() V, keepExpire bool) {
	e.value = v
	e.modifiedAt = time.Now()
	if !keepExpire {
		e.onExpire = onExpire
	}
}

// ageExceeds is the teacher's Item.Expired() check with an explicit ttl:
// it reports whether createdAt is at least ttl in the past, and never
// reports true for ttl <= 0. It does not mutate the record. Neither tier
// calls it: the dormant stores apply the same test inline on Read, and
// the active tier relies on its timers alone.
func (e *EntryRecord[V]) ageExceeds(ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return time.Since(e.createdAt) >= ttl
}

// clone copies the record's metadata into a new *EntryRecord, used when
// moving a record between tiers so the original and the moved copy never
// alias the same pointer (the cross-tier invariant in spec.md §3 requires
// resolving transient overlap before any operation returns, which is
// easiest to reason about when promotion/demotion never share storage).
func (e *EntryRecord[V]) clone() *EntryRecord[V] {
	cp := *e
	return &cp
}
