package duotier

import "sync/atomic"

/*
Stats mirrors the teacher's Stats struct (Hits/Misses/Evictions),
generalized for two tiers: a promotion and a write-through are both
"moves across the tier boundary" the teacher's single-tier LRU never
had, so they get their own counters rather than overloading Evictions.

CONCURRENCY MODEL

Unlike the teacher (plain uint64 fields mutated under the cache's single
RWMutex), this module's counters are touched from the controller's
caller-goroutine paths and its expiry-handler goroutines concurrently,
with no single lock covering both — so each
field is a sync/atomic counter instead. Stats() still returns a
plain-value snapshot, matching the teacher's "return a consistent
snapshot" contract.
*/
type Stats struct {
	Hits          uint64
	Misses        uint64
	Evictions     uint64
	Promotions    uint64
	WriteThroughs uint64
	Expirations   uint64
	Refreshes     uint64
}

type statsCounters struct {
	hits          atomic.Uint64
	misses        atomic.Uint64
	evictions     atomic.Uint64
	promotions    atomic.Uint64
	writeThroughs atomic.Uint64
	expirations   atomic.Uint64
	refreshes     atomic.Uint64
}

func (s *statsCounters) snapshot() Stats {
	return Stats{
		Hits:          s.hits.Load(),
		Misses:        s.misses.Load(),
		Evictions:     s.evictions.Load(),
		Promotions:    s.promotions.Load(),
		WriteThroughs: s.writeThroughs.Load(),
		Expirations:   s.expirations.Load(),
		Refreshes:     s.refreshes.Load(),
	}
}
