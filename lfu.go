package duotier

import (
	"context"

	"github.com/rs/zerolog"
)

/*
lfuApply is the LFUEngine decision procedure from spec.md §4.3. It plays
the role the teacher's eviction.go (evictOldest/removeElement) plays for
LRU, generalized from "evict the list tail" to "compare frequencies
across both tiers" — LFU has no O(1) total order to maintain
incrementally the way a doubly-linked list gives LRU, so this is a
min/max scan over whichever tier is being consulted, matching spec.md
§1's "cheap approximation using monotonic per-entry counters and simple
min/max scans" framing.

It is a free function, not a method on a stateful engine type, mirroring
the teacher's own free-function eviction helpers — there is no LFU state
beyond what the active tier and dormant store already hold.

The promotion step (2c in spec.md §4.3) inserts directly into the
active tier's primitive, never through this same function recursively —
resolving the Open Question in spec.md §9 ("the spec requires the
promotion step to bypass the LFU decision... to avoid non-termination
under adversarial frequency distributions").
*/
func lfuApply[V any](
	active *activeTier[V],
	dormant DormantStore[V],
	key string,
	candidate *EntryRecord[V],
	armTimer func(string) *expiryTimer,
	log zerolog.Logger,
	stats *statsCounters,
) {
	if active.capacity <= 0 {
		// Unbounded active tier: always room, never write-through.
		active.insert(key, candidate, armTimer)
		return
	}

	emptySlots := active.capacity - active.len()

	if emptySlots > 0 {
		promoteFromDormant(active, dormant, key, candidate, emptySlots, armTimer, log, stats)
		return
	}

	// emptySlots == 0: compare against the coldest active entry.
	lowestKey, lowestRecord, ok := active.lowestFrequency()
	if !ok {
		// Active tier reports full but yielded no entry — a transient
		// race with a concurrent remove. Fall back to inserting
		// directly; insert() re-validates capacity under its own lock.
		active.insert(key, candidate, armTimer)
		return
	}

	if lowestRecord.frequency >= candidate.frequency {
		writeThrough(dormant, key, candidate, log, stats)
		return
	}

	evicted, ok := active.remove(lowestKey)
	if ok {
		writeThrough(dormant, lowestKey, evicted, log, stats)
	}
	active.insert(key, candidate, armTimer)
}

// promoteFromDormant implements spec.md §4.3 step 2: fill empty active
// slots with dormant records that out-rank the candidate, before ever
// considering the candidate itself. Records are taken in the dormant
// snapshot's map iteration order, not ranked by frequency among
// themselves.
func promoteFromDormant[V any](
	active *activeTier[V],
	dormant DormantStore[V],
	key string,
	candidate *EntryRecord[V],
	emptySlots int,
	armTimer func(string) *expiryTimer,
	log zerolog.Logger,
	stats *statsCounters,
) {
	ctx := context.Background()
	snapshot, err := dormant.Read(ctx)
	if err != nil {
		// §7: dormant-unavailable aborts the containing LFU decision
		// without user-visible error; fall back to placing the
		// candidate directly since there is nothing to promote.
		log.Warn().Err(err).Msg("lfu: dormant read failed during promotion, placing candidate directly")
		active.insert(key, candidate, armTimer)
		return
	}

	promotedKeys := make([]string, 0, emptySlots)
	for k, rec := range snapshot {
		if len(promotedKeys) >= emptySlots {
			break
		}
		if rec.frequency <= candidate.frequency {
			continue
		}
		// Bypass the LFU decision entirely: the slot is known empty.
		if active.insert(k, rec, armTimer) {
			promotedKeys = append(promotedKeys, k)
		}
	}

	if len(promotedKeys) == 0 {
		active.insert(key, candidate, armTimer)
		return
	}

	for _, k := range promotedKeys {
		delete(snapshot, k)
	}
	if err := dormant.Write(ctx, snapshot); err != nil {
		log.Warn().Err(err).Msg("lfu: failed to persist dormant tier after promotion")
	}
	if stats != nil {
		stats.promotions.Add(uint64(len(promotedKeys)))
	}
	// At least one record was promoted; the candidate is not placed, even
	// if some empty slots remain.
}

// writeThrough persists a record directly to the dormant tier without
// ever entering the active tier (spec.md §4.3 step 3b, and step 3c's
// eviction of the previously-active loser).
func writeThrough[V any](dormant DormantStore[V], key string, record *EntryRecord[V], log zerolog.Logger, stats *statsCounters) {
	ctx := context.Background()
	existing, err := dormant.Read(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("lfu: dormant read failed during write-through, dropping candidate")
		return
	}
	existing[key] = record
	if err := dormant.Write(ctx, existing); err != nil {
		log.Warn().Err(err).Msg("lfu: dormant write failed during write-through")
		return
	}
	if stats != nil {
		stats.writeThroughs.Add(1)
	}
}
