package duotier

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

/*
Cache is the public façade (spec.md §4.1, CacheController) composing the
active tier, the dormant store, the LFU engine, and the cleaner into one
owned handle.

================================================================================
ARCHITECTURAL OVERVIEW
================================================================================

Cache generalizes the teacher's single-tier design:

 1. activeTier — bounded hot map + per-key timers (was: map + LRU list).
 2. DormantStore — unbounded, durable cold map (new: the teacher has no
    second tier at all).
 3. lfuApply — decides which tier a newcomer lands in (was: evictOldest,
    an unconditional LRU-tail eviction).
 4. cleaner — periodic dormant compaction (was: periodic LRU-list scan).

================================================================================
CONCURRENCY MODEL
================================================================================

The active tier and the dormant store each serialize their own state
behind their own mutex (spec.md §5). decisionMu serializes whole LFU
decisions end to end (read active snapshot, maybe read/write dormant,
maybe insert/evict active) so two concurrent Add calls can't both
observe the same empty slot and both decide to fill it — LFU is not
idempotent under a true race the way two independent counter increments
would be.

================================================================================
LIFECYCLE
================================================================================

Init returns an explicitly-owned *Cache (spec.md §9: "do not rely on
static construction order"); there is no package-level singleton. An
optional Registry is provided separately for callers who want one.
*/
type Cache[V any] struct {
	active     *activeTier[V]
	dormant    DormantStore[V]
	cleaner    *cleaner
	decisionMu sync.Mutex

	capacity      int
	activeTTL     time.Duration
	cleanerPeriod time.Duration

	log          zerolog.Logger
	emptyCacheCh chan struct{}
	stats        statsCounters

	disposed    atomic.Bool
	disposeOnce sync.Once

	expiryWG sync.WaitGroup
}

// Init creates a Cache: loads the top-capacity dormant records by
// frequency into the active tier, starts the cleaner, and returns an
// owned handle (spec.md §4.1). capacity/activeTTL/cleanerPeriod <= 0
// fall back to the defaults in spec.md §6's table.
func Init[V any](capacity int, activeTTL, cleanerPeriod time.Duration, opts ...Option[V]) (*Cache[V], error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if activeTTL <= 0 {
		activeTTL = DefaultActiveTTL
	}
	if cleanerPeriod <= 0 {
		cleanerPeriod = DefaultCleanerPeriod
	}

	cfg := defaultConfig[V]()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.dormantStore == nil {
		store := NewFileDormantStore[V](defaultDormantPath(), cfg.dormantTTL, cfg.logger)
		if err := store.EnsureExists(); err != nil {
			return nil, err
		}
		cfg.dormantStore = store
	}

	c := &Cache[V]{
		active:        newActiveTier[V](capacity),
		dormant:       cfg.dormantStore,
		capacity:      capacity,
		activeTTL:     activeTTL,
		cleanerPeriod: cleanerPeriod,
		log:           cfg.logger,
		emptyCacheCh:  cfg.emptyCacheCh,
	}
	c.cleaner = newCleaner(cleanerPeriod, c.cleanerTick)

	c.loadFromDormant()
	c.cleaner.start()

	return c, nil
}

// loadFromDormant implements the restart-load scenario (spec.md §8
// scenario 5): active is seeded with the highest-frequency dormant
// records up to capacity, the rest stay dormant. Records are inserted
// directly, bypassing the LFU decision — there is no candidate to
// compare against, only a fresh active tier being seeded.
func (c *Cache[V]) loadFromDormant() {
	ctx := context.Background()
	records, err := c.dormant.Read(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache: failed to load dormant records at startup")
		return
	}
	if len(records) == 0 {
		return
	}

	type kv struct {
		key string
		rec *EntryRecord[V]
	}
	ordered := make([]kv, 0, len(records))
	for k, rec := range records {
		ordered = append(ordered, kv{k, rec})
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].rec.frequency > ordered[j].rec.frequency
	})

	loadedSet := make(map[string]struct{}, c.capacity)
	for _, e := range ordered {
		if c.capacity > 0 && len(loadedSet) >= c.capacity {
			break
		}
		if c.active.insert(e.key, e.rec, c.armTimer) {
			loadedSet[e.key] = struct{}{}
		}
	}

	if len(loadedSet) == 0 {
		return
	}
	remaining := make(map[string]*EntryRecord[V], len(records)-len(loadedSet))
	for k, rec := range records {
		if _, ok := loadedSet[k]; !ok {
			remaining[k] = rec
		}
	}
	if err := c.dormant.Write(ctx, remaining); err != nil {
		c.log.Warn().Err(err).Msg("cache: failed to persist dormant tier after startup load")
	}
}

// armTimer builds a fresh expiryTimer bound to key, wired to this
// cache's expiry dispatch.
func (c *Cache[V]) armTimer(key string) *expiryTimer {
	return newExpiryTimer(key, c.activeTTL, c.onExpire)
}

// onExpire is invoked from the timer goroutine when a key's active TTL
// elapses (spec.md §4.6: Live -> Expiring). It is dispatched
// asynchronously via a tracked goroutine so Dispose can await in-flight
// handlers (spec.md §5).
func (c *Cache[V]) onExpire(key string, generation uuid.UUID) {
	c.expiryWG.Add(1)
	go func() {
		defer c.expiryWG.Done()
		c.handleExpiry(key, generation)
	}()
}

func (c *Cache[V]) handleExpiry(key string, generation uuid.UUID) {
	if c.disposed.Load() {
		return
	}

	var onExpireHook func() V
	var hasHook bool
	c.active.withRecord(key, func(rec *EntryRecord[V], ok bool) {
		if ok && rec.onExpire != nil {
			onExpireHook, hasHook = rec.onExpire, true
		}
	})

	if hasHook {
		newValue, faulted := c.runRefresh(onExpireHook)
		if faulted {
			c.demoteOnTimerFault(key)
			return
		}
		if c.active.refreshIfGeneration(key, generation, newValue, c.activeTTL, c.onExpire) {
			c.stats.refreshes.Add(1)
		}
		return
	}

	if _, ok := c.active.removeIfGeneration(key, generation); ok {
		c.stats.expirations.Add(1)
		c.afterRemoval()
	}
}

// runRefresh calls the on_expire hook, recovering from a panic so a
// caller-supplied callback can never take down the timer goroutine;
// recovery is reported as a timer fault (spec.md §7).
func (c *Cache[V]) runRefresh(onExpire func() V) (value V, faulted bool) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("duotier: on_expire hook panicked, treating as timer fault")
			faulted = true
		}
	}()
	return onExpire(), false
}

// demoteOnTimerFault implements the timer-fault policy (spec.md §7): the
// affected entry is removed from active and written through to dormant
// so a faulted refresh doesn't lose the value.
func (c *Cache[V]) demoteOnTimerFault(key string) {
	rec, ok := c.active.remove(key)
	if !ok {
		return
	}
	c.decisionMu.Lock()
	writeThrough[V](c.dormant, key, rec, c.log, &c.stats)
	c.decisionMu.Unlock()
	c.afterRemoval()
}

// afterRemoval checks the both-tiers-empty condition after a removal
// (Remove, ActiveRemove, expiry, or a timer-fault demotion) and raises
// EmptyCache if it holds (spec.md §4.1, §4.6). Clear raises EmptyCache
// directly instead.
func (c *Cache[V]) afterRemoval() {
	if c.active.len() != 0 {
		return
	}
	if !c.dormant.IsEmpty(context.Background()) {
		return
	}
	c.notifyEmpty()
}

func (c *Cache[V]) notifyEmpty() {
	if c.emptyCacheCh == nil {
		return
	}
	select {
	case c.emptyCacheCh <- struct{}{}:
	default:
	}
}

func (c *Cache[V]) cleanerTick() {
	if cleanerTick[V](c.active, c.dormant, c.log) {
		c.notifyEmpty()
	}
}

// ---------------------------------------------------------------------
// Public operations (spec.md §4.1 table)
// ---------------------------------------------------------------------

// Add places (key, value) into the active tier if there is room; else
// defers to the LFU engine. A nil onExpire means the entry has no
// refresh hook. An empty key is a silent no-op (spec.md §7: invalid
// input).
func (c *Cache[V]) Add(key string, value V, onExpire func() V) {
	if c.disposed.Load() || key == "" {
		return
	}

	record := newEntryRecord(value, onExpire)

	c.decisionMu.Lock()
	defer c.decisionMu.Unlock()

	if c.active.insert(key, record, c.armTimer) {
		return
	}
	lfuApply[V](c.active, c.dormant, key, record, c.armTimer, c.log, &c.stats)
}

// Update sets value on an existing key, resetting modifiedAt and
// restarting the active timer; frequency is unchanged (spec.md §3,
// §4.1). If the key is dormant-only, it is promoted first — resolving
// the Open Question in spec.md §9 about the source's update-on-
// dormant-only-key race — and then updated. Returns false if the key is
// absent from both tiers.
func (c *Cache[V]) Update(key string, value V) bool {
	if c.disposed.Load() || key == "" {
		return false
	}

	var found bool
	c.active.withRecord(key, func(_ *EntryRecord[V], ok bool) {
		found = ok
	})

	if found {
		if !c.active.restartTimer(key, c.activeTTL, c.onExpire) {
			return false
		}
		return c.applyUpdate(key, value)
	}

	c.decisionMu.Lock()
	defer c.decisionMu.Unlock()

	ctx := context.Background()
	records, err := c.dormant.Read(ctx)
	if err != nil {
		return false
	}
	rec, ok := records[key]
	if !ok {
		return false
	}

	// Apply the new value before rec is handed to insert/lfuApply: rec
	// may end up written straight back to dormant (as a write-through
	// loser in lfuApply's full-tier branch) rather than landing in
	// active, and in that case there is no active record left to mutate
	// afterwards. Mutating rec up front means whichever tier it lands in
	// carries the update.
	rec.setValue(value, nil, true)

	delete(records, key)
	if err := c.dormant.Write(ctx, records); err != nil {
		c.log.Warn().Err(err).Msg("update: failed to persist dormant tier after promotion")
	}

	if !c.active.insert(key, rec, c.armTimer) {
		lfuApply[V](c.active, c.dormant, key, rec, c.armTimer, c.log, &c.stats)
	}
	return true
}

// applyUpdate sets the value on an already-active key.
func (c *Cache[V]) applyUpdate(key string, value V) bool {
	applied := false
	c.active.withRecord(key, func(rec *EntryRecord[V], ok bool) {
		if ok {
			rec.setValue(value, nil, true)
			applied = true
		}
	})
	return applied
}

// Lookup searches both tiers, incrementing frequency on a hit; a
// dormant hit triggers the LFU engine to consider promoting it (spec.md
// §4.1).
func (c *Cache[V]) Lookup(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// ActiveLookup is the active-tier-only variant of Lookup.
func (c *Cache[V]) ActiveLookup(key string) bool {
	_, ok := c.GetActive(key)
	return ok
}

// Get is Lookup but returns the value.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	if c.disposed.Load() || key == "" {
		return zero, false
	}

	if v, ok := c.active.get(key, true); ok {
		c.stats.hits.Add(1)
		return v, true
	}

	c.decisionMu.Lock()
	defer c.decisionMu.Unlock()

	ctx := context.Background()
	records, err := c.dormant.Read(ctx)
	if err != nil {
		c.stats.misses.Add(1)
		return zero, false
	}
	rec, ok := records[key]
	if !ok {
		c.stats.misses.Add(1)
		return zero, false
	}

	rec.touch()
	delete(records, key)
	if err := c.dormant.Write(ctx, records); err != nil {
		c.log.Warn().Err(err).Msg("get: failed to persist dormant tier before promotion consideration")
	}
	lfuApply[V](c.active, c.dormant, key, rec, c.armTimer, c.log, &c.stats)
	c.stats.hits.Add(1)
	return rec.value, true
}

// GetActive is ActiveLookup but returns the value.
func (c *Cache[V]) GetActive(key string) (V, bool) {
	var zero V
	if c.disposed.Load() || key == "" {
		return zero, false
	}
	v, ok := c.active.get(key, true)
	if ok {
		c.stats.hits.Add(1)
	} else {
		c.stats.misses.Add(1)
	}
	return v, ok
}

// Remove removes key from whichever tier holds it, cancelling its timer
// if active. Emits EmptyCache if both tiers become empty as a result.
func (c *Cache[V]) Remove(key string) (V, bool) {
	var zero V
	if c.disposed.Load() || key == "" {
		return zero, false
	}

	if rec, ok := c.active.remove(key); ok {
		c.stats.evictions.Add(1)
		c.afterRemoval()
		return rec.value, true
	}

	c.decisionMu.Lock()
	defer c.decisionMu.Unlock()

	ctx := context.Background()
	records, err := c.dormant.Read(ctx)
	if err != nil {
		return zero, false
	}
	rec, ok := records[key]
	if !ok {
		return zero, false
	}
	delete(records, key)
	if err := c.dormant.Write(ctx, records); err != nil {
		c.log.Warn().Err(err).Msg("remove: failed to persist dormant tier")
	}
	c.afterRemoval()
	return rec.value, true
}

// ActiveRemove is the active-only variant of Remove.
func (c *Cache[V]) ActiveRemove(key string) (V, bool) {
	var zero V
	if c.disposed.Load() || key == "" {
		return zero, false
	}
	rec, ok := c.active.remove(key)
	if !ok {
		return zero, false
	}
	c.stats.evictions.Add(1)
	c.afterRemoval()
	return rec.value, true
}

// Clear drops both tiers and emits EmptyCache (spec.md §4.1). Idempotent:
// calling it twice in a row behaves the same as once.
func (c *Cache[V]) Clear() {
	if c.disposed.Load() {
		return
	}

	c.active.clear()

	c.decisionMu.Lock()
	if err := c.dormant.Clear(context.Background()); err != nil {
		c.log.Warn().Err(err).Msg("clear: failed to clear dormant store")
	}
	c.decisionMu.Unlock()

	c.notifyEmpty()
}

// ActiveCount returns the number of entries currently in the active
// tier.
func (c *Cache[V]) ActiveCount() int {
	return c.active.len()
}

// DormantCount forces a dormant read and returns its size.
func (c *Cache[V]) DormantCount() int {
	c.decisionMu.Lock()
	defer c.decisionMu.Unlock()
	records, err := c.dormant.Read(context.Background())
	if err != nil {
		return 0
	}
	return len(records)
}

// Count forces a dormant read (via DormantCount) and returns the sum of
// both tiers' sizes.
func (c *Cache[V]) Count() int {
	return c.ActiveCount() + c.DormantCount()
}

// PreviousCount returns the sum of the active tier's current size and
// the dormant store's last-known (possibly stale) cardinality, avoiding
// a forced dormant read (spec.md §4.1).
func (c *Cache[V]) PreviousCount() int {
	return c.ActiveCount() + c.dormant.Count()
}

// Stats returns a snapshot of runtime counters.
func (c *Cache[V]) Stats() Stats {
	return c.stats.snapshot()
}

// Dispose flushes active records into dormant (active values win on key
// conflict), cancels all timers, awaits in-flight expiry handlers, stops
// the cleaner, and marks the cache unusable. Safe to call more than
// once; operations after Dispose are silent no-ops / empty results.
func (c *Cache[V]) Dispose() {
	c.disposeOnce.Do(func() {
		c.disposed.Store(true)
		c.cleaner.stop()

		active := c.active.snapshot()
		c.active.clear()
		c.expiryWG.Wait()

		c.decisionMu.Lock()
		defer c.decisionMu.Unlock()

		ctx := context.Background()
		records, err := c.dormant.Read(ctx)
		if err != nil {
			records = map[string]*EntryRecord[V]{}
		}
		for k, rec := range active {
			records[k] = rec
		}
		if err := c.dormant.Write(ctx, records); err != nil {
			c.log.Warn().Err(err).Msg("dispose: failed to flush active tier to dormant store")
		}
	})
}
