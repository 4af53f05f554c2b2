package duotier

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

/*
cleaner is the periodic dormant-compaction task (spec.md §4.4). It plays
the exact role the teacher's janitor.go plays — a single ticker-driven
goroutine with a stopChan-close shutdown — generalized from "scan the
in-memory LRU list for expired items" to "read-filter-write the dormant
store, then check both-tiers-empty."

Per the design note in spec.md §9 ("a single periodic task is
sufficient; spawning a fresh worker per tick... is discouraged"), this is
one long-lived goroutine for the cache's whole lifetime, not a worker
spawned on every tick. It holds no type parameters of its own — tick is
an opaque closure the controller supplies — so it is not generic like
the tiers it drives.
*/
type cleaner struct {
	interval time.Duration
	stopChan chan struct{}
	tick     func()
}

func newCleaner(interval time.Duration, tick func()) *cleaner {
	return &cleaner{
		interval: interval,
		stopChan: make(chan struct{}),
		tick:     tick,
	}
}

// start launches the ticker goroutine, mirroring the teacher's
// startJanitor: if interval <= 0, periodic cleanup never starts and
// expired dormant records are dropped only when some other operation
// reads the store and writes it back.
func (c *cleaner) start() {
	if c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)

	go func() {
		for {
			select {
			case <-ticker.C:
				c.tick()
			case <-c.stopChan:
				ticker.Stop()
				return
			}
		}
	}()
}

// stop terminates the ticker goroutine. It is not idempotent: a second
// call panics on the underlying channel close, so the controller guards
// this behind its own dispose-once logic.
func (c *cleaner) stop() {
	close(c.stopChan)
}

// cleanerTick implements the three steps of spec.md §4.4: read+filter
// (the dormant Read already filters expired records), write the
// compacted result back, then report whether both tiers are empty so
// the caller can raise EmptyCache.
func cleanerTick[V any](active *activeTier[V], dormant DormantStore[V], log zerolog.Logger) (bothEmpty bool) {
	ctx := context.Background()
	records, err := dormant.Read(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("cleaner: dormant read failed, skipping compaction this tick")
		return active.len() == 0 && dormant.IsEmpty(ctx)
	}

	if err := dormant.Write(ctx, records); err != nil {
		log.Warn().Err(err).Msg("cleaner: dormant write failed, compaction not applied this tick")
	}

	return active.len() == 0 && len(records) == 0
}
