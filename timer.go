package duotier

import (
	"time"

	"github.com/google/uuid"
)

/*
expiryTimer is a one-shot timer bound to a specific key (spec.md §4.2,
ExpiryTimer). The teacher has no per-key timer at all — deleteExpired()
is a full O(n) scan driven by a single ticker — so this type is new
rather than adapted. Its stop path is a plain time.Timer.Stop; no channel
or goroutine of its own is involved.

Keys are string throughout this module (see dormantfile.go's grounding
note: every cache in the retrieval pack, the teacher included, keys by
string), so there is no need to parameterize this type over K.

STALE-DELIVERY DEFENSE (spec.md §9)

A timer fired concurrently with restartTimer/remove must not act on
stale state: "the handler checks that the token still matches the one
recorded in the active map before mutating state." generation is a fresh
uuid.UUID minted every time a timer is armed; the ActiveTier records the
armed generation alongside the timer, and the expiry handler compares its
own generation against that record before doing anything. A mismatch
means the timer effectively never fired.
*/
type expiryTimer struct {
	key        string
	generation uuid.UUID
	timer      *time.Timer
}

// newExpiryTimer arms a one-shot timer that invokes fire with (key,
// generation) after ttl elapses. fire is the controller's expiry
// dispatch (Cache.onExpire), which hands the work to a tracked goroutine
// rather than mutating state directly from the timer goroutine.
func newExpiryTimer(key string, ttl time.Duration, fire func(key string, generation uuid.UUID)) *expiryTimer {
	gen := uuid.New()
	et := &expiryTimer{key: key, generation: gen}
	et.timer = time.AfterFunc(ttl, func() {
		fire(key, gen)
	})
	return et
}

// stop cancels the underlying timer. Safe to call even if the timer
// already fired; does not guarantee a fired-but-not-yet-delivered event
// is suppressed, which is why the generation token (not just Stop) is
// the real defense against stale deliveries.
func (et *expiryTimer) stop() {
	if et == nil || et.timer == nil {
		return
	}
	et.timer.Stop()
}
