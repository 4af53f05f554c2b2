package duotier

import (
	"time"

	"github.com/rs/zerolog"
)

/*
Option follows the teacher's functional-options pattern (options.go:
"type Option func(*Cache)") verbatim in spirit, extended with one option
per recognized config-surface entry in spec.md §6 beyond the three
constructor parameters. New options can be added without ever changing
Init's signature, the same API-stability argument the teacher's doc
comment makes for WithCleanupInterval.
*/
type Option[V any] func(*config[V])

type config[V any] struct {
	dormantTTL   time.Duration
	dormantStore DormantStore[V]
	logger       zerolog.Logger
	emptyCacheCh chan struct{}
}

// defaultConfig matches the table in spec.md §6: dormant_ttl_ms 500000,
// no store override (Init builds the default file-backed one), a
// disabled logger (silent unless a caller opts in), no event channel.
func defaultConfig[V any]() *config[V] {
	return &config[V]{
		dormantTTL: DefaultDormantTTL,
		logger:     zerolog.Nop(),
	}
}

const (
	// DefaultCapacity is the active-tier hard bound when Init is called
	// with capacity <= 0.
	DefaultCapacity = 1000
	// DefaultActiveTTL is the per-entry active-tier TTL when Init is
	// called with activeTTL <= 0.
	DefaultActiveTTL = 300_000 * time.Millisecond
	// DefaultCleanerPeriod is the cleaner tick period when Init is
	// called with cleanerPeriod <= 0.
	DefaultCleanerPeriod = 400_000 * time.Millisecond
	// DefaultDormantTTL is the dormant tier's logical TTL.
	DefaultDormantTTL = 500_000 * time.Millisecond
)

// WithDormantTTL overrides the dormant tier's logical TTL (spec.md §6,
// dormant_ttl_ms). Only takes effect when combined with the default
// file-backed store constructed internally by Init; if WithDormantStore
// is also supplied, the caller's store owns its own TTL policy and this
// option is ignored.
func WithDormantTTL[V any](ttl time.Duration) Option[V] {
	return func(c *config[V]) {
		c.dormantTTL = ttl
	}
}

// WithDormantStore supplies an alternative DormantStore implementation
// (spec.md §6, dormant_store_impl). Plugin discovery by name is out of
// scope (spec.md §1); this is the seam spec.md §9 describes as
// sufficient: "expose the DormantStore capability set as an abstract
// interface... runtime reflection is not required."
func WithDormantStore[V any](store DormantStore[V]) Option[V] {
	return func(c *config[V]) {
		c.dormantStore = store
	}
}

// WithLogger attaches a zerolog.Logger the controller uses to report
// swallowed errors (dormant-unavailable, timer-fault, cleaner failures)
// per spec.md §7's "log and swallow" policy. Defaults to a disabled
// logger so the library stays silent unless a caller opts in.
func WithLogger[V any](log zerolog.Logger) Option[V] {
	return func(c *config[V]) {
		c.logger = log
	}
}

// WithEmptyCacheChan supplies a channel the controller sends to
// (non-blocking) whenever both tiers become simultaneously empty
// (spec.md §6, the EmptyCache event). Sends never block the caller's
// hot path: if the channel is unbuffered or full, the notification is
// dropped rather than stalling Remove/Clear/the cleaner.
func WithEmptyCacheChan[V any](ch chan struct{}) Option[V] {
	return func(c *config[V]) {
		c.emptyCacheCh = ch
	}
}
