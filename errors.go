package duotier

import "github.com/pkg/errors"

/*
Error kinds from spec.md §7. None of these cross the public API surface
directly (Add/Update/Get/Remove report outcomes via bool/optional return
values only) — they exist so the internal plumbing between the
CacheController, the LFUEngine, the Cleaner, and the DormantStore can
name *why* something was swallowed when it logs the event, and so tests
can assert on the right failure taxonomy with errors.Is/errors.Cause.

DormantStore implementations are the one place an error does cross a Go
interface boundary (they are external collaborators per spec.md §1), so
Read/Write/Clear return error; everything above that layer downgrades
those errors to "not found" per the policy table in §7.
*/

var (
	// ErrInvalidInput marks a null value or empty key; the caller is a
	// no-op by contract, never informed.
	ErrInvalidInput = errors.New("duotier: invalid input")

	// ErrDisposed marks a call made against a disposed CacheController.
	ErrDisposed = errors.New("duotier: cache disposed")

	// ErrDormantUnavailable marks a dormant store that could not be read
	// or written (missing file, I/O error, corrupt payload).
	ErrDormantUnavailable = errors.New("duotier: dormant store unavailable")

	// ErrDeserialization marks a corrupt dormant payload; treated the
	// same as ErrDormantUnavailable by every caller (§7: "treated as
	// dormant-unavailable; the corrupted file may be overwritten by the
	// next successful write").
	ErrDeserialization = errors.New("duotier: dormant store deserialization failed")

	// ErrTimerFault marks an internal scheduling error; the affected
	// entry is removed from active and written through to dormant
	// rather than lost.
	ErrTimerFault = errors.New("duotier: timer fault")
)

// wrapDormant tags err as dormant-unavailable with operation context,
// using the pack's pkg/errors wrapping idiom instead of fmt.Errorf-%w
// chains (novelcore-function-kubecore-schema-registry wraps every
// fallible call through pkg/errors.Wrapf the same way).
func wrapDormant(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(ErrDormantUnavailable, "%s: %v", op, err)
}
