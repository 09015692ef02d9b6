// Package suffixalloc defines the disambiguation suffix pool contract.
// A suffix (1-999) is appended to the last three decimal digits of a
// payment amount so a memo-less receiving address can attribute payments by
// amount alone. The pool caps the system at 999 concurrently outstanding
// disambiguated orders; exhaustion is a transient capacity condition.
package suffixalloc

import (
	"context"
	"time"
)

// Allocator manages the bounded pool of disambiguation suffixes.
type Allocator interface {
	// Allocate claims a free suffix for orderNo with the given reservation
	// ttl. The claim is race-free under concurrent allocation: two
	// simultaneous callers never receive the same suffix. Returns a
	// suffix-pool-exhausted error when no suffix is free.
	Allocate(ctx context.Context, orderNo string, ttl time.Duration) (int, error)

	// Release frees the suffix only if it is still owned by orderNo, so a
	// delayed or retried release cannot clear a newer order's claim. Used
	// on cancellation and settlement; the suffix is immediately
	// re-allocatable.
	Release(ctx context.Context, suffix int, orderNo string) error

	// ReleaseExpired frees the durable claim for a suffix whose order
	// expired unpaid. The volatile claim is left to lapse on its own after
	// the cooldown period, so a late payment cannot be attributed to a
	// newer order that reused the suffix too soon.
	ReleaseExpired(ctx context.Context, suffix int, orderNo string) error
}
