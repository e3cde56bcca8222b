package safesubmit

import (
	"context"
	"time"
)

// Store is the persistence contract for idempotency reservations.
// Implementations must be safe for concurrent use; remote backends are
// additionally expected to provide read-your-own-write consistency, since the
// middleware's duplicate check depends on observing its own reservation.
//
// The three-way Get result keeps the failure modes explicit: found reports
// whether a live entry exists, while a non-nil error means the backend was
// unreachable. The middleware treats read and delete errors as absent/no-op
// by policy (availability over consistency on those paths); only write
// errors abort a request.
type Store interface {
	// Get returns the marker stored for key. found is false when the key was
	// never reserved or the reservation has expired.
	Get(ctx context.Context, key string) (marker string, found bool, err error)

	// Set stores marker with expiry now + ttl, overwriting any existing entry.
	Set(ctx context.Context, key, marker string, ttl time.Duration) error

	// Delete removes the entry if present; a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// AtomicStore is implemented by backends with a native set-if-absent
// primitive. The middleware prefers it over the get-then-set sequence:
// with it, two simultaneous requests for the same key admit exactly one.
type AtomicStore interface {
	Store

	// SetIfAbsent reserves key only when no live entry exists, returning
	// whether the reservation was acquired.
	SetIfAbsent(ctx context.Context, key, marker string, ttl time.Duration) (bool, error)
}
