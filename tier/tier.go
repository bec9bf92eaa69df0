// Package tier defines the storage-level abstraction composed by the
// tiered store.
//
// Implementations MUST be byte-for-byte transparent: Get must return
// exactly the same []byte that was previously passed to Set for a key (no
// prepended/appended metadata, no re-encoding, no mutation). If a store
// performs internal transforms (e.g., compression, expiry envelopes), they
// MUST be fully reversed before returning.
//
// A tier may be unavailable (network down, disk full). Callers treat tier
// errors as degraded-but-non-fatal; implementations should return the error
// rather than retry internally.
package tier

import (
	"context"
	"time"
)

// Tier is one storage level: memory, remote, or disk. Must be safe for
// concurrent use.
type Tier interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value. ttl <= 0 means the tier's own default policy
	// (which may be "no expiry"). Best-effort stores may silently drop
	// writes under pressure without returning an error.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry this tier holds. Administrative only.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close(ctx context.Context) error
}
