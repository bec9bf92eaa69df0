// Package memograph implements application-level memoization over a
// tiered byte cache with graph-based dependency invalidation. Concurrent
// callers for the same key coalesce into one computation; misses in a
// fast tier fall through to slower ones and hits promote back up.
//
// Components:
//   - Tier: byte store with TTL (e.g. Ristretto, BigCache, Redis, Bolt),
//     fastest first.
//   - keygen: canonical deterministic cache keys from call signatures.
//   - graph: forward/reverse dependency edges; invalidating a key also
//     purges everything that transitively depends on it.
//   - codec.Codec[V]: (de)serializes V <-> []byte for typed wrappers.
//
// Memoization pattern:
//
//	cache, _ := memograph.New(memograph.Options{Tiers: tiers})
//	load := memograph.Wrap(cache, "users.load", codec.JSON[User]{}, loadUser, memograph.WrapOptions{})
//	u, err := load(ctx, userID) // computed once, then served from cache
//	_ = cache.Invalidate(ctx, usersTableKey) // purges load results that read it
package memograph
