package memograph

import (
	"context"
	"errors"
	"time"

	"github.com/unkn0wn-root/memograph/graph"
)

// Cache is the high-level memoization API: byte-level get/set/delete over
// the tiered store, coalesced compute-on-miss, and graph-driven
// invalidation. Typed callers layer Wrap on top.
type Cache interface {
	Enabled() bool
	Close(context.Context) error

	// Keys and raw entries
	Key(call Call) (string, error)
	Get(ctx context.Context, key string) (v []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, deps []string) error
	Delete(ctx context.Context, key string) error
	ClearAll(ctx context.Context) error

	// Memoization
	Do(ctx context.Context, call Call, opt DoOptions, fn ComputeFunc) ([]byte, error)

	// Invalidation
	Invalidate(ctx context.Context, trigger string) error
}

// Options tune the cache. Only Tiers is required; others have sensible
// defaults.
type Options struct {
	// Required: at least one enabled tier, fastest first.
	Tiers []TierConfig

	Logger     Logger        // if nil, NopLogger is used
	Hooks      Hooks         // if nil, NopHooks is used
	Strategies []Strategy    // nil => DependencyStrategy + TimeStrategy
	DefaultTTL time.Duration // for tiers with TTL 0; 0 => 10m. Set a tier's TTL negative to keep its own policy.
	KeyFunc    func(Call) (string, error) // nil => keygen.Generate
	Graph      *graph.Graph  // nil => fresh graph; share to span managers
	Disabled   bool          // default false (enabled)
}

// New builds a Cache from opts.
func New(opts Options) (Cache, error) {
	if len(opts.Tiers) == 0 {
		return nil, errors.New("memograph: at least one tier is required")
	}
	ttl := coalesce(opts.DefaultTTL, 10*time.Minute)
	tiers := make([]TierConfig, len(opts.Tiers))
	copy(tiers, opts.Tiers)
	for i := range tiers {
		tiers[i].TTL = coalesce(tiers[i].TTL, ttl)
	}
	opts.Tiers = tiers
	m, err := newManager(opts)
	if err != nil {
		return nil, err
	}
	return m, nil
}

var _ Cache = (*Manager)(nil)
