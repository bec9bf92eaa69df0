package memograph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/memograph/tier"
)

// TierConfig binds one storage level into the tiered store.
type TierConfig struct {
	Tier tier.Tier

	// Name labels the tier in logs, hooks and TierErrors.
	// Defaults to "tier<index>".
	Name string

	// TTL is this level's default entry lifetime, used when the caller
	// does not pass an explicit TTL. Through New, 0 inherits DefaultTTL
	// and a negative TTL defers to the tier's own policy.
	TTL time.Duration

	// Disabled levels are skipped entirely (reads, writes, clears).
	Disabled bool
}

// TieredStore presents an ordered list of tiers - fastest first - as one
// logical cache. Reads fall through with promotion, writes and deletes fan
// out to every enabled tier concurrently, and a failing tier degrades that
// tier only, never the whole operation.
type TieredStore struct {
	levels []TierConfig // enabled levels only, probe order
	log    Logger
	hooks  Hooks
}

// NewTieredStore validates and composes the configured levels. At least
// one enabled level with a non-nil Tier is required.
func NewTieredStore(levels []TierConfig, log Logger, hooks Hooks) (*TieredStore, error) {
	log = coalesce[Logger](log, NopLogger{})
	hooks = coalesce[Hooks](hooks, NopHooks{})

	enabled := make([]TierConfig, 0, len(levels))
	for i, l := range levels {
		if l.Disabled {
			continue
		}
		if l.Tier == nil {
			return nil, fmt.Errorf("memograph: tier %d is nil", i)
		}
		if l.Name == "" {
			l.Name = fmt.Sprintf("tier%d", i)
		}
		if l.TTL < 0 {
			l.TTL = 0 // sentinel: let the tier apply its own policy
		}
		enabled = append(enabled, l)
	}
	if len(enabled) == 0 {
		return nil, errors.New("memograph: at least one enabled tier is required")
	}
	return &TieredStore{levels: enabled, log: log, hooks: hooks}, nil
}

// Get probes tiers in order and returns the first hit, promoting the value
// into every faster tier that missed. Tier errors degrade to the next
// level; if every tier fails the result is a miss, never an error, so the
// caller falls through to recomputation.
func (s *TieredStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	for i, l := range s.levels {
		v, ok, err := l.Tier.Get(ctx, key)
		if err != nil {
			s.hooks.TierDegraded(l.Name, "get", key, err)
			s.log.Warn("tier get failed; trying next", Fields{"tier": l.Name, "key": key, "err": err})
			continue
		}
		if !ok {
			continue
		}
		if i > 0 {
			s.promote(ctx, key, v, i)
		}
		return v, true, nil
	}
	return nil, false, nil
}

// promote copies a value found at level hitIdx into levels 0..hitIdx-1,
// each with its own default TTL. Best-effort: failures only hook/log, and
// Promoted reports only the levels that actually accepted the value.
func (s *TieredStore) promote(ctx context.Context, key string, value []byte, hitIdx int) {
	promoted := 0
	for i := 0; i < hitIdx; i++ {
		l := s.levels[i]
		if err := l.Tier.Set(ctx, key, value, l.TTL); err != nil {
			s.hooks.TierDegraded(l.Name, "promote", key, err)
			s.log.Warn("promotion failed", Fields{"tier": l.Name, "key": key, "err": err})
			continue
		}
		promoted++
	}
	if promoted > 0 {
		s.hooks.Promoted(key, s.levels[hitIdx].Name, promoted)
	}
}

// Set writes to all enabled tiers concurrently. ttl > 0 overrides every
// level uniformly; ttl == 0 lets each level use its configured TTL. One
// tier's failure never blocks the others; the returned error is the join
// of per-tier failures (nil when all tiers stored).
func (s *TieredStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.fanOut(ctx, "set", key, func(ctx context.Context, l TierConfig) error {
		eff := ttl
		if eff == 0 {
			eff = l.TTL
		}
		return l.Tier.Set(ctx, key, value, eff)
	})
}

// Delete removes key from all tiers concurrently, with the same
// partial-failure semantics as Set.
func (s *TieredStore) Delete(ctx context.Context, key string) error {
	return s.fanOut(ctx, "delete", key, func(ctx context.Context, l TierConfig) error {
		return l.Tier.Delete(ctx, key)
	})
}

// Clear wipes every tier. Administrative full-reset only; normal
// invalidation deletes specific keys.
func (s *TieredStore) Clear(ctx context.Context) error {
	return s.fanOut(ctx, "clear", "", func(ctx context.Context, l TierConfig) error {
		return l.Tier.Clear(ctx)
	})
}

// Close closes every tier, joining errors.
func (s *TieredStore) Close(ctx context.Context) error {
	errs := make([]error, len(s.levels))
	for i, l := range s.levels {
		if err := l.Tier.Close(ctx); err != nil {
			errs[i] = &TierError{Tier: l.Name, Op: "close", Err: err}
		}
	}
	return errors.Join(errs...)
}

// fanOut runs op against every level concurrently and joins per-tier
// errors, so total latency is bounded by the slowest tier, not the sum.
func (s *TieredStore) fanOut(ctx context.Context, op, key string, fn func(context.Context, TierConfig) error) error {
	errs := make([]error, len(s.levels))
	var g errgroup.Group
	for i, l := range s.levels {
		i, l := i, l
		g.Go(func() error {
			if err := fn(ctx, l); err != nil {
				errs[i] = &TierError{Tier: l.Name, Op: op, Key: key, Err: err}
				s.hooks.TierDegraded(l.Name, op, key, err)
				s.log.Warn("tier operation failed", Fields{"tier": l.Name, "op": op, "key": key, "err": err})
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; they record them in errs
	return errors.Join(errs...)
}

// Tiers returns the enabled tier names in probe order.
func (s *TieredStore) Tiers() []string {
	names := make([]string, len(s.levels))
	for i, l := range s.levels {
		names[i] = l.Name
	}
	return names
}
