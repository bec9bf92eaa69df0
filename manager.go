package memograph

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/memograph/graph"
	"github.com/unkn0wn-root/memograph/keygen"
)

// Call is one memoizable call signature: an optional subject (usually a
// fully-qualified function name), positional arguments and named
// arguments. Named-argument order never affects the key; positional order
// does.
type Call struct {
	Subject string
	Args    []any
	Kwargs  map[string]any
}

// ComputeFunc is the underlying computation wrapped by Do. The ctx it
// receives carries the dependency scope: cache reads made through the
// Manager with that ctx register as dependencies of this computation.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// DoOptions tune one memoized call.
type DoOptions struct {
	// TTL for the stored result; 0 uses each tier's configured TTL.
	TTL time.Duration
	// DisableTracking skips the dependency scope and leaves the graph
	// untouched for this key.
	DisableTracking bool
}

// Manager coordinates memoization: key generation, the tiered store,
// per-key request coalescing and the dependency graph. One Manager is
// normally shared per process, but that is the caller's wiring choice -
// nothing here is a singleton.
type Manager struct {
	store      *TieredStore
	graph      *graph.Graph
	strategies []Strategy
	keyFn      func(Call) (string, error)
	log        Logger
	hooks      Hooks

	flight  singleflight.Group
	enabled bool
	closed  atomic.Bool
}

func newManager(opts Options) (*Manager, error) {
	store, err := NewTieredStore(opts.Tiers, opts.Logger, opts.Hooks)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		store:   store,
		enabled: !opts.Disabled,
	}
	m.log = coalesce[Logger](opts.Logger, NopLogger{})
	m.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	m.graph = opts.Graph
	if m.graph == nil {
		m.graph = graph.New()
	}
	if opts.KeyFunc != nil {
		m.keyFn = opts.KeyFunc
	} else {
		m.keyFn = func(c Call) (string, error) {
			return keygen.Generate(c.Subject, c.Args, c.Kwargs)
		}
	}
	if opts.Strategies != nil {
		m.strategies = opts.Strategies
	} else {
		m.strategies = []Strategy{
			DependencyStrategy{Graph: m.graph},
			TimeStrategy{},
		}
	}
	return m, nil
}

func (m *Manager) Enabled() bool { return m.enabled }

// Graph exposes the dependency graph, e.g. for sharing it across managers
// or inspecting it in tests.
func (m *Manager) Graph() *graph.Graph { return m.graph }

// Close closes every tier. Idempotent; subsequent operations return
// ErrClosed.
func (m *Manager) Close(ctx context.Context) error {
	if m.closed.Swap(true) {
		return nil
	}
	return m.store.Close(ctx)
}

// Key computes the cache key for a call signature without executing
// anything - for manual Get/Set use or for declaring dependencies.
func (m *Manager) Key(call Call) (string, error) {
	return m.keyFn(call)
}

// Get reads key from the tiered store. Inside an active dependency scope a
// hit registers key as a dependency of the enclosing computation. A
// disabled manager always misses.
func (m *Manager) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.closed.Load() {
		return nil, false, ErrClosed
	}
	if !m.enabled {
		return nil, false, nil
	}
	v, ok, err := m.store.Get(ctx, key)
	if ok {
		AddDependency(ctx, key)
	}
	return v, ok, err
}

// Set stores value under key in every tier and, when deps are given,
// merges them into the dependency graph.
func (m *Manager) Set(ctx context.Context, key string, value []byte, ttl time.Duration, deps []string) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if !m.enabled {
		return nil
	}
	if err := m.store.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if len(deps) > 0 {
		m.graph.Add(key, graph.NewSet(deps...))
	}
	return nil
}

// Delete removes key from every tier and excises it from the graph.
func (m *Manager) Delete(ctx context.Context, key string) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if !m.enabled {
		return nil
	}
	err := m.store.Delete(ctx, key)
	m.graph.Remove(key)
	return err
}

// ClearAll wipes every tier and the whole dependency graph.
// Administrative full reset; not part of normal invalidation.
func (m *Manager) ClearAll(ctx context.Context) error {
	if m.closed.Load() {
		return ErrClosed
	}
	err := m.store.Clear(ctx)
	m.graph.Clear()
	return err
}

// Invalidate translates "trigger changed" into purges: every strategy
// contributes keys, the union is deleted from all tiers and excised from
// the graph. A failing strategy is skipped; keys already identified are
// still purged. The returned error joins tier-level delete failures.
func (m *Manager) Invalidate(ctx context.Context, trigger string) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if !m.enabled {
		return nil
	}

	stale := make(graph.Set)
	for _, s := range m.strategies {
		keys, err := s.Invalidate(ctx, trigger)
		if err != nil {
			m.hooks.StrategyError(s.Name(), err)
			m.log.Error("invalidation strategy failed; continuing", Fields{"strategy": s.Name(), "trigger": trigger, "err": err})
			continue
		}
		for k := range keys {
			stale[k] = struct{}{}
		}
	}
	if len(stale) == 0 {
		m.hooks.Invalidated(trigger, 0)
		return nil
	}

	m.log.Info("invalidating keys", Fields{"trigger": trigger, "count": len(stale)})

	keys := make([]string, 0, len(stale))
	for k := range stale {
		keys = append(keys, k)
	}
	errs := make([]error, len(keys))
	var g errgroup.Group
	for i, k := range keys {
		i, k := i, k
		g.Go(func() error {
			errs[i] = m.store.Delete(ctx, k)
			m.graph.Remove(k)
			return nil
		})
	}
	_ = g.Wait()

	m.hooks.Invalidated(trigger, len(keys))
	return errors.Join(errs...)
}

// Do performs cache-aside memoization for one call: generate the key,
// probe the store, and on miss execute fn exactly once process-wide while
// concurrent callers for the same key wait and share the result. The
// computation runs inside a fresh dependency scope; the keys it reads
// replace the key's dependency set wholesale.
//
// A nil payload is never cached: the computation reruns on every call,
// though concurrent callers still coalesce while it is in flight. fn's
// error propagates untouched and is never cached.
func (m *Manager) Do(ctx context.Context, call Call, opt DoOptions, fn ComputeFunc) ([]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}

	key, err := m.keyFn(call)
	if err != nil {
		return nil, err
	}
	if !m.enabled {
		return fn(ctx)
	}

	if v, ok, _ := m.store.Get(ctx, key); ok {
		AddDependency(ctx, key)
		return v, nil
	}

	ch := m.flight.DoChan(key, func() (any, error) {
		// Re-check after winning the flight: a previous flight may have
		// stored the value between our probe and this execution.
		if v, ok, _ := m.store.Get(ctx, key); ok {
			return v, nil
		}
		return m.compute(ctx, key, opt, fn)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			m.hooks.Coalesced(key)
		}
		v, _ := res.Val.([]byte)
		if v != nil {
			AddDependency(ctx, key)
		}
		return v, nil
	}
}

// compute executes fn under a dependency scope and stores the result.
// Runs inside the singleflight, so at most once per key at a time.
func (m *Manager) compute(ctx context.Context, key string, opt DoOptions, fn ComputeFunc) ([]byte, error) {
	var (
		v   []byte
		err error
		col *depCollector
	)
	if opt.DisableTracking {
		v, err = fn(ctx)
	} else {
		var cctx context.Context
		cctx, col = newDependencyScope(ctx)
		v, err = fn(cctx)
	}
	if err != nil {
		return nil, err // never cache failures
	}
	if v == nil {
		m.log.Debug("nil result not cached", Fields{"key": key})
		return nil, nil
	}

	if serr := m.store.Set(ctx, key, v, opt.TTL); serr != nil {
		m.log.Warn("storing computed value failed", Fields{"key": key, "err": serr})
	}
	if col != nil {
		m.graph.Replace(key, col.snapshot())
	}
	return v, nil
}
