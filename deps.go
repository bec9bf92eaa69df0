package memograph

import (
	"context"
	"sync"

	"github.com/unkn0wn-root/memograph/graph"
)

// depCollector accumulates the cache keys read while one memoized
// computation executes. It rides on the context: entering a computation
// installs a fresh collector that shadows the caller's, so nested memoized
// calls register with their own scope without cross-contamination, and the
// outer scope is restored simply by the inner context going out of use.
type depCollector struct {
	mu   sync.Mutex
	keys graph.Set
}

type depScopeKey struct{}

func newDependencyScope(ctx context.Context) (context.Context, *depCollector) {
	col := &depCollector{keys: make(graph.Set)}
	return context.WithValue(ctx, depScopeKey{}, col), col
}

func collectorFrom(ctx context.Context) *depCollector {
	col, _ := ctx.Value(depScopeKey{}).(*depCollector)
	return col
}

func (c *depCollector) add(key string) {
	c.mu.Lock()
	c.keys[key] = struct{}{}
	c.mu.Unlock()
}

func (c *depCollector) snapshot() graph.Set {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(graph.Set, len(c.keys))
	for k := range c.keys {
		out[k] = struct{}{}
	}
	return out
}

// AddDependency declares key as a dependency of the memoized computation
// active on ctx, if any. Cache reads made through the Manager register
// automatically; use this for source data read outside the cache (a feed
// handle, a file) that still has a key in the dependency graph.
func AddDependency(ctx context.Context, key string) {
	if col := collectorFrom(ctx); col != nil {
		col.add(key)
	}
}
