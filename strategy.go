package memograph

import (
	"context"

	"github.com/unkn0wn-root/memograph/graph"
)

// Strategy maps an invalidation trigger to the set of keys that must be
// purged. Strategies are consulted in order and their results unioned; a
// failing strategy is logged and skipped so the others still run.
type Strategy interface {
	Name() string
	Invalidate(ctx context.Context, trigger string) (graph.Set, error)
}

// DependencyStrategy purges the trigger key itself plus every key that
// transitively depends on it.
type DependencyStrategy struct {
	Graph *graph.Graph
}

func (DependencyStrategy) Name() string { return "dependency" }

func (s DependencyStrategy) Invalidate(_ context.Context, trigger string) (graph.Set, error) {
	keys := s.Graph.Dependents(trigger)
	keys[trigger] = struct{}{}
	return keys, nil
}

// TimeStrategy is a structural placeholder: TTL expiry is handled
// passively by each tier on its own read path, so there is nothing to
// purge proactively. It exists so sweep-style strategies can slot in later
// without changing the coordinator.
type TimeStrategy struct{}

func (TimeStrategy) Name() string { return "time" }

func (TimeStrategy) Invalidate(context.Context, string) (graph.Set, error) {
	return nil, nil
}
