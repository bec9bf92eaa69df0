// Package graph maintains the dependency relation between cache keys and
// answers transitive-dependent queries for invalidation.
//
// Edges are bidirectional: "A depends on B" is stored both as a forward
// edge A->B and a reverse edge B->A, and the two maps are kept mutually
// consistent under a single mutex. Graph operations are O(affected
// subgraph), never O(value size), so one exclusive lock is cheap relative
// to cache I/O.
package graph

import "sync"

// Set is the key-set shape used throughout the graph API.
type Set map[string]struct{}

// NewSet builds a Set from keys.
func NewSet(keys ...string) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Graph records which keys each cached key was derived from. Safe for
// concurrent use.
type Graph struct {
	mu sync.Mutex
	// fwd: key -> keys it depends on. rev: key -> keys depending on it.
	fwd map[string]Set
	rev map[string]Set
}

func New() *Graph {
	return &Graph{
		fwd: make(map[string]Set),
		rev: make(map[string]Set),
	}
}

// Add merges deps into key's dependency set. Already-present edges are
// no-ops; reverse links are created only for genuinely new edges.
func (g *Graph) Add(key string, deps Set) {
	if len(deps) == 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	cur := g.fwd[key]
	if cur == nil {
		cur = make(Set, len(deps))
		g.fwd[key] = cur
	}
	for d := range deps {
		if _, ok := cur[d]; ok {
			continue
		}
		cur[d] = struct{}{}
		if g.rev[d] == nil {
			g.rev[d] = make(Set)
		}
		g.rev[d][key] = struct{}{}
	}
}

// Replace swaps key's dependency set wholesale. Reverse edges are updated
// only for the symmetric difference against the previous set; dropping the
// last reverse link to a key removes its (now empty) reverse entry.
func (g *Graph) Replace(key string, deps Set) {
	g.mu.Lock()
	defer g.mu.Unlock()

	old := g.fwd[key]

	for d := range old {
		if _, keep := deps[d]; keep {
			continue
		}
		if r := g.rev[d]; r != nil {
			delete(r, key)
			if len(r) == 0 {
				delete(g.rev, d)
			}
		}
	}
	for d := range deps {
		if _, had := old[d]; had {
			continue
		}
		if g.rev[d] == nil {
			g.rev[d] = make(Set)
		}
		g.rev[d][key] = struct{}{}
	}

	if len(deps) == 0 {
		delete(g.fwd, key)
		return
	}
	next := make(Set, len(deps))
	for d := range deps {
		next[d] = struct{}{}
	}
	g.fwd[key] = next
}

// Dependents returns every key that directly or transitively depends on
// key, found by breadth-first traversal of the reverse edges. The visited
// guard makes traversal terminate even if a cycle was recorded. Unknown
// keys yield an empty set.
func (g *Graph) Dependents(key string) Set {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(Set)
	direct := g.rev[key]
	if len(direct) == 0 {
		return out
	}

	queue := make([]string, 0, len(direct))
	for d := range direct {
		out[d] = struct{}{}
		queue = append(queue, d)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for d := range g.rev[cur] {
			if _, seen := out[d]; seen {
				continue
			}
			out[d] = struct{}{}
			queue = append(queue, d)
		}
	}
	return out
}

// Remove excises key entirely: its forward edges (and their reverse links)
// and its reverse edges (and the forward links in its dependents).
func (g *Graph) Remove(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for d := range g.fwd[key] {
		if r := g.rev[d]; r != nil {
			delete(r, key)
			if len(r) == 0 {
				delete(g.rev, d)
			}
		}
	}
	delete(g.fwd, key)

	for dep := range g.rev[key] {
		if f := g.fwd[dep]; f != nil {
			delete(f, key)
			if len(f) == 0 {
				delete(g.fwd, dep)
			}
		}
	}
	delete(g.rev, key)
}

// Clear drops every edge.
func (g *Graph) Clear() {
	g.mu.Lock()
	g.fwd = make(map[string]Set)
	g.rev = make(map[string]Set)
	g.mu.Unlock()
}

// Snapshot returns deep copies of both adjacency maps for inspection.
func (g *Graph) Snapshot() (fwd, rev map[string]Set) {
	g.mu.Lock()
	defer g.mu.Unlock()

	fwd = make(map[string]Set, len(g.fwd))
	for k, s := range g.fwd {
		c := make(Set, len(s))
		for d := range s {
			c[d] = struct{}{}
		}
		fwd[k] = c
	}
	rev = make(map[string]Set, len(g.rev))
	for k, s := range g.rev {
		c := make(Set, len(s))
		for d := range s {
			c[d] = struct{}{}
		}
		rev[k] = c
	}
	return fwd, rev
}
