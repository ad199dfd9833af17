// Package tiergraph implements the reverse tier graph (component C2): a
// child-tier -> parent-tiers multimap built during discovery and consumed
// as tiers finish solving.
package tiergraph

import (
	"sync"

	"github.com/gamescrafters/tiersolve/internal/model"
)

// ReverseGraph is a child -> parents multimap, deduplicated by canonical
// parent tier. It is append-only during discovery and pop-only during
// scheduling; by the end of a run every entry has been popped.
type ReverseGraph struct {
	mu      sync.Mutex
	parents map[model.Tier]map[model.Tier]struct{}
}

// New creates an empty reverse tier graph.
func New() *ReverseGraph {
	return &ReverseGraph{parents: make(map[model.Tier]map[model.Tier]struct{})}
}

// AddEdge registers that parent has child as one of its canonical child
// tiers. Safe for concurrent callers; registering the same edge twice is a
// no-op (discovery may revisit a child tier through more than one parent).
func (g *ReverseGraph) AddEdge(child, parent model.Tier) {
	g.mu.Lock()
	defer g.mu.Unlock()
	set, ok := g.parents[child]
	if !ok {
		set = make(map[model.Tier]struct{})
		g.parents[child] = set
	}
	set[parent] = struct{}{}
}

// Parents returns the distinct canonical parent tiers registered for
// child, without removing them.
func (g *ReverseGraph) Parents(child model.Tier) []model.Tier {
	g.mu.Lock()
	defer g.mu.Unlock()
	set, ok := g.parents[child]
	if !ok {
		return nil
	}
	out := make([]model.Tier, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	return out
}

// Pop returns and removes child's parent-tier entries. Called once a tier
// finishes solving, since its reverse-edge entry is no longer needed
// (spec.md: "entries popped as tiers finish; empty at end of run").
func (g *ReverseGraph) Pop(child model.Tier) []model.Tier {
	g.mu.Lock()
	defer g.mu.Unlock()
	set, ok := g.parents[child]
	if !ok {
		return nil
	}
	delete(g.parents, child)
	out := make([]model.Tier, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	return out
}

// Empty reports whether every entry has been popped — true at the end of
// a correctly-run discovery+solve cycle.
func (g *ReverseGraph) Empty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.parents) == 0
}

// Len reports the number of child tiers with outstanding parent entries.
func (g *ReverseGraph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.parents)
}
