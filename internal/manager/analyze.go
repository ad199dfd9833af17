package manager

import (
	"context"

	"github.com/gamescrafters/tiersolve/internal/catalog"
	"github.com/gamescrafters/tiersolve/internal/model"
)

// TierStat is one tier's entry in an AnalyzeResult.
type TierStat struct {
	Tier       model.Tier
	Size       int
	Type       model.TierType
	Depth      int // longest path from the initial tier
	NumParents int
	NumChildren int
}

// AnalyzeResult summarizes a read-only traversal of the tier DAG: no
// position is examined, only tier metadata and DAG shape.
type AnalyzeResult struct {
	Tiers          []TierStat
	TotalPositions int64
	MaxDepth       int
	Skipped        int
}

// Analyze walks the tier DAG from the initial tier outward to its
// descendants, the opposite direction from Solve, accumulating per-tier
// statistics instead of game values.
//
// This is the adjunct described in spec.md §4.5: "mirrors solving but
// traverses in the opposite direction, accumulating per-tier statistical
// summaries; its propagation rule is simpler (no counter decrement based
// on game values)." Concretely: a tier becomes ready once every one of
// its canonical parent tiers has been visited, which a root (the initial
// tier, with zero parents) satisfies immediately; visiting a tier just
// records its stats, no dispatcher call and no persisted record — this
// mode never touches a worker or a tier database.
func (m *Manager) Analyze(ctx context.Context) (*AnalyzeResult, error) {
	ctx, span := tracer.Start(ctx, "manager.Analyze")
	defer span.End()

	var runID uint
	if m.catalog != nil {
		g, err := m.catalog.EnsureGame(ctx, m.game.Name(), m.game.Variant())
		if err != nil {
			return nil, err
		}
		run, err := m.catalog.StartRun(ctx, g.ID, catalog.RunModeAnalyze, m.threads)
		if err != nil {
			return nil, err
		}
		runID = run.ID
	}

	disc, err := m.Discover(ctx)
	if err != nil {
		return nil, err
	}

	counters := make(map[model.Tier]int, len(disc.order))
	depth := make(map[model.Tier]int, len(disc.order))
	for _, t := range disc.order {
		counters[t] = len(disc.reverse.Parents(t))
	}

	root := m.game.CanonicalTier(m.game.InitialTier())
	ready := []model.Tier{root}
	depth[root] = 0

	result := &AnalyzeResult{}
	visited := make(map[model.Tier]struct{}, len(disc.order))

	for len(ready) > 0 {
		t := ready[0]
		ready = ready[1:]

		if m.game.CanonicalTier(t) != t {
			result.Skipped++
			continue
		}
		if _, dup := visited[t]; dup {
			continue
		}
		visited[t] = struct{}{}

		size := disc.Size(t)
		children := disc.Children(t)
		result.Tiers = append(result.Tiers, TierStat{
			Tier:        t,
			Size:        size,
			Type:        disc.nodes[t].typ,
			Depth:       depth[t],
			NumParents:  len(disc.reverse.Parents(t)),
			NumChildren: len(children),
		})
		result.TotalPositions += int64(size)
		if depth[t] > result.MaxDepth {
			result.MaxDepth = depth[t]
		}

		for _, c := range children {
			if depth[c] < depth[t]+1 {
				depth[c] = depth[t] + 1
			}
			counters[c]--
			if counters[c] == 0 {
				ready = append(ready, c)
			}
		}
	}

	if m.catalog != nil {
		if err := m.catalog.FinishRun(ctx, runID, true, 0); err != nil {
			m.log.Warn("record run completion: %v", err)
		}
	}

	return result, nil
}
