package manager

import (
	"context"
	"fmt"

	"github.com/gamescrafters/tiersolve/internal/model"
	"github.com/gamescrafters/tiersolve/internal/tiergraph"
	tiersolveerrors "github.com/gamescrafters/tiersolve/pkg/errors"
)

// frame is one level of the iterative discovery DFS: the tier being
// visited, its (already canonicalized and deduplicated) children, and
// how far through them the frame has advanced.
type frame struct {
	tier     model.Tier
	children []model.Tier
	idx      int
}

// Discover walks the tier DAG reachable from the game's initial tier,
// recording each canonical tier's size and canonical children and
// building the reverse tier graph (component C2).
//
// Grounded on spec.md §4.5's iterative three-color DFS: NotVisited (the
// zero value of model.TierStatus, so an absent map entry already means
// "not visited"), InProgress (pushed, not yet closed), Closed. A child
// found InProgress means that child is an ancestor of itself on the
// current path: a tier cycle, reported as an error rather than solved.
func (m *Manager) Discover(ctx context.Context) (*Discovery, error) {
	_, span := tracer.Start(ctx, "manager.Discover")
	defer span.End()

	status := make(map[model.Tier]model.TierStatus)
	nodes := make(map[model.Tier]*tierNode)
	reverse := tiergraph.New()
	var order []model.Tier

	root := m.game.CanonicalTier(m.game.InitialTier())
	if err := m.visit(root, status, nodes); err != nil {
		return nil, err
	}
	status[root] = model.InProgress

	stack := []*frame{{tier: root, children: nodes[root].children}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if top.idx >= len(top.children) {
			status[top.tier] = model.Closed
			order = append(order, top.tier)
			stack = stack[:len(stack)-1]
			continue
		}

		child := top.children[top.idx]
		top.idx++
		reverse.AddEdge(child, top.tier)

		switch status[child] {
		case model.Closed:
			continue
		case model.InProgress:
			return nil, tiersolveerrors.Wrap(tiersolveerrors.CodeCycle,
				fmt.Sprintf("tier %d reaches itself through tier %d", child, top.tier), nil)
		default: // NotVisited
			if err := m.visit(child, status, nodes); err != nil {
				return nil, err
			}
			status[child] = model.InProgress
			stack = append(stack, &frame{tier: child, children: nodes[child].children})
		}
	}

	return &Discovery{nodes: nodes, reverse: reverse, order: order}, nil
}

// visit records tier's size, type, and deduplicated canonical children
// the first time discovery reaches it. A no-op if already recorded.
func (m *Manager) visit(tier model.Tier, status map[model.Tier]model.TierStatus, nodes map[model.Tier]*tierNode) error {
	if _, ok := nodes[tier]; ok {
		return nil
	}

	raw, err := m.game.ChildTiers(tier)
	if err != nil {
		return tiersolveerrors.Wrap(tiersolveerrors.CodeGameContract,
			fmt.Sprintf("ChildTiers(%d) failed", tier), err)
	}

	seen := make(map[model.Tier]struct{}, len(raw))
	children := make([]model.Tier, 0, len(raw))
	for _, c := range raw {
		canon := m.game.CanonicalTier(c)
		if canon == tier {
			continue // intra-tier transitions are the worker's concern, not a DAG edge
		}
		if _, dup := seen[canon]; dup {
			continue
		}
		seen[canon] = struct{}{}
		children = append(children, canon)
	}

	nodes[tier] = &tierNode{
		size:     m.game.TierSize(tier),
		typ:      m.game.TierType(tier),
		children: children,
	}
	return nil
}
