package manager

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/gamescrafters/tiersolve/internal/model"
	"github.com/gamescrafters/tiersolve/pkg/collections"
)

// ConsistencyResult collects violations found while spot-checking a
// game's symmetry and parent/child contracts.
type ConsistencyResult struct {
	Checked    int // positions sampled across every discovered tier
	Violations []string
}

// CheckConsistency discovers the tier DAG, then for up to sampleSize
// positions per tier verifies:
//
//  1. tier-symmetry involution: CanonicalTier is idempotent.
//  2. every canonical child position DoMove/CanonicalChildPositions
//     reports is IsLegal.
//  3. when the game supports canonical parents, that relation is mutual
//     with CanonicalChildPositions (spec's parent/child mutuality
//     invariant).
//
// This does not verify full two-way involution of CanonicalPosition
// itself (accepted open-question limitation, see DESIGN.md).
func (m *Manager) CheckConsistency(ctx context.Context, sampleSize int) (*ConsistencyResult, error) {
	if sampleSize <= 0 {
		sampleSize = 16
	}

	disc, err := m.Discover(ctx)
	if err != nil {
		return nil, err
	}

	result := &ConsistencyResult{}
	rng := rand.New(rand.NewSource(1))

	for _, t := range disc.order {
		canon := m.game.CanonicalTier(t)
		if m.game.CanonicalTier(canon) != canon {
			result.Violations = append(result.Violations,
				fmt.Sprintf("tier %d: CanonicalTier is not idempotent (CanonicalTier(%d)=%d, CanonicalTier(%d)=%d)",
					t, t, canon, canon, m.game.CanonicalTier(canon)))
		}

		size := disc.Size(t)
		if size == 0 {
			continue
		}
		samples := sampleSize
		if samples > size {
			samples = size
		}

		// sampled tracks which of [0, size) have already been drawn, so
		// repeated rng.Intn draws don't waste a sample re-checking the
		// same position twice.
		sampled := collections.NewBitset(size)
		maxAttempts := samples * 8
		for drawn, attempts := 0, 0; drawn < samples && attempts < maxAttempts; attempts++ {
			i := rng.Intn(size)
			if sampled.Test(i) {
				continue
			}
			sampled.Set(i)
			drawn++

			pos := model.Position(i)
			tp := model.TierPosition{Tier: t, Position: pos}
			if !m.game.IsLegal(tp) {
				continue
			}
			// The contracts are checked on the canonical representative.
			tp.Position = m.game.CanonicalPosition(tp)
			result.Checked++
			m.checkPosition(t, tp, result)
		}
	}

	return result, nil
}

func (m *Manager) checkPosition(t model.Tier, tp model.TierPosition, result *ConsistencyResult) {
	children, err := m.game.CanonicalChildPositions(tp)
	if err != nil {
		result.Violations = append(result.Violations,
			fmt.Sprintf("%v: CanonicalChildPositions error: %v", tp, err))
		return
	}

	for _, child := range children {
		if !m.game.IsLegal(child) {
			result.Violations = append(result.Violations,
				fmt.Sprintf("%v: canonical child %v is not legal", tp, child))
			continue
		}

		if !m.game.SupportsCanonicalParents() {
			continue
		}
		parents, err := m.game.CanonicalParentPositions(child, t)
		if err != nil {
			result.Violations = append(result.Violations,
				fmt.Sprintf("%v: CanonicalParentPositions error: %v", child, err))
			continue
		}
		found := false
		for _, p := range parents {
			if p == tp.Position {
				found = true
				break
			}
		}
		if !found {
			result.Violations = append(result.Violations,
				fmt.Sprintf("%v: child %v does not report %v as a canonical parent", tp, child, tp))
		}
	}
}
