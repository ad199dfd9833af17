// Package linear implements a two-tier bundled game with one forced
// dependency: every position in tier B has exactly one child in tier A,
// and every position in tier A is primitive Lose. It exercises the
// simplest non-trivial propagation: one inter-tier edge, one remoteness
// step.
package linear

import (
	"context"
	"math/rand"

	"github.com/gamescrafters/tiersolve/internal/game"
	"github.com/gamescrafters/tiersolve/internal/model"
	tiersolveerrors "github.com/gamescrafters/tiersolve/pkg/errors"
)

const (
	tierA model.Tier = 0
	tierB model.Tier = 1

	defaultSize = 10
)

// Game is the two-tier A/B fixture described above.
type Game struct {
	variant string
	size    int
}

// New builds the game with defaultSize positions per tier. variant is
// accepted for registry symmetry but currently unused.
func New(variant string) (game.Game, error) {
	return &Game{variant: variant, size: defaultSize}, nil
}

func (g *Game) Name() string    { return "linear" }
func (g *Game) Variant() string { return g.variant }

func (g *Game) InitialTier() model.Tier         { return tierB }
func (g *Game) InitialPosition() model.Position { return 0 }

func (g *Game) TierSize(t model.Tier) int {
	switch t {
	case tierA, tierB:
		return g.size
	default:
		return 0
	}
}

func (g *Game) DoMove(tp model.TierPosition, moveIndex int) (model.TierPosition, error) {
	if tp.Tier != tierB || moveIndex != 0 {
		return model.TierPosition{}, tiersolveerrors.Wrap(tiersolveerrors.CodeInvalidInput,
			"linear only has one move, from tier B to tier A", nil)
	}
	return model.TierPosition{Tier: tierA, Position: tp.Position}, nil
}

func (g *Game) GenerateMoves(tp model.TierPosition) ([]game.Move, error) {
	if tp.Tier != tierB {
		return nil, nil
	}
	return []game.Move{{Index: 0, Name: "descend"}}, nil
}

func (g *Game) Primitive(tp model.TierPosition) model.Value {
	if tp.Tier == tierA {
		return model.Lose
	}
	return model.Undecided
}

func (g *Game) IsLegal(tp model.TierPosition) bool {
	return (tp.Tier == tierA || tp.Tier == tierB) && int(tp.Position) < g.size
}

func (g *Game) CanonicalPosition(tp model.TierPosition) model.Position { return tp.Position }
func (g *Game) CanonicalTier(t model.Tier) model.Tier                  { return t }
func (g *Game) PositionInSymmetricTier(tp model.TierPosition, t2 model.Tier) model.Position {
	return tp.Position
}

func (g *Game) ChildTiers(t model.Tier) ([]model.Tier, error) {
	if t == tierB {
		return []model.Tier{tierA}, nil
	}
	return nil, nil
}

func (g *Game) TierType(t model.Tier) model.TierType { return model.ImmediateTransition }

func (g *Game) SupportsCanonicalParents() bool { return false }
func (g *Game) CanonicalParentPositions(tp model.TierPosition, parentTier model.Tier) ([]model.Position, error) {
	return nil, tiersolveerrors.Wrap(tiersolveerrors.CodeGameContract,
		"linear never declares canonical parent support", nil)
}

func (g *Game) CanonicalChildPositions(tp model.TierPosition) ([]model.TierPosition, error) {
	if tp.Tier != tierB {
		return nil, nil
	}
	return []model.TierPosition{{Tier: tierA, Position: tp.Position}}, nil
}

func (g *Game) NumberOfCanonicalChildPositions(tp model.TierPosition) (int, error) {
	if tp.Tier != tierB {
		return 0, nil
	}
	return 1, nil
}

func (g *Game) DBChunkSize() int { return 0 }

func (g *Game) RandomLegalPosition(ctx context.Context) (model.TierPosition, error) {
	select {
	case <-ctx.Done():
		return model.TierPosition{}, ctx.Err()
	default:
	}
	t := tierA
	if rand.Intn(2) == 1 {
		t = tierB
	}
	return model.TierPosition{Tier: t, Position: model.Position(rand.Intn(g.size))}, nil
}
