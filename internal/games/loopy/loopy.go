// Package loopy implements a single-tier bundled game with no primitives
// at all: every position has exactly one child, and the children form
// one big cycle. No backward induction step ever reaches a base case, so
// the only correct solved value for every position is Draw. It exercises
// the frontier/remoteness machinery's behavior when nothing propagates.
package loopy

import (
	"context"
	"math/rand"
	"strconv"

	"github.com/gamescrafters/tiersolve/internal/game"
	"github.com/gamescrafters/tiersolve/internal/model"
	tiersolveerrors "github.com/gamescrafters/tiersolve/pkg/errors"
)

const defaultSize = 16

// Game is the single-tier, all-cycle fixture described above.
type Game struct {
	variant string
	size    int
}

// New builds the game. variant, if non-empty, is parsed as the cycle
// length; an empty or invalid variant falls back to defaultSize.
func New(variant string) (game.Game, error) {
	size := defaultSize
	if variant != "" {
		n, err := strconv.Atoi(variant)
		if err != nil || n <= 0 {
			return nil, tiersolveerrors.Wrap(tiersolveerrors.CodeInvalidInput,
				"loopy variant must be a positive integer cycle length", err)
		}
		size = n
	}
	return &Game{variant: variant, size: size}, nil
}

func (g *Game) Name() string    { return "loopy" }
func (g *Game) Variant() string { return g.variant }

func (g *Game) InitialTier() model.Tier         { return 0 }
func (g *Game) InitialPosition() model.Position { return 0 }

func (g *Game) TierSize(t model.Tier) int { return g.size }

func (g *Game) DoMove(tp model.TierPosition, moveIndex int) (model.TierPosition, error) {
	if moveIndex != 0 {
		return model.TierPosition{}, tiersolveerrors.Wrap(tiersolveerrors.CodeInvalidInput,
			"loopy positions have exactly one move", nil)
	}
	next := (int(tp.Position) + 1) % g.size
	return model.TierPosition{Tier: 0, Position: model.Position(next)}, nil
}

func (g *Game) GenerateMoves(tp model.TierPosition) ([]game.Move, error) {
	return []game.Move{{Index: 0, Name: "advance"}}, nil
}

// Primitive always returns Undecided: the cycle has no terminal position,
// which is exactly the point of this fixture.
func (g *Game) Primitive(tp model.TierPosition) model.Value { return model.Undecided }

func (g *Game) IsLegal(tp model.TierPosition) bool {
	return tp.Tier == 0 && int(tp.Position) < g.size
}

func (g *Game) CanonicalPosition(tp model.TierPosition) model.Position { return tp.Position }
func (g *Game) CanonicalTier(t model.Tier) model.Tier                  { return t }
func (g *Game) PositionInSymmetricTier(tp model.TierPosition, t2 model.Tier) model.Position {
	return tp.Position
}

func (g *Game) ChildTiers(t model.Tier) ([]model.Tier, error) { return nil, nil }
func (g *Game) TierType(t model.Tier) model.TierType          { return model.Loopy }

func (g *Game) SupportsCanonicalParents() bool { return true }

func (g *Game) CanonicalParentPositions(tp model.TierPosition, parentTier model.Tier) ([]model.Position, error) {
	if parentTier != 0 {
		return nil, tiersolveerrors.Wrap(tiersolveerrors.CodeGameContract,
			"loopy has a single tier", nil)
	}
	prev := (int(tp.Position) - 1 + g.size) % g.size
	return []model.Position{model.Position(prev)}, nil
}

func (g *Game) CanonicalChildPositions(tp model.TierPosition) ([]model.TierPosition, error) {
	child, err := g.DoMove(tp, 0)
	if err != nil {
		return nil, err
	}
	return []model.TierPosition{child}, nil
}

func (g *Game) NumberOfCanonicalChildPositions(tp model.TierPosition) (int, error) { return 1, nil }

func (g *Game) DBChunkSize() int { return 0 }

func (g *Game) RandomLegalPosition(ctx context.Context) (model.TierPosition, error) {
	select {
	case <-ctx.Done():
		return model.TierPosition{}, ctx.Err()
	default:
	}
	return model.TierPosition{Tier: 0, Position: model.Position(rand.Intn(g.size))}, nil
}
