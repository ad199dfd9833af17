// Package primitive implements the simplest possible bundled game: a
// single tier whose every position is already primitive. It exists to
// exercise the "solving completes in one tier dispatch with zero
// propagation" path end to end, against a real game.Game rather than a
// worker-package test fixture.
package primitive

import (
	"context"
	"math/rand"
	"strconv"

	"github.com/gamescrafters/tiersolve/internal/game"
	"github.com/gamescrafters/tiersolve/internal/model"
	tiersolveerrors "github.com/gamescrafters/tiersolve/pkg/errors"
)

const defaultSize = 100

// Game is a single-tier game where every position is primitive Win.
type Game struct {
	variant string
	size    int
}

// New builds the game. variant, if non-empty, is parsed as the tier size;
// an empty or invalid variant falls back to defaultSize.
func New(variant string) (game.Game, error) {
	size := defaultSize
	if variant != "" {
		n, err := strconv.Atoi(variant)
		if err != nil || n <= 0 {
			return nil, tiersolveerrors.Wrap(tiersolveerrors.CodeInvalidInput,
				"primitive variant must be a positive integer tier size", err)
		}
		size = n
	}
	return &Game{variant: variant, size: size}, nil
}

func (g *Game) Name() string    { return "primitive" }
func (g *Game) Variant() string { return g.variant }

func (g *Game) InitialTier() model.Tier         { return 0 }
func (g *Game) InitialPosition() model.Position { return 0 }

func (g *Game) TierSize(t model.Tier) int { return g.size }

func (g *Game) DoMove(tp model.TierPosition, moveIndex int) (model.TierPosition, error) {
	return model.TierPosition{}, tiersolveerrors.Wrap(tiersolveerrors.CodeGameContract,
		"primitive positions have no moves", nil)
}

func (g *Game) GenerateMoves(tp model.TierPosition) ([]game.Move, error) { return nil, nil }

func (g *Game) Primitive(tp model.TierPosition) model.Value { return model.Win }

func (g *Game) IsLegal(tp model.TierPosition) bool {
	return tp.Tier == 0 && int(tp.Position) < g.size
}

func (g *Game) CanonicalPosition(tp model.TierPosition) model.Position { return tp.Position }
func (g *Game) CanonicalTier(t model.Tier) model.Tier                  { return t }
func (g *Game) PositionInSymmetricTier(tp model.TierPosition, t2 model.Tier) model.Position {
	return tp.Position
}

func (g *Game) ChildTiers(t model.Tier) ([]model.Tier, error) { return nil, nil }
func (g *Game) TierType(t model.Tier) model.TierType          { return model.ImmediateTransition }

func (g *Game) SupportsCanonicalParents() bool { return false }
func (g *Game) CanonicalParentPositions(tp model.TierPosition, parentTier model.Tier) ([]model.Position, error) {
	return nil, tiersolveerrors.Wrap(tiersolveerrors.CodeGameContract,
		"primitive never declares canonical parent support", nil)
}
func (g *Game) CanonicalChildPositions(tp model.TierPosition) ([]model.TierPosition, error) {
	return nil, nil
}
func (g *Game) NumberOfCanonicalChildPositions(tp model.TierPosition) (int, error) { return 0, nil }

func (g *Game) DBChunkSize() int { return 0 }

func (g *Game) RandomLegalPosition(ctx context.Context) (model.TierPosition, error) {
	select {
	case <-ctx.Done():
		return model.TierPosition{}, ctx.Err()
	default:
	}
	return model.TierPosition{Tier: 0, Position: model.Position(rand.Intn(g.size))}, nil
}
