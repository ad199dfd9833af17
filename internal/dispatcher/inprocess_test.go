package dispatcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamescrafters/tiersolve/internal/game"
	"github.com/gamescrafters/tiersolve/internal/model"
	"github.com/gamescrafters/tiersolve/internal/tierdb"
	"github.com/gamescrafters/tiersolve/internal/worker"
)

// singleTierGame is a minimal fixture: one tier, every position primitive
// Win, no children — enough to exercise dispatch plumbing without
// depending on a bundled game package.
type singleTierGame struct {
	tier model.Tier
	size int
}

func (g *singleTierGame) Name() string                         { return "single" }
func (g *singleTierGame) Variant() string                      { return "default" }
func (g *singleTierGame) InitialTier() model.Tier               { return g.tier }
func (g *singleTierGame) InitialPosition() model.Position       { return 0 }
func (g *singleTierGame) TierSize(t model.Tier) int             { return g.size }
func (g *singleTierGame) DoMove(tp model.TierPosition, i int) (model.TierPosition, error) {
	return model.TierPosition{}, nil
}
func (g *singleTierGame) GenerateMoves(tp model.TierPosition) ([]game.Move, error) { return nil, nil }
func (g *singleTierGame) Primitive(tp model.TierPosition) model.Value             { return model.Win }
func (g *singleTierGame) IsLegal(tp model.TierPosition) bool                      { return true }
func (g *singleTierGame) CanonicalPosition(tp model.TierPosition) model.Position  { return tp.Position }
func (g *singleTierGame) CanonicalTier(t model.Tier) model.Tier                   { return t }
func (g *singleTierGame) PositionInSymmetricTier(tp model.TierPosition, t2 model.Tier) model.Position {
	return tp.Position
}
func (g *singleTierGame) ChildTiers(t model.Tier) ([]model.Tier, error) { return nil, nil }
func (g *singleTierGame) TierType(t model.Tier) model.TierType          { return model.ImmediateTransition }
func (g *singleTierGame) SupportsCanonicalParents() bool                { return true }
func (g *singleTierGame) CanonicalParentPositions(tp model.TierPosition, parentTier model.Tier) ([]model.Position, error) {
	return nil, nil
}
func (g *singleTierGame) CanonicalChildPositions(tp model.TierPosition) ([]model.TierPosition, error) {
	return nil, nil
}
func (g *singleTierGame) NumberOfCanonicalChildPositions(tp model.TierPosition) (int, error) {
	return 0, nil
}
func (g *singleTierGame) DBChunkSize() int { return 0 }
func (g *singleTierGame) RandomLegalPosition(ctx context.Context) (model.TierPosition, error) {
	return model.TierPosition{}, nil
}

func TestInProcessDispatcherSolvesTier(t *testing.T) {
	g := &singleTierGame{tier: 1, size: 2}
	dir, err := tierdb.NewFileDirectory(t.TempDir())
	require.NoError(t, err)
	w := worker.New(g, dir, 2, model.Remoteness(5), nil)

	d := NewInProcess(w, DefaultInProcessConfig())
	outcome, err := d.Dispatch(context.Background(), g.tier, worker.Options{})
	require.NoError(t, err)
	assert.True(t, outcome.Solved)
}

func TestInProcessDispatcherSerializesByDefault(t *testing.T) {
	g := &singleTierGame{tier: 1, size: 1}
	dir, err := tierdb.NewFileDirectory(t.TempDir())
	require.NoError(t, err)
	w := worker.New(g, dir, 1, model.Remoteness(5), nil)

	d := NewInProcess(w, InProcessConfig{MaxConcurrentTiers: 1})
	assert.Equal(t, 1, cap(d.sem))
}
