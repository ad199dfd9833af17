package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamescrafters/tiersolve/internal/game"
	"github.com/gamescrafters/tiersolve/internal/model"
	"github.com/gamescrafters/tiersolve/internal/tierdb"
)

// tierSpec describes one tier's worth of test fixture behavior.
type tierSpec struct {
	size       int
	primitive  func(pos int) model.Value
	children   func(pos int) []model.TierPosition
	childTiers []model.Tier
}

// testGame is a minimal game.Game used to exercise the worker without a
// real bundled game; it has no symmetry and never supports canonical
// parents, exercising the reverse position graph path (C3).
type testGame struct {
	tiers map[model.Tier]tierSpec
}

func (g *testGame) Name() string    { return "test" }
func (g *testGame) Variant() string { return "default" }

func (g *testGame) InitialTier() model.Tier         { return 0 }
func (g *testGame) InitialPosition() model.Position { return 0 }

func (g *testGame) TierSize(t model.Tier) int { return g.tiers[t].size }

func (g *testGame) DoMove(tp model.TierPosition, moveIndex int) (model.TierPosition, error) {
	return model.TierPosition{}, nil
}
func (g *testGame) GenerateMoves(tp model.TierPosition) ([]game.Move, error) { return nil, nil }

func (g *testGame) Primitive(tp model.TierPosition) model.Value {
	return g.tiers[tp.Tier].primitive(int(tp.Position))
}
func (g *testGame) IsLegal(tp model.TierPosition) bool { return true }

func (g *testGame) CanonicalPosition(tp model.TierPosition) model.Position { return tp.Position }
func (g *testGame) CanonicalTier(t model.Tier) model.Tier                  { return t }
func (g *testGame) PositionInSymmetricTier(tp model.TierPosition, t2 model.Tier) model.Position {
	return tp.Position
}

func (g *testGame) ChildTiers(t model.Tier) ([]model.Tier, error) {
	return g.tiers[t].childTiers, nil
}
func (g *testGame) TierType(t model.Tier) model.TierType { return model.ImmediateTransition }

func (g *testGame) SupportsCanonicalParents() bool { return false }
func (g *testGame) CanonicalParentPositions(tp model.TierPosition, parentTier model.Tier) ([]model.Position, error) {
	return nil, assertNever("CanonicalParentPositions should not be called")
}
func (g *testGame) CanonicalChildPositions(tp model.TierPosition) ([]model.TierPosition, error) {
	return g.tiers[tp.Tier].children(int(tp.Position)), nil
}
func (g *testGame) NumberOfCanonicalChildPositions(tp model.TierPosition) (int, error) {
	return len(g.tiers[tp.Tier].children(int(tp.Position))), nil
}

func (g *testGame) DBChunkSize() int { return 0 }

func (g *testGame) RandomLegalPosition(ctx context.Context) (model.TierPosition, error) {
	return model.TierPosition{}, nil
}

func assertNever(msg string) error { panic(msg) }

func alwaysValue(v model.Value) func(int) model.Value {
	return func(int) model.Value { return v }
}

func noChildren(int) []model.TierPosition { return nil }

func TestSolveSingleTierPrimitiveOnly(t *testing.T) {
	g := &testGame{tiers: map[model.Tier]tierSpec{
		1: {size: 3, primitive: alwaysValue(model.Win), children: noChildren},
	}}
	dir, err := tierdb.NewFileDirectory(t.TempDir())
	require.NoError(t, err)

	w := New(g, dir, 2, model.Remoteness(10), nil)
	outcome, err := w.Solve(context.Background(), model.Tier(1), Options{})
	require.NoError(t, err)
	assert.True(t, outcome.Solved)

	store, err := dir.Open(model.Tier(1))
	require.NoError(t, err)
	for p := 0; p < 3; p++ {
		rec, err := store.Get(model.Position(p))
		require.NoError(t, err)
		assert.Equal(t, model.Win, rec.Value)
		assert.Equal(t, model.Remoteness(0), rec.Remoteness)
	}
}

func TestSolveTwoTierLinearDependency(t *testing.T) {
	leaf := model.Tier(2)
	parent := model.Tier(1)

	g := &testGame{tiers: map[model.Tier]tierSpec{
		leaf: {
			size:      1,
			primitive: alwaysValue(model.Lose),
			children:  noChildren,
		},
		parent: {
			size:      1,
			primitive: alwaysValue(model.Undecided),
			children: func(pos int) []model.TierPosition {
				return []model.TierPosition{{Tier: leaf, Position: 0}}
			},
			childTiers: []model.Tier{leaf},
		},
	}}
	dir, err := tierdb.NewFileDirectory(t.TempDir())
	require.NoError(t, err)

	w := New(g, dir, 2, model.Remoteness(10), nil)
	ctx := context.Background()

	_, err = w.Solve(ctx, leaf, Options{})
	require.NoError(t, err)

	outcome, err := w.Solve(ctx, parent, Options{})
	require.NoError(t, err)
	assert.True(t, outcome.Solved)

	store, err := dir.Open(parent)
	require.NoError(t, err)
	rec, err := store.Get(model.Position(0))
	require.NoError(t, err)
	assert.Equal(t, model.Win, rec.Value)
	assert.Equal(t, model.Remoteness(1), rec.Remoteness)
}

func TestSolveSkipsAlreadySolvedUnlessForced(t *testing.T) {
	g := &testGame{tiers: map[model.Tier]tierSpec{
		1: {size: 1, primitive: alwaysValue(model.Win), children: noChildren},
	}}
	dir, err := tierdb.NewFileDirectory(t.TempDir())
	require.NoError(t, err)
	w := New(g, dir, 1, model.Remoteness(5), nil)
	ctx := context.Background()

	outcome, err := w.Solve(ctx, model.Tier(1), Options{})
	require.NoError(t, err)
	assert.True(t, outcome.Solved)

	outcome, err = w.Solve(ctx, model.Tier(1), Options{})
	require.NoError(t, err)
	assert.True(t, outcome.Loaded)
	assert.False(t, outcome.Solved)

	outcome, err = w.Solve(ctx, model.Tier(1), Options{Force: true})
	require.NoError(t, err)
	assert.True(t, outcome.Solved)
}
