package manager_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamescrafters/tiersolve/internal/dispatcher"
	"github.com/gamescrafters/tiersolve/internal/game"
	"github.com/gamescrafters/tiersolve/internal/games/linear"
	"github.com/gamescrafters/tiersolve/internal/games/loopy"
	"github.com/gamescrafters/tiersolve/internal/games/primitive"
	"github.com/gamescrafters/tiersolve/internal/games/tictactoe"
	"github.com/gamescrafters/tiersolve/internal/manager"
	"github.com/gamescrafters/tiersolve/internal/model"
	"github.com/gamescrafters/tiersolve/internal/tierdb"
	"github.com/gamescrafters/tiersolve/internal/worker"
)

// These tests exercise the bundled games end to end through a real
// Manager/Worker/InProcessDispatcher/FileDirectory stack, one per
// scenario named by the testable-properties list, plus a handful of
// the quantified laws that a single scenario's assertions don't cover
// on their own (round-trip persistence, idempotent force-solve,
// remoteness bounds).

func newManager(t *testing.T, g game.Game, threads int) (*manager.Manager, tierdb.Directory) {
	t.Helper()
	dir, err := tierdb.NewFileDirectory(t.TempDir())
	require.NoError(t, err)
	w := worker.New(g, dir, threads, model.Remoteness(50), nil)
	d := dispatcher.NewInProcess(w, dispatcher.DefaultInProcessConfig())
	return manager.New(g, d, dir, nil), dir
}

// S1: the initial tic-tac-toe position solves to Tie.
func TestScenarioTicTacToeInitialIsTie(t *testing.T) {
	g, err := tictactoe.New("")
	require.NoError(t, err)

	m, dir := newManager(t, g, 4)
	result, err := m.Solve(context.Background(), worker.Options{})
	require.NoError(t, err)
	require.Equal(t, 0, result.Failed)

	store, err := dir.Open(g.InitialTier())
	require.NoError(t, err)
	defer store.Close()

	rec, err := store.Get(g.InitialPosition())
	require.NoError(t, err)
	assert.Equal(t, model.Tie, rec.Value)
}

// S2: a single-tier all-Win game solves in one dispatch with no
// propagation, every position (Win, 0).
func TestScenarioSinglePrimitiveTierAllWin(t *testing.T) {
	g, err := primitive.New("5")
	require.NoError(t, err)

	m, dir := newManager(t, g, 2)
	result, err := m.Solve(context.Background(), worker.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Solved)

	store, err := dir.Open(g.InitialTier())
	require.NoError(t, err)
	defer store.Close()

	for pos := model.Position(0); pos < 5; pos++ {
		rec, err := store.Get(pos)
		require.NoError(t, err)
		assert.Equal(t, model.Win, rec.Value)
		assert.Equal(t, model.Remoteness(0), rec.Remoteness)
	}
}

// S3: tier B's positions each have one child in tier A; A is all
// primitive Lose, so B solves to (Win, 1) and A to (Lose, 0).
func TestScenarioLinearTwoTierDependency(t *testing.T) {
	g, err := linear.New("")
	require.NoError(t, err)

	m, dir := newManager(t, g, 2)
	result, err := m.Solve(context.Background(), worker.Options{})
	require.NoError(t, err)
	require.Equal(t, 0, result.Failed)

	a, err := dir.Open(0)
	require.NoError(t, err)
	defer a.Close()
	b, err := dir.Open(1)
	require.NoError(t, err)
	defer b.Close()

	for pos := model.Position(0); pos < 10; pos++ {
		recA, err := a.Get(pos)
		require.NoError(t, err)
		assert.Equal(t, model.Lose, recA.Value)
		assert.Equal(t, model.Remoteness(0), recA.Remoteness)

		recB, err := b.Get(pos)
		require.NoError(t, err)
		assert.Equal(t, model.Win, recB.Value)
		assert.Equal(t, model.Remoteness(1), recB.Remoteness)
	}
}

// S4: a single tier whose positions form one big cycle with no
// primitives solves to Draw everywhere.
func TestScenarioLoopyTierAllDraw(t *testing.T) {
	g, err := loopy.New("8")
	require.NoError(t, err)

	m, dir := newManager(t, g, 2)
	result, err := m.Solve(context.Background(), worker.Options{})
	require.NoError(t, err)
	require.Equal(t, 0, result.Failed)

	store, err := dir.Open(g.InitialTier())
	require.NoError(t, err)
	defer store.Close()

	for pos := model.Position(0); pos < 8; pos++ {
		rec, err := store.Get(pos)
		require.NoError(t, err)
		assert.Equal(t, model.Draw, rec.Value)
	}
}

// Round-trip persistence + idempotence of force-solve: solving once, then
// re-solving the same game with Force, yields bit-identical records.
func TestForceSolveIsIdempotent(t *testing.T) {
	g, err := linear.New("")
	require.NoError(t, err)

	m, dir := newManager(t, g, 3)
	_, err = m.Solve(context.Background(), worker.Options{})
	require.NoError(t, err)

	first := snapshotTier(t, dir, 1, 10)

	_, err = m.Solve(context.Background(), worker.Options{Force: true})
	require.NoError(t, err)

	second := snapshotTier(t, dir, 1, 10)
	assert.Equal(t, first, second)
}

func snapshotTier(t *testing.T, dir tierdb.Directory, tier model.Tier, size int) []model.Record {
	t.Helper()
	store, err := dir.Open(tier)
	require.NoError(t, err)
	defer store.Close()

	recs := make([]model.Record, size)
	for pos := 0; pos < size; pos++ {
		rec, err := store.Get(model.Position(pos))
		require.NoError(t, err)
		recs[pos] = rec
	}
	return recs
}

// Remoteness non-negativity and bound: every non-Draw record's
// remoteness is within [0, R_max] across every solved tic-tac-toe tier.
func TestRemotenessWithinBoundsAcrossTiers(t *testing.T) {
	g, err := tictactoe.New("")
	require.NoError(t, err)

	const rMax = model.Remoteness(50)
	dir, err := tierdb.NewFileDirectory(t.TempDir())
	require.NoError(t, err)
	w := worker.New(g, dir, 4, rMax, nil)
	d := dispatcher.NewInProcess(w, dispatcher.DefaultInProcessConfig())
	m := manager.New(g, d, dir, nil)

	result, err := m.Solve(context.Background(), worker.Options{})
	require.NoError(t, err)
	require.Equal(t, 0, result.Failed)

	for tier := model.Tier(0); tier <= 9; tier++ {
		store, err := dir.Open(tier)
		require.NoError(t, err)
		size := g.TierSize(tier)
		for pos := 0; pos < size; pos++ {
			tp := model.TierPosition{Tier: tier, Position: model.Position(pos)}
			if !g.IsLegal(tp) {
				continue
			}
			rec, err := store.Get(model.Position(pos))
			require.NoError(t, err)
			if rec.Value == model.Draw {
				continue
			}
			assert.GreaterOrEqual(t, int32(rec.Remoteness), int32(0))
			assert.LessOrEqual(t, rec.Remoteness, rMax)
		}
		store.Close()
	}
}

// Parent/child mutuality and canonical-tier involution, sampled across
// every discovered tier of the flagship game.
func TestConsistencyCheckTicTacToeHasNoViolations(t *testing.T) {
	g, err := tictactoe.New("")
	require.NoError(t, err)

	m, _ := newManager(t, g, 4)
	result, err := m.CheckConsistency(context.Background(), 64)
	require.NoError(t, err)
	assert.Empty(t, result.Violations)
	assert.True(t, result.Checked > 0)
}
