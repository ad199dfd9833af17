package frontier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamescrafters/tiersolve/internal/model"
)

func TestAddAndPositions(t *testing.T) {
	f := New(2, 10)

	require.NoError(t, f.Add(ClassLose, 0, 3, model.Position(1), 0))
	require.NoError(t, f.Add(ClassLose, 0, 3, model.Position(2), 0))
	require.NoError(t, f.Add(ClassLose, 0, 3, model.Position(3), 1))

	assert.Equal(t, []model.Position{1, 2, 3}, f.Positions(ClassLose, 0, 3))
	assert.Equal(t, 3, f.Len(ClassLose, 3))
	assert.Equal(t, 0, f.Len(ClassWin, 3))
}

func TestAccumulateDividersAndOriginatingTier(t *testing.T) {
	f := New(1, 5)

	// tier-index 0 contributes 2 entries, tier-index 1 contributes 1, then
	// tier-index 2 (the solving tier itself) contributes 2 more.
	require.NoError(t, f.Add(ClassWin, 0, 0, model.Position(10), 0))
	require.NoError(t, f.Add(ClassWin, 0, 0, model.Position(11), 0))
	require.NoError(t, f.Add(ClassWin, 0, 0, model.Position(20), 1))
	require.NoError(t, f.Add(ClassWin, 0, 0, model.Position(30), 2))
	require.NoError(t, f.Add(ClassWin, 0, 0, model.Position(31), 2))

	f.AccumulateDividers()

	assert.Equal(t, 0, f.OriginatingTier(ClassWin, 0, 0, 0))
	assert.Equal(t, 0, f.OriginatingTier(ClassWin, 0, 0, 1))
	assert.Equal(t, 1, f.OriginatingTier(ClassWin, 0, 0, 2))
	assert.Equal(t, 2, f.OriginatingTier(ClassWin, 0, 0, 3))
	assert.Equal(t, 2, f.OriginatingTier(ClassWin, 0, 0, 4))
}

func TestAddRejectsOutOfRange(t *testing.T) {
	f := New(1, 5)
	assert.Error(t, f.Add(ClassWin, 5, 0, model.Position(1), 0))
	assert.Error(t, f.Add(ClassWin, 0, 6, model.Position(1), 0))
}

func TestFreeRemotenessClearsBuckets(t *testing.T) {
	f := New(1, 5)
	require.NoError(t, f.Add(ClassLose, 0, 2, model.Position(1), 0))
	assert.Equal(t, 1, f.Len(ClassLose, 2))

	f.FreeRemoteness(2)
	assert.Equal(t, 0, f.Len(ClassLose, 2))
	assert.Nil(t, f.Positions(ClassLose, 0, 2))
}
