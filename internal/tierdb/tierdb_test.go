package tierdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamescrafters/tiersolve/internal/model"
)

func TestCreateWriteFlushReopen(t *testing.T) {
	dir, err := NewFileDirectory(t.TempDir())
	require.NoError(t, err)

	tier := model.Tier(7)
	store, err := dir.Create(tier, 10, 4)
	require.NoError(t, err)

	for p := 0; p < 10; p++ {
		require.NoError(t, store.Put(model.Position(p), model.Record{
			Value:      model.Win,
			Remoteness: model.Remoteness(p),
		}))
	}
	require.NoError(t, store.Flush())
	require.NoError(t, store.Close())

	assert.True(t, dir.Exists(tier))

	reopened, err := dir.Open(tier)
	require.NoError(t, err)
	assert.Equal(t, 10, reopened.Size())
	for p := 0; p < 10; p++ {
		rec, err := reopened.Get(model.Position(p))
		require.NoError(t, err)
		assert.Equal(t, model.Win, rec.Value)
		assert.Equal(t, model.Remoteness(p), rec.Remoteness)
	}
}

func TestGetOutOfRange(t *testing.T) {
	dir, err := NewFileDirectory(t.TempDir())
	require.NoError(t, err)
	store, err := dir.Create(model.Tier(1), 5, 2)
	require.NoError(t, err)

	_, err = store.Get(model.Position(100))
	assert.Error(t, err)
}

func TestSolvedMarker(t *testing.T) {
	dir, err := NewFileDirectory(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	solved, err := dir.IsSolved(ctx)
	require.NoError(t, err)
	assert.False(t, solved)

	require.NoError(t, dir.MarkSolved(ctx))

	solved, err = dir.IsSolved(ctx)
	require.NoError(t, err)
	assert.True(t, solved)
}
