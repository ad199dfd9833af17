package primitive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamescrafters/tiersolve/internal/model"
)

func TestEveryPositionIsPrimitiveWin(t *testing.T) {
	g, err := New("5")
	require.NoError(t, err)
	for p := 0; p < 5; p++ {
		tp := model.TierPosition{Tier: 0, Position: model.Position(p)}
		assert.True(t, g.IsLegal(tp))
		assert.Equal(t, model.Win, g.Primitive(tp))
	}
	assert.False(t, g.IsLegal(model.TierPosition{Tier: 0, Position: 5}))
}

func TestInvalidVariantRejected(t *testing.T) {
	_, err := New("not-a-number")
	assert.Error(t, err)
}
