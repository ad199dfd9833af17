package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Game{}, &Run{}, &TierStatus{}))
	return db
}

func TestEnsureGameIsIdempotent(t *testing.T) {
	cat := New(setupTestDB(t))
	ctx := context.Background()

	g1, err := cat.EnsureGame(ctx, "tictactoe", "3x3")
	require.NoError(t, err)
	g2, err := cat.EnsureGame(ctx, "tictactoe", "3x3")
	require.NoError(t, err)
	assert.Equal(t, g1.ID, g2.ID)

	g3, err := cat.EnsureGame(ctx, "tictactoe", "4x4")
	require.NoError(t, err)
	assert.NotEqual(t, g1.ID, g3.ID)
}

func TestRunLifecycle(t *testing.T) {
	cat := New(setupTestDB(t))
	ctx := context.Background()

	g, err := cat.EnsureGame(ctx, "tictactoe", "3x3")
	require.NoError(t, err)

	run, err := cat.StartRun(ctx, g.ID, RunModeSolve, 4)
	require.NoError(t, err)
	assert.False(t, run.Solved)
	assert.Nil(t, run.FinishedAt)

	require.NoError(t, cat.UpsertTierStatus(ctx, run.ID, 1, TierStatusSolved, 100, 0))
	require.NoError(t, cat.UpsertTierStatus(ctx, run.ID, 2, TierStatusSolved, 50, 0))

	// upsert on the same (run, tier) updates in place, not a second row.
	require.NoError(t, cat.UpsertTierStatus(ctx, run.ID, 1, TierStatusSolved, 100, 2))

	statuses, err := cat.TierStatuses(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, 2, statuses[0].Mismatches)

	require.NoError(t, cat.FinishRun(ctx, run.ID, true, 0))

	latest, err := cat.LatestRun(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.Solved)
	assert.NotNil(t, latest.FinishedAt)
}

func TestLatestRunNoneReturnsNil(t *testing.T) {
	cat := New(setupTestDB(t))
	g, err := cat.EnsureGame(context.Background(), "nogame", "default")
	require.NoError(t, err)

	run, err := cat.LatestRun(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Nil(t, run)
}
