package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Catalog is the gorm-backed metadata store, analogous to the teacher's
// Repositories: one handle wrapping a *gorm.DB, offering a narrow
// domain-shaped API rather than leaking gorm to callers.
type Catalog struct {
	db *gorm.DB
}

// New wraps an already-opened, already-migrated gorm connection.
func New(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// Close releases the underlying connection pool.
func (c *Catalog) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// EnsureGame finds or creates the (name, variant) row.
func (c *Catalog) EnsureGame(ctx context.Context, name, variant string) (*Game, error) {
	var g Game
	err := c.db.WithContext(ctx).
		Where(Game{Name: name, Variant: variant}).
		Attrs(Game{Name: name, Variant: variant}).
		FirstOrCreate(&g).Error
	if err != nil {
		return nil, fmt.Errorf("ensure game: %w", err)
	}
	return &g, nil
}

// StartRun records the start of one manager invocation.
func (c *Catalog) StartRun(ctx context.Context, gameID uint, mode RunMode, threads int) (*Run, error) {
	run := &Run{GameID: gameID, Mode: mode, Threads: threads}
	if err := c.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	return run, nil
}

// FinishRun marks a run complete.
func (c *Catalog) FinishRun(ctx context.Context, runID uint, solved bool, failed int) error {
	now := time.Now()
	res := c.db.WithContext(ctx).
		Model(&Run{}).
		Where("id = ?", runID).
		Updates(map[string]interface{}{
			"finished_at": now,
			"solved":      solved,
			"failed":      failed,
		})
	if res.Error != nil {
		return fmt.Errorf("finish run: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("run not found: %d", runID)
	}
	return nil
}

// UpsertTierStatus records or updates one tier's outcome within a run.
func (c *Catalog) UpsertTierStatus(ctx context.Context, runID uint, tier uint64, status TierStatusValue, size, mismatches int) error {
	now := time.Now()
	row := TierStatus{
		RunID:      runID,
		Tier:       tier,
		Status:     status,
		Size:       size,
		Mismatches: mismatches,
		FinishedAt: &now,
	}
	return c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}, {Name: "tier"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "size", "mismatches", "finished_at"}),
		}).
		Create(&row).Error
}

// TierStatuses returns every tier recorded for a run.
func (c *Catalog) TierStatuses(ctx context.Context, runID uint) ([]TierStatus, error) {
	var rows []TierStatus
	err := c.db.WithContext(ctx).Where("run_id = ?", runID).Order("tier ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query tier status: %w", err)
	}
	return rows, nil
}

// LatestRun returns the most recent run for a game, if any.
func (c *Catalog) LatestRun(ctx context.Context, gameID uint) (*Run, error) {
	var run Run
	err := c.db.WithContext(ctx).Where("game_id = ?", gameID).Order("id DESC").First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return &run, nil
}
