package catalog

import "time"

// Game is one row per distinct (name, variant) a run has ever been
// started for.
type Game struct {
	ID      uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Name    string `gorm:"column:name;type:varchar(128);uniqueIndex:idx_game_variant"`
	Variant string `gorm:"column:variant;type:varchar(128);uniqueIndex:idx_game_variant"`
}

// TableName returns the table name for Game.
func (Game) TableName() string { return "games" }

// RunMode distinguishes a solve run from an analysis-only run.
type RunMode string

const (
	// RunModeSolve is a full backward-induction solve.
	RunModeSolve RunMode = "solve"
	// RunModeAnalyze is a read-only statistics traversal.
	RunModeAnalyze RunMode = "analyze"
)

// Run is one manager invocation against a Game.
type Run struct {
	ID         uint       `gorm:"column:id;primaryKey;autoIncrement"`
	GameID     uint       `gorm:"column:game_id;index"`
	Mode       RunMode    `gorm:"column:mode;type:varchar(16)"`
	Threads    int        `gorm:"column:threads"`
	StartedAt  time.Time  `gorm:"column:started_at;autoCreateTime"`
	FinishedAt *time.Time `gorm:"column:finished_at"`
	Solved     bool       `gorm:"column:solved"`
	Failed     int        `gorm:"column:failed"`
}

// TableName returns the table name for Run.
func (Run) TableName() string { return "runs" }

// TierStatusValue is a tier's lifecycle state within one run.
type TierStatusValue string

const (
	TierStatusPending TierStatusValue = "pending"
	TierStatusSolved  TierStatusValue = "solved"
	TierStatusLoaded  TierStatusValue = "loaded"
	TierStatusFailed  TierStatusValue = "failed"
	TierStatusSkipped TierStatusValue = "skipped"
)

// TierStatus is one tier's row within a run: its solving outcome, size,
// and timing. One row per (run, tier) — never one row per position, which
// is why this lives in gorm and the position records do not (see
// DESIGN.md).
type TierStatus struct {
	ID          uint            `gorm:"column:id;primaryKey;autoIncrement"`
	RunID       uint            `gorm:"column:run_id;uniqueIndex:idx_run_tier"`
	Tier        uint64          `gorm:"column:tier;uniqueIndex:idx_run_tier"`
	Status      TierStatusValue `gorm:"column:status;type:varchar(16)"`
	Size        int             `gorm:"column:size"`
	Mismatches  int             `gorm:"column:mismatches"`
	StartedAt   *time.Time      `gorm:"column:started_at"`
	FinishedAt  *time.Time      `gorm:"column:finished_at"`
}

// TableName returns the table name for TierStatus.
func (TierStatus) TableName() string { return "tier_status" }
