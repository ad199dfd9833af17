// Package catalog implements the run/tier metadata catalog (component
// C7's metadata half): a gorm-backed record of which games have been
// run, which runs have happened, and each tier's outcome within a run.
// It stores one row per tier, never one row per position — the hot
// (tier,position)->(value,remoteness) path lives in internal/tierdb.
package catalog

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/gamescrafters/tiersolve/pkg/config"
	"github.com/gamescrafters/tiersolve/pkg/telemetry"
)

// NewGormDB opens a gorm connection per cfg.Type, mirroring the
// teacher's internal/repository.NewGormDB driver-selection shape,
// generalized with a sqlite dialector for the common "solve on a
// laptop" single-process case the teacher's MySQL/Postgres-only service
// never needed.
func NewGormDB(cfg config.CatalogConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Type {
	case "", "sqlite":
		path := cfg.Database
		if path == "" {
			path = "tiersolve.db"
		}
		dialector = sqlite.Open(path)
	case "postgres", "postgresql":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database,
		)
		dialector = postgres.Open(dsn)
	case "mysql":
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		)
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported catalog type: %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}

	if telemetry.Enabled() {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			return nil, fmt.Errorf("enable catalog telemetry: %w", err)
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		maxConns := cfg.MaxConns
		if maxConns <= 0 {
			maxConns = 10
		}
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(maxConns / 2)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.AutoMigrate(&Game{}, &Run{}, &TierStatus{}); err != nil {
		return nil, fmt.Errorf("migrate catalog schema: %w", err)
	}

	return db, nil
}
