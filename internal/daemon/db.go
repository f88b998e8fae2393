package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/catalog-admin/catalog-admin/internal/config"
	"github.com/catalog-admin/catalog-admin/internal/db/dsn"
	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/db/tenant"
	gormlogger "github.com/catalog-admin/catalog-admin/internal/logger/adapter/gorm"
)

func dialector(cfg *config.DB) gorm.Dialector {
	switch cfg.GormEngine {
	case config.EngineMySQL:
		return mysql.Open(dsn.Create(cfg))
	case config.EnginePostgres:
		return postgres.Open(dsn.Create(cfg))
	default:
		return sqlite.Open(dsn.Create(cfg))
	}
}

func openDB(cfg *config.DB, slow time.Duration) (*gorm.DB, error) {
	db, err := gorm.Open(dialector(cfg), &gorm.Config{
		Logger:         gormlogger.New(slow),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database (%s): %w", cfg.GormEngine, err)
	}

	if cfg.GormEngine == config.EngineSQLite || cfg.GormEngine == "" {
		// one writer, sqlite locks the whole file
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}

		sqlDB.SetMaxOpenConns(1)
	}

	log.Info().Str("engine", db.Dialector.Name()).Msg("database connected")

	return db, nil
}

// migrate creates the tables in schema, the connection default if empty.
func migrate(ctx context.Context, db *gorm.DB, schema string) error {
	if schema == "" {
		if err := db.AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		return nil
	}

	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(`CREATE SCHEMA IF NOT EXISTS "` + schema + `"`).Error; err != nil {
			return fmt.Errorf("create schema %s: %w", schema, err)
		}
	}

	if err := tenant.Transaction(ctx, db, func(tx *gorm.DB) error {
		return tx.AutoMigrate(models.All()...)
	}); err != nil {
		return fmt.Errorf("failed to migrate schema %s: %w", schema, err)
	}

	return nil
}
