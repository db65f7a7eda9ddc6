package storage

import (
	"context"
	"database/sql"
	"fmt"

	"storal-pricer/internal/storage/migrations"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migration files are compiled in, so "." is the root of migrations.FS.
const migrationsDir = "."

func init() {
	goose.SetBaseFS(migrations.FS)
}

// RunMigrations applies every pending migration.
func RunMigrations(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	return migrate(ctx, db, logger, "storage.RunMigrations", "up", goose.UpContext)
}

// RollbackMigration reverts the most recent migration.
func RollbackMigration(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	return migrate(ctx, db, logger, "storage.RollbackMigration", "down", goose.DownContext)
}

// Status prints the applied and pending migrations through goose's logger.
func Status(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	return migrate(ctx, db, logger, "storage.Status", "status", goose.StatusContext)
}

type migrationFunc func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error

func migrate(ctx context.Context, db *sql.DB, logger *zap.Logger, operation, command string, run migrationFunc) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: failed to set dialect: %w", operation, err)
	}

	before, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("%s: failed to read schema version: %w", operation, err)
	}
	logger.Info("Migrating database schema",
		zap.String("command", command),
		zap.Int64("version", before))

	if err := run(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("%s: goose %s: %w", operation, command, err)
	}

	after, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("%s: failed to read schema version: %w", operation, err)
	}
	if after != before {
		logger.Info("Database schema migrated",
			zap.Int64("from_version", before),
			zap.Int64("to_version", after))
	}
	return nil
}
