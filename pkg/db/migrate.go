package db

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/quatton/aimless/pkg/alog"
	"github.com/quatton/aimless/pkg/db/migrations"
)

func newMigrator(db *bun.DB) *migrate.Migrator {
	return migrate.NewMigrator(db, migrations.Migrations)
}

// Init creates the migration bookkeeping tables.
func Init(ctx context.Context, db *bun.DB) error {
	if err := newMigrator(db).Init(ctx); err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	return nil
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *bun.DB, log *alog.Logger) error {
	migrator := newMigrator(db)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	if group.IsZero() {
		log.Info("Database is up to date")
		return nil
	}
	log.Info(fmt.Sprintf("Migrated to %s", group))
	return nil
}

// Rollback reverts the last applied migration group.
func Rollback(ctx context.Context, db *bun.DB, log *alog.Logger) error {
	group, err := newMigrator(db).Rollback(ctx)
	if err != nil {
		return fmt.Errorf("failed to rollback: %w", err)
	}
	if group.IsZero() {
		log.Info("Nothing to roll back")
		return nil
	}
	log.Info(fmt.Sprintf("Rolled back %s", group))
	return nil
}

// Status logs applied and pending migrations.
func Status(ctx context.Context, db *bun.DB, log *alog.Logger) error {
	ms, err := newMigrator(db).MigrationsWithStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	log.Info(fmt.Sprintf("migrations: %s", ms))
	log.Info(fmt.Sprintf("unapplied migrations: %s", ms.Unapplied()))
	log.Info(fmt.Sprintf("last migration group: %s", ms.LastGroup()))
	return nil
}
