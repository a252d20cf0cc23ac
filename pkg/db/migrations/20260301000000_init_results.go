package migrations

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/quatton/aimless/pkg/db/models"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		if _, err := db.NewRaw("CREATE SCHEMA IF NOT EXISTS aimless").Exec(ctx); err != nil {
			return err
		}

		if _, err := db.NewCreateTable().
			Model((*models.Run)(nil)).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}

		_, err := db.NewCreateTable().
			Model((*models.PathResult)(nil)).
			IfNotExists().
			ForeignKey(`("run_id") REFERENCES aimless.runs ("id") ON DELETE CASCADE`).
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		if _, err := db.NewDropTable().Model((*models.PathResult)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewDropTable().Model((*models.Run)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}
		_, err := db.NewRaw("DROP SCHEMA IF EXISTS aimless").Exec(ctx)
		return err
	})
}
