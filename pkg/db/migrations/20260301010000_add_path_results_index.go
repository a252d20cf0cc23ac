package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw("CREATE UNIQUE INDEX IF NOT EXISTS aimless_path_results_run_path_idx ON aimless.path_results (run_id, path)").Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw("DROP INDEX IF EXISTS aimless.aimless_path_results_run_path_idx").Exec(ctx)
		return err
	})
}
