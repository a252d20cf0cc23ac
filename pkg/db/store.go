package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/quatton/aimless/pkg/basin"
	"github.com/quatton/aimless/pkg/db/models"
	"github.com/quatton/aimless/pkg/shooter"
)

// Store records runs and their path results.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// StartRun inserts or refreshes the run row.
func (s *Store) StartRun(ctx context.Context, run *models.Run) error {
	_, err := s.db.NewInsert().
		Model(run).
		On("CONFLICT (id) DO UPDATE").
		Set("tgt_dir = EXCLUDED.tgt_dir").
		Set("backend = EXCLUDED.backend").
		Set("num_paths = EXCLUDED.num_paths").
		Set("total_steps = EXCLUDED.total_steps").
		Exec(ctx)
	return err
}

// FinishRun stores the final tally of a run. A non-nil runErr marks the
// run as failed.
func (s *Store) FinishRun(ctx context.Context, runID uuid.UUID, sum shooter.Summary, finishedAt time.Time, runErr error) error {
	run := &models.Run{ID: runID, Accepted: sum.Accepted, Rejected: sum.Rejected, FinishedAt: finishedAt}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	_, err := s.db.NewUpdate().
		Model(run).
		Column("accepted", "rejected", "finished_at", "error").
		WherePK().
		Exec(ctx)
	return err
}

// GetRun loads one run row.
func (s *Store) GetRun(ctx context.Context, runID uuid.UUID) (*models.Run, error) {
	run := new(models.Run)
	if err := s.db.NewSelect().Model(run).Where("id = ?", runID).Scan(ctx); err != nil {
		return nil, err
	}
	return run, nil
}

// Record upserts one path result.
func (s *Store) Record(ctx context.Context, runID uuid.UUID, res shooter.PathResult) error {
	row := ToModel(runID, res)
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (run_id, path) DO UPDATE").
		Set("forward = EXCLUDED.forward").
		Set("backward = EXCLUDED.backward").
		Set("rc1_fwd = EXCLUDED.rc1_fwd").
		Set("rc2_fwd = EXCLUDED.rc2_fwd").
		Set("rc1_back = EXCLUDED.rc1_back").
		Set("rc2_back = EXCLUDED.rc2_back").
		Set("accepted = EXCLUDED.accepted").
		Set("finished_at = EXCLUDED.finished_at").
		Exec(ctx)
	return err
}

// Results returns the path results of a run ordered by path.
func (s *Store) Results(ctx context.Context, runID uuid.UUID) ([]shooter.PathResult, error) {
	var rows []models.PathResult
	if err := s.db.NewSelect().
		Model(&rows).
		Where("run_id = ?", runID).
		Order("path ASC").
		Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]shooter.PathResult, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

var _ shooter.Sink = (*Store)(nil)

// ToModel converts a path result into its row.
func ToModel(runID uuid.UUID, res shooter.PathResult) *models.PathResult {
	return &models.PathResult{
		RunID:      runID,
		Path:       res.Path,
		Forward:    string(res.Forward),
		Backward:   string(res.Backward),
		RC1Fwd:     res.ForwardRC.RC1,
		RC2Fwd:     res.ForwardRC.RC2,
		RC1Back:    res.BackwardRC.RC1,
		RC2Back:    res.BackwardRC.RC2,
		Accepted:   res.Accepted,
		FinishedAt: res.FinishedAt,
	}
}

// FromModel converts a row back into a path result.
func FromModel(row *models.PathResult) shooter.PathResult {
	return shooter.PathResult{
		Path:       row.Path,
		Forward:    basin.Label(row.Forward),
		Backward:   basin.Label(row.Backward),
		ForwardRC:  basin.Coordinates{RC1: row.RC1Fwd, RC2: row.RC2Fwd},
		BackwardRC: basin.Coordinates{RC1: row.RC1Back, RC2: row.RC2Back},
		Accepted:   row.Accepted,
		FinishedAt: row.FinishedAt,
	}
}
