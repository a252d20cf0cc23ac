package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quatton/aimless/pkg/alog"
	"github.com/quatton/aimless/pkg/basin"
	"github.com/quatton/aimless/pkg/db/models"
	"github.com/quatton/aimless/pkg/shooter"
)

func TestConnString(t *testing.T) {
	cfg := Config{Host: "db", Port: 5433, User: "u", Password: "p", Database: "runs", SSLMode: "require"}
	assert.Equal(t, "postgres://u:p@db:5433/runs?sslmode=require", cfg.ConnString())

	cfg.DSN = "postgres://other/db"
	assert.Equal(t, "postgres://other/db", cfg.ConnString())
}

func TestModelConversion(t *testing.T) {
	runID := uuid.New()
	res := shooter.PathResult{
		Path:       4,
		Forward:    basin.B,
		Backward:   basin.A,
		ForwardRC:  basin.Coordinates{RC1: 1.5, RC2: 4.0},
		BackwardRC: basin.Coordinates{RC1: 3.1, RC2: 0.2},
		Accepted:   true,
		FinishedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	row := ToModel(runID, res)
	assert.Equal(t, runID, row.RunID)
	assert.Equal(t, "B", row.Forward)
	assert.Equal(t, 0.2, row.RC2Back)
	assert.Equal(t, res, FromModel(row))
}

func TestStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("AIMLESS_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("AIMLESS_TEST_DB_DSN not set")
	}
	ctx := context.Background()
	database, err := New(ctx, Config{DSN: dsn})
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, Migrate(ctx, database, alog.NewDiscard()))

	store := NewStore(database)
	runID := uuid.New()
	require.NoError(t, store.StartRun(ctx, &models.Run{ID: runID, TgtDir: "/work", Backend: "torque", NumPaths: 2, TotalSteps: 1000}))

	first := shooter.PathResult{Path: 1, Forward: basin.A, Backward: basin.A, FinishedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, store.Record(ctx, runID, first))
	first.Backward = basin.B
	first.Accepted = true
	require.NoError(t, store.Record(ctx, runID, first))
	require.NoError(t, store.Record(ctx, runID, shooter.PathResult{Path: 2, Forward: basin.Inconclusive, Backward: basin.B, FinishedAt: first.FinishedAt}))

	results, err := store.Results(ctx, runID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, basin.B, results[0].Backward)
	assert.True(t, results[0].Accepted)
	assert.Equal(t, 2, results[1].Path)

	require.NoError(t, store.FinishRun(ctx, runID, shooter.Summarize(results), time.Now(), nil))
	run, err := store.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Accepted)
	assert.Equal(t, 1, run.Rejected)
	assert.False(t, run.FinishedAt.IsZero())
}
