package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quatton/aimless/apps/aimless/skeleton"
	"github.com/quatton/aimless/pkg/aerr"
	"github.com/quatton/aimless/pkg/alog"
	"github.com/quatton/aimless/pkg/config"
	"github.com/quatton/aimless/pkg/kv"
	"github.com/quatton/aimless/pkg/localsched"
	"github.com/quatton/aimless/pkg/shooter"
	"github.com/quatton/aimless/pkg/torque"
)

func loadConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	file := filepath.Join(t.TempDir(), "aimless.yaml")
	require.NoError(t, os.WriteFile(file, []byte(body), 0o644))
	cfg, err := config.Load(file)
	require.NoError(t, err)
	return cfg
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOGTERM", "1")
	cfgFile, verbose = "", false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParamsCommand(t *testing.T) {
	file := filepath.Join(t.TempDir(), "aimless.yaml")
	require.NoError(t, os.WriteFile(file, []byte("main:\n  numpaths: 4\n  totalsteps: 2000\n"), 0o644))

	out, err := execute(t, "params", "-c", file)
	require.NoError(t, err)
	assert.Contains(t, out, "numpaths:   4\n")
	assert.Contains(t, out, "fwsteps:    1000 (out 999)\n")
	assert.Contains(t, out, "dtsteps:    20 (out 19)\n")
}

func TestInitCommand(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "proj")
	out, err := execute(t, "init", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "aimless.yaml")
	assert.FileExists(t, filepath.Join(dest, "tpl", "amber_job.tpl"))

	_, err = execute(t, "init", dest)
	assert.ErrorContains(t, err, "refusing to overwrite")
}

func TestNewSchedulerBackends(t *testing.T) {
	log := alog.NewDiscard()

	cfg := loadConfig(t, "main:\n  backend: torque\n")
	s, closeFn, err := newScheduler(cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &torque.Client{}, s)
	assert.NoError(t, closeFn())

	t.Chdir(t.TempDir())
	cfg = loadConfig(t, "main:\n  backend: local\n")
	s, closeFn, err = newScheduler(cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &localsched.Scheduler{}, s)
	assert.NoError(t, closeFn())
}

func TestNewMirror(t *testing.T) {
	ctx := context.Background()
	log := alog.NewDiscard()

	m, err := newMirror(ctx, loadConfig(t, "archive:\n  enabled: false\n"), log)
	require.NoError(t, err)
	assert.Nil(t, m)

	dir := filepath.Join(t.TempDir(), "archive")
	m, err = newMirror(ctx, loadConfig(t, "archive:\n  enabled: true\n  dir: "+dir+"\n"), log)
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestNewPublishersNothingEnabled(t *testing.T) {
	ctx := context.Background()
	p, err := newPublishers(ctx, loadConfig(t, "main:\n  numpaths: 1\n"), alog.NewDiscard())
	require.NoError(t, err)
	assert.Empty(t, p.sinks)
	assert.Nil(t, p.store)
	p.Close(ctx, alog.NewDiscard())
}

// targetProject lays out templates and starting coordinates and returns a
// config whose target directory holds a run in progress.
func targetProject(t *testing.T, lock bool) (*config.Config, string) {
	t.Helper()
	root := t.TempDir()
	_, err := skeleton.CopyTo(root)
	require.NoError(t, err)

	coords := filepath.Join(root, "start.rst")
	require.NoError(t, os.WriteFile(coords, []byte("starting coordinates"), 0o644))
	tgt := filepath.Join(root, "work")
	require.NoError(t, os.MkdirAll(tgt, 0o755))

	body := fmt.Sprintf("main:\n  tpldir: %s\n  tgtdir: %s\n  coordinates: %s\n  topology: sys.prmtop\n"+
		"results:\n  lock: %t\n  ttl: 1h\n", filepath.Join(root, "tpl"), tgt, coords, lock)
	return loadConfig(t, body), tgt
}

func TestPrepareTargetLockedLeavesDirectoryAlone(t *testing.T) {
	ctx := context.Background()
	cfg, tgt := targetProject(t, true)
	store := kv.NewMemoryStore()

	liveRun := uuid.New()
	_, err := shooter.LockDir(ctx, store, tgt, liveRun, time.Hour)
	require.NoError(t, err)
	slots := shooter.NewSlots(tgt)
	require.NoError(t, os.WriteFile(slots.X1, []byte("accepted origin"), 0o644))
	require.NoError(t, os.WriteFile(slots.X2, []byte("accepted post-dt"), 0o644))

	p := &publishers{kv: store}
	err = prepareTarget(ctx, cfg, p, uuid.New())
	require.ErrorIs(t, err, shooter.ErrDirLocked)
	assert.Nil(t, p.release)

	x1, err := os.ReadFile(slots.X1)
	require.NoError(t, err)
	assert.Equal(t, "accepted origin", string(x1))
	x2, err := os.ReadFile(slots.X2)
	require.NoError(t, err)
	assert.Equal(t, "accepted post-dt", string(x2))
	assert.NoFileExists(t, filepath.Join(tgt, "inforward.in"))

	held, err := store.Get(ctx, shooter.LockKey(tgt))
	require.NoError(t, err)
	assert.Equal(t, liveRun.String(), string(held))
}

func TestPrepareTargetClaimsAndSeeds(t *testing.T) {
	ctx := context.Background()
	cfg, tgt := targetProject(t, true)
	store := kv.NewMemoryStore()
	runID := uuid.New()

	p := &publishers{kv: store}
	require.NoError(t, prepareTarget(ctx, cfg, p, runID))
	require.NotNil(t, p.release)

	slots := shooter.NewSlots(tgt)
	x1, err := os.ReadFile(slots.X1)
	require.NoError(t, err)
	assert.Equal(t, "starting coordinates", string(x1))
	assert.FileExists(t, filepath.Join(tgt, "inforward.in"))

	held, err := store.Get(ctx, shooter.LockKey(tgt))
	require.NoError(t, err)
	assert.Equal(t, runID.String(), string(held))

	p.Close(ctx, alog.NewDiscard())
	_, err = store.Get(ctx, shooter.LockKey(tgt))
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestPrepareTargetLockNeedsStore(t *testing.T) {
	cfg, _ := targetProject(t, true)
	err := prepareTarget(context.Background(), cfg, &publishers{}, uuid.New())
	assert.True(t, aerr.IsCode(err, aerr.CodeConfig))
}

func TestPrepareTargetNeedsSlots(t *testing.T) {
	cfg, tgt := targetProject(t, false)
	cfg.Main.Coordinates = ""

	err := prepareTarget(context.Background(), cfg, &publishers{}, uuid.New())
	require.Error(t, err)
	assert.True(t, aerr.IsCode(err, aerr.CodeEnvironment))
	assert.Contains(t, err.Error(), "main.coordinates")
	assert.FileExists(t, filepath.Join(tgt, "inforward.in"))
}
