package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quatton/aimless/pkg/aerr"
	"github.com/quatton/aimless/pkg/basin"
)

const sampleConfig = `
main:
  numpaths: 20
  totalsteps: 1000
  tpldir: tpl
  tgtdir: run
  topology: cel6a.prmtop
  coordinates: start.rst
  waitsecs: 30
  sander: /opt/amber/bin/sander
jobs:
  queue: long
  numnodes: 2
  walltime: "24:00:00"
  modules: amber/12
basins:
  rc1loa: 2.75
  rc1hia: 10.0
  rc2loa: 0.0
  rc2hia: 1.9
  rc1lob: 0.0
  rc1hib: 2.0
  rc2lob: 3.0
  rc2hib: 10.0
results:
  ttl: 2h
`

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadExplicitFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "custom.yaml", sampleConfig)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, path, cfg.ConfigFileUsed())

	assert.Equal(t, 20, cfg.Main.NumPaths)
	assert.Equal(t, "cel6a.prmtop", cfg.Main.Topology)
	assert.Equal(t, 30*time.Second, cfg.WaitInterval())
	assert.Equal(t, BackendTorque, cfg.Main.Backend)
	assert.Equal(t, "qsub", cfg.Main.Qsub)
	assert.Equal(t, basin.Bounds{
		RC1LoA: 2.75, RC1HiA: 10, RC2LoA: 0, RC2HiA: 1.9,
		RC1LoB: 0, RC1HiB: 2, RC2LoB: 3, RC2HiB: 10,
	}, cfg.Basins)
	assert.Equal(t, 2*time.Hour, cfg.Results.TTL)
	assert.Equal(t, "2", cfg.Jobs["numnodes"])

	jobs, err := cfg.JobParams()
	require.NoError(t, err)
	assert.Equal(t, "long", jobs.Queue)
	assert.Equal(t, 2, jobs.NumNodes)
	assert.Equal(t, "amber/12", jobs.Extra["modules"])

	sc, err := cfg.ShooterConfig()
	require.NoError(t, err)
	assert.Equal(t, "run", sc.TgtDir)
	assert.Equal(t, cfg.Basins, sc.Bounds)
}

func TestLoadFromWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, "aimless.yml", sampleConfig)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "aimless.yml", cfg.ConfigFileUsed())
	assert.Equal(t, 20, cfg.Main.NumPaths)
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Main.NumPaths)
	assert.Equal(t, 1000, cfg.Main.TotalSteps)
	assert.Equal(t, "aimless_results.txt", cfg.Main.TextReport)
	assert.Equal(t, "aimless_results.csv", cfg.Main.CSVReport)
	assert.Equal(t, 10, cfg.Main.WaitSecs)
	assert.Equal(t, 168*time.Hour, cfg.Results.TTL)
	assert.Equal(t, "default", cfg.Kube.Namespace)
	assert.NotNil(t, cfg.Jobs)
}

func TestEnvOverride(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "aimless.yaml", sampleConfig)
	t.Setenv("AIMLESS_MAIN_NUMPATHS", "3")
	t.Setenv("AIMLESS_MAIN_BACKEND", "local")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Main.NumPaths)
	assert.Equal(t, BackendLocal, cfg.Main.Backend)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, aerr.IsCode(err, aerr.CodeConfig))
}

func TestValidateCollectsProblems(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Main.NumPaths = 0
	cfg.Main.Backend = "slurm"
	cfg.Jobs["numnodes"] = "many"

	err = cfg.Validate()
	require.Error(t, err)
	assert.True(t, aerr.IsCode(err, aerr.CodeConfig))
	msg := err.Error()
	assert.Contains(t, msg, "main.numpaths must be at least 1")
	assert.Contains(t, msg, "main.topology is required")
	assert.Contains(t, msg, `main.backend "slurm"`)
	assert.Contains(t, msg, "invalid basin bounds")
	assert.Contains(t, msg, "jobs.numnodes")
}

func TestValidateKubeNeedsImage(t *testing.T) {
	cfg, err := Load(writeConfig(t, t.TempDir(), "a.yaml", sampleConfig))
	require.NoError(t, err)
	cfg.Main.Backend = BackendKube
	assert.ErrorContains(t, cfg.Validate(), "kube.image is required")
	cfg.Kube.Image = "amber:12"
	assert.NoError(t, cfg.Validate())
}

func TestTemplateParams(t *testing.T) {
	cfg, err := Load(writeConfig(t, t.TempDir(), "a.yaml", sampleConfig))
	require.NoError(t, err)

	params := cfg.TemplateParams()
	assert.Equal(t, "cel6a.prmtop", params["topology"])
	assert.Equal(t, "/opt/amber/bin/sander", params["sander"])
	assert.Equal(t, "long", params["queue"])
	assert.Equal(t, "500", params["fwsteps"])
	assert.Equal(t, "9", params["dtout"])
	assert.Equal(t, "20", params["numpaths"])
	assert.Equal(t, "aimless_results.csv", params["csv_report"])
}

func TestApplyEnv(t *testing.T) {
	cfg := &Config{}
	cfg.Archive.S3.AccessKey = "from-file"
	cfg.ApplyEnv(&EnvConfig{S3AccessKey: "env-key", S3SecretKey: "env-secret", DBPassword: "pw"})
	assert.Equal(t, "from-file", cfg.Archive.S3.AccessKey)
	assert.Equal(t, "env-secret", cfg.Archive.S3.SecretKey)
	assert.Equal(t, "pw", cfg.Results.DB.Password)
}
