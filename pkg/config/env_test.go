package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOGDIR", "/var/log/aimless")
	t.Setenv("LOGTERM", "1")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AIMLESS_S3_ACCESS_KEY", "")
	t.Setenv("AIMLESS_S3_SECRET_KEY", "")

	env, err := LoadEnv()
	require.NoError(t, err)
	opts := env.LogOptions(false)
	assert.Equal(t, slog.LevelDebug, opts.Level)
	assert.Equal(t, "/var/log/aimless", opts.Dir)
	assert.True(t, opts.Terminal)
}

func TestLoadEnvDotenv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	unset(t, "LOG_LEVEL", "AIMLESS_DB_PASSWORD")
	writeConfig(t, dir, "custom.env", "AIMLESS_DB_PASSWORD=s3cret-password\n")

	env, err := LoadEnv(filepath.Join(dir, "custom.env"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret-password", env.DBPassword)
	assert.Equal(t, "info", env.LogLevel)
}

func TestLoadEnvValidation(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOG_LEVEL", "chatty")
	t.Setenv("AIMLESS_S3_ACCESS_KEY", "key")
	t.Setenv("AIMLESS_S3_SECRET_KEY", "")

	_, err := LoadEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL must be one of")
	assert.Contains(t, err.Error(), "must be set together")
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "<not set>", MaskSecret(""))
	assert.Equal(t, "***", MaskSecret("short"))
	assert.Equal(t, "abcd...mnop", MaskSecret("abcdefghijklmnop"))
}

// unset clears keys for the test; t.Setenv restores them afterwards.
func unset(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}
