package shooter

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quatton/aimless/pkg/alog"
)

func TestArchive(t *testing.T) {
	tgt := t.TempDir()
	for _, name := range GeneratedFiles {
		writeFile(t, filepath.Join(tgt, name), name)
	}
	writeFile(t, filepath.Join(tgt, X1Restart), "slot")

	dir, err := Archive(tgt, 5, alog.NewDiscard())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tgt, "output", "05"), dir)
	for _, name := range GeneratedFiles {
		assert.Equal(t, name, readFile(t, filepath.Join(dir, name)))
		assert.NoFileExists(t, filepath.Join(tgt, name))
	}
	assert.FileExists(t, filepath.Join(tgt, X1Restart))
}

func TestArchiveSkipsUnmovable(t *testing.T) {
	tgt := t.TempDir()
	writeFile(t, filepath.Join(tgt, ForwardOutput), "fwd")
	writeFile(t, filepath.Join(tgt, DTOutput), "dt")

	// A non-empty directory squatting on the destination name.
	blocked := filepath.Join(PathDir(tgt, 12), ForwardOutput)
	require.NoError(t, os.MkdirAll(blocked, 0o755))
	writeFile(t, filepath.Join(blocked, "keep"), "x")

	var buf bytes.Buffer
	dir, err := Archive(tgt, 12, alog.NewLogger(slog.LevelDebug, &buf))
	require.NoError(t, err)

	assert.Equal(t, "dt", readFile(t, filepath.Join(dir, DTOutput)))
	assert.Equal(t, "fwd", readFile(t, filepath.Join(tgt, ForwardOutput)))
	assert.Contains(t, buf.String(), "WARN - Could not archive 'forward.out'")
	// Missing files are reported too but do not stop the archive.
	assert.Contains(t, buf.String(), "Could not archive 'starter.out'")
}
