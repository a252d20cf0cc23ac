package shooter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/quatton/aimless/pkg/aerr"
	"github.com/quatton/aimless/pkg/alog"
)

// PathDir is the archive directory for path pnum under tgtDir.
func PathDir(tgtDir string, pnum int) string {
	return filepath.Join(tgtDir, OutDir, fmt.Sprintf("%02d", pnum))
}

// Archive moves the generated files of path pnum into its archive
// directory and returns that directory. Files that cannot be moved are
// logged and left behind.
func Archive(tgtDir string, pnum int, log *alog.Logger) (string, error) {
	dir := PathDir(tgtDir, pnum)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", aerr.Newf(aerr.CodeEnvironment, "create archive directory %s: %w", dir, err)
	}
	for _, name := range GeneratedFiles {
		if err := moveFile(filepath.Join(tgtDir, name), filepath.Join(dir, name)); err != nil {
			log.Warn(fmt.Sprintf("Could not archive '%s': %v", name, err), "path", pnum)
		}
	}
	return dir, nil
}

// moveFile renames src to dst, copying across filesystems when a rename
// is not possible.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if _, statErr := os.Stat(src); statErr != nil {
		return err
	}
	if cerr := copyFile(src, dst); cerr != nil {
		return cerr
	}
	return os.Remove(src)
}
