// Package skeleton holds the starter project written by `aimless init`.
package skeleton

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/quatton/aimless/pkg/aerr"
)

//go:embed files
var files embed.FS

// FS is the skeleton tree rooted at its top directory.
func FS() fs.FS {
	sub, err := fs.Sub(files, "files")
	if err != nil {
		panic(err)
	}
	return sub
}

// CopyTo writes the skeleton into dest and returns the files written.
// Nothing is written when any target file already exists.
func CopyTo(dest string) ([]string, error) {
	tree := FS()

	var names []string
	err := fs.WalkDir(tree, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		names = append(names, name)
		return nil
	})
	if err != nil {
		return nil, aerr.Newf(aerr.CodeEnvironment, "reading skeleton: %w", err)
	}

	for _, name := range names {
		target := filepath.Join(dest, filepath.FromSlash(name))
		if _, err := os.Stat(target); err == nil {
			return nil, aerr.Newf(aerr.CodeEnvironment, "refusing to overwrite %s", target)
		}
	}

	written := make([]string, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(tree, name)
		if err != nil {
			return written, aerr.Newf(aerr.CodeEnvironment, "reading skeleton file %s: %w", name, err)
		}
		target := filepath.Join(dest, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return written, aerr.Newf(aerr.CodeEnvironment, "creating %s: %w", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return written, aerr.Newf(aerr.CodeEnvironment, "writing %s: %w", target, err)
		}
		written = append(written, target)
	}
	return written, nil
}
