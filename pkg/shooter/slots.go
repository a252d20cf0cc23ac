package shooter

import (
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"

	"github.com/quatton/aimless/pkg/aerr"
)

// Slots are the two shooting-point restart files that seed each path.
// Accept is the only mutator.
type Slots struct {
	mu sync.Mutex
	X1 string
	X2 string
}

// NewSlots returns the slot pair inside tgtDir.
func NewSlots(tgtDir string) *Slots {
	return &Slots{
		X1: filepath.Join(tgtDir, X1Restart),
		X2: filepath.Join(tgtDir, X2Restart),
	}
}

// Choose picks one slot with equal probability.
func (s *Slots) Choose(rng *rand.Rand) string {
	if rng.IntN(2) == 1 {
		return s.X1
	}
	return s.X2
}

// Accept promotes an accepted path: the origin that seeded it becomes
// slot 1 and the post-DT restart becomes slot 2.
func (s *Slots) Accept(origin, postDT string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := copyFile(origin, s.X1); err != nil {
		return err
	}
	return copyFile(postDT, s.X2)
}

// InitDir seeds both slots in tgtDir with the starting coordinates.
func InitDir(tgtDir, coords string) error {
	if err := os.MkdirAll(tgtDir, 0o755); err != nil {
		return aerr.Newf(aerr.CodeEnvironment, "create target directory %s: %w", tgtDir, err)
	}
	slots := NewSlots(tgtDir)
	if err := copyFile(coords, slots.X1); err != nil {
		return err
	}
	return copyFile(coords, slots.X2)
}

// Check reports a missing slot as an environment error naming
// main.coordinates, which seeds a fresh directory.
func (s *Slots) Check() error {
	for _, slot := range []string{s.X1, s.X2} {
		if _, err := os.Stat(slot); err != nil {
			return aerr.Newf(aerr.CodeEnvironment, "shooting point %s is missing; set main.coordinates to seed it: %w", slot, err)
		}
	}
	return nil
}

// copyFile copies src over dst keeping mode and modification time. Copying
// a file onto itself does nothing.
func copyFile(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return aerr.Newf(aerr.CodeEnvironment, "copy %s: %w", src, err)
	}
	if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(srcInfo, dstInfo) {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return aerr.Newf(aerr.CodeEnvironment, "copy %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return aerr.Newf(aerr.CodeEnvironment, "copy %s to %s: %w", src, dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return aerr.Newf(aerr.CodeEnvironment, "copy %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return aerr.Newf(aerr.CodeEnvironment, "copy %s to %s: %w", src, dst, err)
	}
	_ = os.Chmod(dst, srcInfo.Mode().Perm())
	_ = os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())
	return nil
}

// copyInto copies src into dir under its own base name.
func copyInto(src, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return aerr.Newf(aerr.CodeEnvironment, "create %s: %w", dir, err)
	}
	return copyFile(src, filepath.Join(dir, filepath.Base(src)))
}
