package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/quatton/aimless/pkg/alog"
)

// Mirror uploads archived path directories to a Store.
type Mirror struct {
	store Store
	log   *alog.Logger
}

func NewMirror(store Store, log *alog.Logger) *Mirror {
	if log == nil {
		log = alog.NewDiscard()
	}
	return &Mirror{store: store, log: log}
}

// MirrorPath uploads every regular file directly inside dir under
// PathPrefix(runID, pnum). It stops at the first failed upload.
func (m *Mirror) MirrorPath(ctx context.Context, runID uuid.UUID, pnum int, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read archive %s: %w", dir, err)
	}
	meta := map[string]string{
		"run-id": runID.String(),
		"path":   strconv.Itoa(pnum),
	}
	uploaded := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := m.upload(ctx, PathKey(runID, pnum, e.Name()), filepath.Join(dir, e.Name()), meta); err != nil {
			return err
		}
		uploaded++
	}
	m.log.Debug("Mirrored path archive", "path", pnum, "files", uploaded, "prefix", PathPrefix(runID, pnum))
	return nil
}

func (m *Mirror) upload(ctx context.Context, key, src string, meta map[string]string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if _, err := m.store.Put(ctx, key, f, info.Size(), ContentType(src), meta); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// ContentType guesses a MIME type from an MD file name.
func ContentType(name string) string {
	switch filepath.Ext(name) {
	case ".out", ".dat", ".rst", ".in", ".txt", ".csv":
		return "text/plain"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
