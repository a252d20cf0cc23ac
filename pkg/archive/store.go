// Package archive mirrors finished path archives into object storage.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a key has no object.
var ErrNotFound = errors.New("object not found")

// Object describes one stored file.
type Object struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type"`
	LastModified time.Time         `json:"last_modified"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Store is the object storage used for path archives.
type Store interface {
	// Put stores size bytes from r under key. A negative size streams
	// until EOF.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string, metadata map[string]string) (*Object, error)

	// Get opens the object at key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// List returns every object under prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]*Object, error)

	// EnsureBucket creates the backing bucket or directory if needed.
	EnsureBucket(ctx context.Context) error
}

// RunPrefix is the key prefix for everything stored for a run.
func RunPrefix(runID uuid.UUID) string {
	return "runs/" + runID.String() + "/"
}

// PathPrefix is the key prefix for path pnum of a run.
func PathPrefix(runID uuid.UUID, pnum int) string {
	return fmt.Sprintf("%spaths/%02d/", RunPrefix(runID), pnum)
}

// PathKey is the key of one archived file.
func PathKey(runID uuid.UUID, pnum int, name string) string {
	return PathPrefix(runID, pnum) + name
}
