package shooter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/quatton/aimless/pkg/aerr"
	"github.com/quatton/aimless/pkg/kv"
)

const keyPrefix = "aimless"

// PathKey is the kv key holding the result of path pnum in run runID.
func PathKey(runID uuid.UUID, pnum int) string {
	return fmt.Sprintf("%s:runs:%s:paths:%02d", keyPrefix, runID, pnum)
}

// KVSink publishes each path result as JSON under PathKey.
type KVSink struct {
	store kv.Store
	ttl   time.Duration
}

// NewKVSink returns a sink writing to store. A zero ttl keeps results
// until deleted.
func NewKVSink(store kv.Store, ttl time.Duration) *KVSink {
	return &KVSink{store: store, ttl: ttl}
}

func (s *KVSink) Record(ctx context.Context, runID uuid.UUID, res PathResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode path %d: %w", res.Path, err)
	}
	return s.store.Set(ctx, PathKey(runID, res.Path), data, s.ttl)
}

// LoadPath reads a result published by KVSink.
func LoadPath(ctx context.Context, store kv.Store, runID uuid.UUID, pnum int) (PathResult, error) {
	data, err := store.Get(ctx, PathKey(runID, pnum))
	if err != nil {
		return PathResult{}, err
	}
	var res PathResult
	if err := json.Unmarshal(data, &res); err != nil {
		return PathResult{}, fmt.Errorf("decode path %d: %w", pnum, err)
	}
	return res, nil
}

var _ Sink = (*KVSink)(nil)

// ErrDirLocked is returned when another run holds the working directory.
var ErrDirLocked = errors.New("working directory is in use by another run")

// LockKey is the kv key guarding tgtDir.
func LockKey(tgtDir string) string {
	abs, err := filepath.Abs(tgtDir)
	if err != nil {
		abs = tgtDir
	}
	return fmt.Sprintf("%s:lock:%s", keyPrefix, abs)
}

// LockDir claims tgtDir for runID until the returned release is called or
// ttl passes.
func LockDir(ctx context.Context, store kv.Store, tgtDir string, runID uuid.UUID, ttl time.Duration) (func(context.Context) error, error) {
	key := LockKey(tgtDir)
	ok, err := store.SetNX(ctx, key, []byte(runID.String()), ttl)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", tgtDir, err)
	}
	if !ok {
		holder, _ := store.Get(ctx, key)
		return nil, aerr.Newf(aerr.CodeEnvironment, "%s: %w (run %s)", tgtDir, ErrDirLocked, holder)
	}
	return func(ctx context.Context) error {
		held, err := store.Get(ctx, key)
		if errors.Is(err, kv.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if string(held) != runID.String() {
			return nil
		}
		return store.Delete(ctx, key)
	}, nil
}
