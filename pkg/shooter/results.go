package shooter

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quatton/aimless/pkg/alog"
	"github.com/quatton/aimless/pkg/basin"
)

// PathResult is the classified outcome of one path.
type PathResult struct {
	Path       int               `json:"path"`
	Forward    basin.Label       `json:"forward"`
	Backward   basin.Label       `json:"backward"`
	ForwardRC  basin.Coordinates `json:"forward_rc"`
	BackwardRC basin.Coordinates `json:"backward_rc"`
	Accepted   bool              `json:"accepted"`
	FinishedAt time.Time         `json:"finished_at"`
}

// BothA reports whether both halves fell back into basin A.
func (r PathResult) BothA() bool { return r.Forward == basin.A && r.Backward == basin.A }

// BothB reports whether both halves fell back into basin B.
func (r PathResult) BothB() bool { return r.Forward == basin.B && r.Backward == basin.B }

// Summary counts path outcomes.
type Summary struct {
	Total    int `json:"total"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	BothA    int `json:"both_a"`
	BothB    int `json:"both_b"`
}

// Sink receives every recorded path result.
type Sink interface {
	Record(ctx context.Context, runID uuid.UUID, res PathResult) error
}

// Results collects path results for a run. Safe for concurrent readers.
type Results struct {
	mu    sync.RWMutex
	runID uuid.UUID
	paths map[int]PathResult
	sinks []Sink
	log   *alog.Logger
}

func NewResults(runID uuid.UUID, log *alog.Logger, sinks ...Sink) *Results {
	if log == nil {
		log = alog.NewDiscard()
	}
	return &Results{
		runID: runID,
		paths: make(map[int]PathResult),
		sinks: sinks,
		log:   log,
	}
}

// RunID identifies the run the results belong to.
func (r *Results) RunID() uuid.UUID { return r.runID }

// Add stores res, replacing any earlier result for the same path, and
// forwards it to the sinks. Sink failures are logged, not returned.
func (r *Results) Add(ctx context.Context, res PathResult) {
	r.mu.Lock()
	r.paths[res.Path] = res
	sinks := r.sinks
	r.mu.Unlock()

	for _, s := range sinks {
		if err := s.Record(ctx, r.runID, res); err != nil {
			r.log.Warn("Could not record path result", "path", res.Path, "error", err)
		}
	}
}

// Get returns the result for path.
func (r *Results) Get(path int) (PathResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.paths[path]
	return res, ok
}

// All returns the results ordered by path number.
func (r *Results) All() []PathResult {
	r.mu.RLock()
	out := make([]PathResult, 0, len(r.paths))
	for _, res := range r.paths {
		out = append(out, res)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Len returns the number of recorded paths.
func (r *Results) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.paths)
}

// Summary tallies the recorded results.
func (r *Results) Summary() Summary {
	return Summarize(r.All())
}

// Summarize tallies results.
func Summarize(results []PathResult) Summary {
	var s Summary
	for _, res := range results {
		s.Total++
		if res.Accepted {
			s.Accepted++
		}
		switch {
		case res.BothA():
			s.BothA++
		case res.BothB():
			s.BothB++
		}
	}
	s.Rejected = s.Total - s.Accepted
	return s
}
