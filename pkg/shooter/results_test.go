package shooter

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quatton/aimless/pkg/alog"
	"github.com/quatton/aimless/pkg/basin"
)

type failingSink struct{ calls int }

func (s *failingSink) Record(context.Context, uuid.UUID, PathResult) error {
	s.calls++
	return errors.New("sink down")
}

func TestSummarize(t *testing.T) {
	results := []PathResult{
		{Path: 1, Forward: basin.A, Backward: basin.B, Accepted: true},
		{Path: 2, Forward: basin.A, Backward: basin.A},
		{Path: 3, Forward: basin.B, Backward: basin.B},
		{Path: 4, Forward: basin.Inconclusive, Backward: basin.B},
		{Path: 5, Forward: basin.B, Backward: basin.A, Accepted: true},
	}
	assert.Equal(t, Summary{Total: 5, Accepted: 2, Rejected: 3, BothA: 1, BothB: 1}, Summarize(results))
	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestResultsAddReplacesAndOrders(t *testing.T) {
	r := NewResults(uuid.New(), nil)
	ctx := context.Background()
	r.Add(ctx, PathResult{Path: 3, Forward: basin.A, Backward: basin.A})
	r.Add(ctx, PathResult{Path: 1, Forward: basin.A, Backward: basin.B, Accepted: true})
	r.Add(ctx, PathResult{Path: 3, Forward: basin.B, Backward: basin.B})

	assert.Equal(t, 2, r.Len())
	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].Path)
	assert.Equal(t, 3, all[1].Path)
	assert.True(t, all[1].BothB())

	_, ok := r.Get(2)
	assert.False(t, ok)
}

func TestResultsSinkFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	sink := &failingSink{}
	r := NewResults(uuid.New(), alog.NewLogger(slog.LevelDebug, &buf), sink)

	r.Add(context.Background(), PathResult{Path: 4})
	assert.Equal(t, 1, sink.calls)
	assert.Equal(t, 1, r.Len())
	assert.Contains(t, buf.String(), "Could not record path result path=4 error=sink down")
}
