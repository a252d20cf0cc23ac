// Package schedtest provides a scripted sched.Scheduler for tests.
package schedtest

import (
	"context"
	"errors"
	"sync"

	"github.com/quatton/aimless/pkg/sched"
)

// ErrScriptExhausted is returned once a scripted sequence runs out.
var ErrScriptExhausted = errors.New("schedtest: script exhausted")

// Scheduler replays scripted submission IDs and status responses.
type Scheduler struct {
	mu        sync.Mutex
	ids       []sched.JobID
	responses []map[sched.JobID]*sched.Status

	// OnSubmit, if set, runs after each accepted submission.
	OnSubmit func(job *sched.Job, id sched.JobID) error

	Submitted []*sched.Job
	StatCalls int
	StatIDs   [][]sched.JobID
}

// New returns a Scheduler that hands out ids in order and answers Stat
// calls with responses in order.
func New(ids []sched.JobID, responses ...map[sched.JobID]*sched.Status) *Scheduler {
	return &Scheduler{ids: ids, responses: responses}
}

func (s *Scheduler) Submit(_ context.Context, job *sched.Job) (sched.JobID, error) {
	s.mu.Lock()
	if len(s.ids) == 0 {
		s.mu.Unlock()
		return 0, ErrScriptExhausted
	}
	id := s.ids[0]
	s.ids = s.ids[1:]
	s.Submitted = append(s.Submitted, job)
	hook := s.OnSubmit
	s.mu.Unlock()

	if hook != nil {
		if err := hook(job, id); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (s *Scheduler) Stat(_ context.Context, ids []sched.JobID) (map[sched.JobID]*sched.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StatCalls++
	s.StatIDs = append(s.StatIDs, append([]sched.JobID(nil), ids...))
	if len(s.responses) == 0 {
		return nil, ErrScriptExhausted
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	if resp == nil {
		resp = map[sched.JobID]*sched.Status{}
	}
	return resp, nil
}

// Calls returns the number of Stat calls so far.
func (s *Scheduler) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.StatCalls
}

// St is shorthand for a status in the given state.
func St(id sched.JobID, state sched.State) *sched.Status {
	return &sched.Status{ID: id, State: state}
}

// Resp builds a status response from id/state pairs.
func Resp(pairs ...any) map[sched.JobID]*sched.Status {
	out := make(map[sched.JobID]*sched.Status, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		id := sched.JobID(pairs[i].(int))
		out[id] = St(id, pairs[i+1].(sched.State))
	}
	return out
}
