package sched

import "time"

// JobID is the numeric identifier the scheduler assigns on submission.
type JobID int

// Status is a point-in-time view of a submitted job.
type Status struct {
	ID        JobID         `json:"id"`
	Name      string        `json:"name,omitempty"`
	Owner     string        `json:"owner,omitempty"`
	State     State         `json:"state"`
	Queue     string        `json:"queue,omitempty"`
	Created   time.Time     `json:"created,omitzero"`
	Queued    time.Time     `json:"queued,omitzero"`
	Started   time.Time     `json:"started,omitzero"`
	Remaining time.Duration `json:"remaining,omitempty"`
	ExecHost  string        `json:"exec_host,omitempty"`
	Version   int           `json:"version,omitempty"`
}

// SubmittedStatus is the status recorded for job right after the
// scheduler accepted it as id.
func SubmittedStatus(job *Job, id JobID) *Status {
	return &Status{
		ID:      id,
		Name:    job.Name,
		Queue:   job.Queue,
		State:   StateSubmitted,
		Created: time.Now(),
		Version: 1,
	}
}

// StartDelta is the time elapsed between the job start and now. Zero if
// the job has not started.
func (s *Status) StartDelta(now time.Time) time.Duration {
	if s.Started.IsZero() {
		return 0
	}
	return now.Sub(s.Started)
}

// Running reports whether any of ids is still in a non-terminal state.
// IDs missing from stats have left the scheduler and count as finished.
func Running(ids []JobID, stats map[JobID]*Status) bool {
	for _, id := range ids {
		st, ok := stats[id]
		if !ok || st == nil {
			continue
		}
		if !st.State.Terminal() {
			return true
		}
	}
	return false
}
