package shooter

import "time"

// Phase names the step a path is in.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseChooseOrigin    Phase = "choose_origin"
	PhaseStarter         Phase = "run_starter"
	PhaseReverse         Phase = "reverse_velocities"
	PhaseDT              Phase = "run_dt"
	PhaseForwardBackward Phase = "run_forward_backward"
	PhaseClassify        Phase = "classify"
	PhaseDecide          Phase = "decide"
	PhaseArchive         Phase = "archive"
	PhaseDone            Phase = "done"
	PhaseFailed          Phase = "failed"
)

// Progress is a snapshot of where a run is.
type Progress struct {
	RunID     string    `json:"run_id"`
	NumPaths  int       `json:"num_paths"`
	Path      int       `json:"path"`
	Phase     Phase     `json:"phase"`
	StartedAt time.Time `json:"started_at,omitzero"`
	Error     string    `json:"error,omitempty"`
}

// Progress returns the current run position.
func (s *Shooter) Progress() Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

func (s *Shooter) setPhase(pnum int, phase Phase) {
	s.mu.Lock()
	s.progress.Path = pnum
	s.progress.Phase = phase
	s.mu.Unlock()
}

func (s *Shooter) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.progress.Phase = PhaseFailed
		s.progress.Error = err.Error()
		return
	}
	s.progress.Phase = PhaseDone
}
