package sched

// State is the lifecycle state of a job.
type State string

const (
	StateCompleted State = "completed"
	StateExiting   State = "exiting"
	StateHeld      State = "held"
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateMoved     State = "moved"
	StateWaiting   State = "waiting"
	StateSuspended State = "suspended"

	// Local states, never reported by the scheduler.
	StatePending   State = "pending"
	StateSaved     State = "saved"
	StateSubmitted State = "submitted"
)

// stateCodes is the single mapping between scheduler state letters and
// States. Both lookups are derived from it.
var stateCodes = []struct {
	code  string
	state State
}{
	{"C", StateCompleted},
	{"E", StateExiting},
	{"H", StateHeld},
	{"Q", StateQueued},
	{"R", StateRunning},
	{"T", StateMoved},
	{"W", StateWaiting},
	{"S", StateSuspended},
}

// StateForCode maps a scheduler state letter to a State.
func StateForCode(code string) (State, bool) {
	for _, sc := range stateCodes {
		if sc.code == code {
			return sc.state, true
		}
	}
	return "", false
}

// Code returns the scheduler letter for s, or "" for local states.
func (s State) Code() string {
	for _, sc := range stateCodes {
		if sc.state == s {
			return sc.code
		}
	}
	return ""
}

// Terminal reports whether a job in state s will make no further progress.
func (s State) Terminal() bool {
	return s == StateCompleted
}

// Local reports whether s is only ever assigned by this side.
func (s State) Local() bool {
	return s == StatePending || s == StateSaved || s == StateSubmitted
}
