package api

import (
	"time"

	"github.com/quatton/aimless/pkg/shooter"
)

type HealthResponse struct {
	Status string `json:"status" doc:"Always ok"`
}

type RunResponse struct {
	RunID     string          `json:"run_id" doc:"Run ID"`
	NumPaths  int             `json:"num_paths" doc:"Paths requested"`
	Path      int             `json:"path" doc:"Path currently running"`
	Phase     string          `json:"phase" doc:"Step of the current path"`
	StartedAt *time.Time      `json:"started_at,omitempty" doc:"Run start"`
	Error     string          `json:"error,omitempty" doc:"Failure that stopped the run"`
	Summary   shooter.Summary `json:"summary" doc:"Outcome totals so far"`
}

type PathResponse struct {
	Path       int       `json:"path" doc:"Path number"`
	Forward    string    `json:"forward" doc:"Basin reached by the forward half (A, B or I)"`
	Backward   string    `json:"backward" doc:"Basin reached by the backward half (A, B or I)"`
	RC1Forward float64   `json:"rc1_forward"`
	RC2Forward float64   `json:"rc2_forward"`
	RC1Back    float64   `json:"rc1_backward"`
	RC2Back    float64   `json:"rc2_backward"`
	Accepted   bool      `json:"accepted" doc:"Whether the path connected A and B"`
	FinishedAt time.Time `json:"finished_at"`
}

func toPathResponse(res shooter.PathResult) PathResponse {
	return PathResponse{
		Path:       res.Path,
		Forward:    string(res.Forward),
		Backward:   string(res.Backward),
		RC1Forward: res.ForwardRC.RC1,
		RC2Forward: res.ForwardRC.RC2,
		RC1Back:    res.BackwardRC.RC1,
		RC2Back:    res.BackwardRC.RC2,
		Accepted:   res.Accepted,
		FinishedAt: res.FinishedAt,
	}
}
