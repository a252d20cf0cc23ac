package sched

import "context"

// Scheduler submits jobs to a batch system and reports their status.
type Scheduler interface {
	// Submit hands job to the scheduler and returns the assigned ID.
	Submit(ctx context.Context, job *Job) (JobID, error)

	// Stat returns the status of each requested ID the scheduler still
	// knows about. An empty ids slice asks for every job.
	Stat(ctx context.Context, ids []JobID) (map[JobID]*Status, error)
}
