// Package shooter runs aimless-shooting paths against a batch scheduler.
//
// Each path picks one of two shooting points, generates velocities in a
// starter job, reverses them, advances one DT step and then integrates
// forward and backward halves side by side. The halves are classified
// into basins; a path connecting A and B replaces the shooting points.
package shooter

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quatton/aimless/pkg/alog"
	"github.com/quatton/aimless/pkg/basin"
	"github.com/quatton/aimless/pkg/metrics"
	"github.com/quatton/aimless/pkg/restart"
	"github.com/quatton/aimless/pkg/sched"
	"github.com/quatton/aimless/pkg/tpl"
)

// Config is the static description of a shooting run.
type Config struct {
	TplDir   string
	TgtDir   string
	Topology string
	Job      JobParams
	Bounds   basin.Bounds
}

// Mirror copies a finished path's archive directory somewhere durable.
type Mirror interface {
	MirrorPath(ctx context.Context, runID uuid.UUID, pnum int, dir string) error
}

// Shooter drives the path loop. It is not safe to call Run concurrently;
// Progress and Results may be read while a run is in flight.
type Shooter struct {
	cfg     Config
	sched   sched.Scheduler
	waiter  *sched.Waiter
	slots   *Slots
	results *Results
	rng     *rand.Rand
	now     func() time.Time
	mirror  Mirror
	log     *alog.Logger
	runID   uuid.UUID
	sinks   []Sink

	mu       sync.RWMutex
	progress Progress
}

// Option configures a Shooter
type Option func(*Shooter)

// WithWaiter replaces the default waiter built on the scheduler.
func WithWaiter(w *sched.Waiter) Option {
	return func(s *Shooter) { s.waiter = w }
}

// WithRand sets the source used to choose shooting points.
func WithRand(r *rand.Rand) Option {
	return func(s *Shooter) { s.rng = r }
}

// WithClock sets the clock used for restart stamps and result times.
func WithClock(now func() time.Time) Option {
	return func(s *Shooter) { s.now = now }
}

// WithMirror uploads every archived path through m.
func WithMirror(m Mirror) Option {
	return func(s *Shooter) { s.mirror = m }
}

// WithLogger sets the shooter logger.
func WithLogger(log *alog.Logger) Option {
	return func(s *Shooter) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id uuid.UUID) Option {
	return func(s *Shooter) { s.runID = id }
}

// WithSinks forwards every path result to sinks.
func WithSinks(sinks ...Sink) Option {
	return func(s *Shooter) { s.sinks = append(s.sinks, sinks...) }
}

func New(cfg Config, scheduler sched.Scheduler, opts ...Option) *Shooter {
	s := &Shooter{
		cfg:   cfg,
		sched: scheduler,
		slots: NewSlots(cfg.TgtDir),
		now:   time.Now,
		log:   alog.NewDiscard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runID == uuid.Nil {
		if id, err := uuid.NewV7(); err == nil {
			s.runID = id
		} else {
			s.runID = uuid.New()
		}
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	}
	if s.waiter == nil {
		s.waiter = sched.NewWaiter(scheduler,
			sched.WithWaiterLogger(s.log.Named("waiter")),
			sched.WithPollHook(func([]sched.JobID) { metrics.IncreaseStatusPolls() }))
	}
	s.results = NewResults(s.runID, s.log, s.sinks...)
	s.progress = Progress{RunID: s.runID.String(), Phase: PhaseIdle}
	return s
}

// RunID identifies this run.
func (s *Shooter) RunID() uuid.UUID { return s.runID }

// Results exposes the accumulated path results.
func (s *Shooter) Results() *Results { return s.results }

// Slots exposes the shooting-point slots.
func (s *Shooter) Slots() *Slots { return s.slots }

// Run executes paths 1..numPaths in order and returns the accumulated
// results. The first failing path aborts the run; its artifacts are left
// in place.
func (s *Shooter) Run(ctx context.Context, numPaths int) (*Results, error) {
	s.mu.Lock()
	s.progress.NumPaths = numPaths
	s.progress.StartedAt = s.now()
	s.mu.Unlock()
	s.log.Info("Starting run", "run_id", s.runID, "paths", numPaths, "target", s.cfg.TgtDir)

	for pnum := 1; pnum <= numPaths; pnum++ {
		if _, err := s.RunPath(ctx, pnum); err != nil {
			s.finish(err)
			return s.results, fmt.Errorf("path %d: %w", pnum, err)
		}
	}
	s.finish(nil)
	sum := s.results.Summary()
	s.log.Info("Run finished", "run_id", s.runID, "accepted", sum.Accepted, "rejected", sum.Rejected)
	return s.results, nil
}

// RunPath executes one full path and records its result.
func (s *Shooter) RunPath(ctx context.Context, pnum int) (PathResult, error) {
	metrics.UpdateCurrentPath(pnum)
	origin := s.slots.Choose(s.rng)
	s.setPhase(pnum, PhaseChooseOrigin)
	s.log.Debug(fmt.Sprintf("Using '%s'", origin), "path", pnum)

	s.setPhase(pnum, PhaseStarter)
	if err := s.runStarter(ctx, pnum, origin); err != nil {
		return PathResult{}, err
	}

	s.setPhase(pnum, PhaseReverse)
	s.log.Debug("reversing velocities", "path", pnum)
	if err := restart.ReverseFile(s.tgt(ForwardRestart), s.tgt(BackwardRestart), s.now()); err != nil {
		return PathResult{}, err
	}

	s.setPhase(pnum, PhaseDT)
	if err := s.runDT(ctx, pnum); err != nil {
		return PathResult{}, err
	}

	s.setPhase(pnum, PhaseForwardBackward)
	if err := s.runForwardAndBackward(ctx, pnum); err != nil {
		return PathResult{}, err
	}

	s.setPhase(pnum, PhaseClassify)
	res, err := s.classify(pnum)
	if err != nil {
		return PathResult{}, err
	}

	s.setPhase(pnum, PhaseDecide)
	if basin.Accepted(res.Forward, res.Backward) {
		if err := s.slots.Accept(origin, s.tgt(PostDTRestart)); err != nil {
			return PathResult{}, err
		}
		res.Accepted = true
	}
	s.log.Info("Path decided", "path", pnum, "forward", res.Forward, "backward", res.Backward, "accepted", res.Accepted)

	s.setPhase(pnum, PhaseArchive)
	dir, err := Archive(s.cfg.TgtDir, pnum, s.log)
	if err != nil {
		return PathResult{}, err
	}
	if s.mirror != nil {
		if err := s.mirror.MirrorPath(ctx, s.runID, pnum, dir); err != nil {
			s.log.Warn("Could not mirror path archive", "path", pnum, "error", err)
		}
	}

	res.FinishedAt = s.now()
	s.results.Add(ctx, res)
	metrics.IncreasePathsTotal(outcome(res))
	return res, nil
}

// runStarter generates fresh velocities for origin and keeps a copy of the
// resulting forward restart with the path archive.
func (s *Shooter) runStarter(ctx context.Context, pnum int, origin string) error {
	s.log.Debug("running starter... generating velocities", "path", pnum)
	id, err := s.submit(ctx, pnum, jobStep{
		name:    "starter",
		shooter: origin,
		dirRst:  s.tgt(ForwardRestart),
		in:      s.tgt(StarterInput),
		out:     s.tgt(StarterOutput),
		mdcrd:   s.tgt(StarterTrajectory),
	})
	if err != nil {
		return err
	}
	if err := s.waiter.Wait(ctx, []sched.JobID{id}); err != nil {
		return err
	}
	return copyInto(s.tgt(ForwardRestart), PathDir(s.cfg.TgtDir, pnum))
}

func (s *Shooter) runDT(ctx context.Context, pnum int) error {
	s.log.Debug("running dt", "path", pnum)
	id, err := s.submit(ctx, pnum, jobStep{
		name:    "dt",
		shooter: s.tgt(ForwardRestart),
		dirRst:  s.tgt(PostDTRestart),
		in:      s.tgt(DTInput),
		out:     s.tgt(DTOutput),
		mdcrd:   s.tgt(DTTrajectory),
	})
	if err != nil {
		return err
	}
	return s.waiter.Wait(ctx, []sched.JobID{id})
}

// runForwardAndBackward submits both halves from the post-DT restart and
// waits for them together.
func (s *Shooter) runForwardAndBackward(ctx context.Context, pnum int) error {
	s.log.Debug("running forward", "path", pnum)
	fwd, err := s.submit(ctx, pnum, jobStep{
		name:    "forward",
		shooter: s.tgt(PostDTRestart),
		dirRst:  s.tgt(PostForwardRestart),
		in:      s.tgt(ForwardInput),
		out:     s.tgt(ForwardOutput),
		mdcrd:   s.tgt(ForwardTrajectory),
	})
	if err != nil {
		return err
	}

	s.log.Debug("running backward", "path", pnum)
	back, err := s.submit(ctx, pnum, jobStep{
		name:    "backward",
		shooter: s.tgt(PostDTRestart),
		dirRst:  s.tgt(PostBackwardRestart),
		in:      s.tgt(BackwardInput),
		out:     s.tgt(BackwardOutput),
		mdcrd:   s.tgt(BackwardTrajectory),
	})
	if err != nil {
		return err
	}
	return s.waiter.Wait(ctx, []sched.JobID{fwd, back})
}

func (s *Shooter) classify(pnum int) (PathResult, error) {
	fwd, err := basin.ReadConstraints(s.tgt(ForwardConstraints))
	if err != nil {
		return PathResult{}, err
	}
	back, err := basin.ReadConstraints(s.tgt(BackwardConstraints))
	if err != nil {
		return PathResult{}, err
	}
	return PathResult{
		Path:       pnum,
		Forward:    s.cfg.Bounds.ClassifyPoint(fwd),
		Backward:   s.cfg.Bounds.ClassifyPoint(back),
		ForwardRC:  fwd,
		BackwardRC: back,
	}, nil
}

type jobStep struct {
	name    string
	shooter string
	dirRst  string
	in      string
	out     string
	mdcrd   string
}

// submit fills the job template for st and hands it to the scheduler.
func (s *Shooter) submit(ctx context.Context, pnum int, st jobStep) (sched.JobID, error) {
	params := s.cfg.Job.Map()
	params[KeyTopology] = s.cfg.Topology
	params[KeyShooter] = st.shooter
	params[KeyDirRst] = st.dirRst
	params[KeyInfile] = st.in
	params[KeyOutfile] = st.out
	params[KeyMdcrd] = st.mdcrd

	contents, err := tpl.Render(filepath.Join(s.cfg.TplDir, JobTemplate), params)
	if err != nil {
		return 0, err
	}
	job := s.cfg.Job.Job(contents, st.name, pnum)
	s.log.Info("Submitting:\n"+contents, "path", pnum, "step", st.name)

	id, err := s.sched.Submit(ctx, job)
	if err != nil {
		return 0, err
	}
	metrics.IncreaseJobsSubmitted(st.name)
	s.log.Debug("Submitted job", "path", pnum, "step", st.name, "id", id)
	return id, nil
}

func (s *Shooter) tgt(name string) string {
	return filepath.Join(s.cfg.TgtDir, name)
}

func outcome(res PathResult) string {
	switch {
	case res.Accepted:
		return "accepted"
	case res.BothA():
		return "both_a"
	case res.BothB():
		return "both_b"
	default:
		return "rejected"
	}
}
