// Package localsched runs job scripts as local processes. It backs dry runs
// and single-workstation setups without a batch system.
package localsched

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/quatton/aimless/pkg/aerr"
	"github.com/quatton/aimless/pkg/alog"
	"github.com/quatton/aimless/pkg/sched"
)

// Record is the persisted state of one local job.
type Record struct {
	Status     sched.Status `json:"status"`
	ExitCode   *int         `json:"exit_code,omitempty"`
	Error      string       `json:"error,omitempty"`
	FinishedAt time.Time    `json:"finished_at,omitzero"`
	Stdout     string       `json:"stdout"`
	Stderr     string       `json:"stderr"`
}

// Scheduler executes each submitted script with a shell in the working
// directory and keeps job state under <workDir>/.aimless/jobs.
type Scheduler struct {
	workDir string
	shell   string
	log     *alog.Logger

	mu      sync.Mutex
	lastID  sched.JobID
	cancels map[sched.JobID]context.CancelFunc
	wg      sync.WaitGroup
}

var _ sched.Scheduler = (*Scheduler)(nil)

// Option configures a Scheduler
type Option func(*Scheduler)

// WithShell sets the interpreter used for job scripts.
func WithShell(shell string) Option {
	return func(s *Scheduler) {
		if shell != "" {
			s.shell = shell
		}
	}
}

func WithLogger(log *alog.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

func New(workDir string, opts ...Option) *Scheduler {
	s := &Scheduler{
		workDir: workDir,
		shell:   "/bin/sh",
		log:     alog.NewDiscard(),
		cancels: make(map[sched.JobID]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) jobsDir() string {
	return filepath.Join(s.workDir, ".aimless", "jobs")
}

func (s *Scheduler) jobDir(id sched.JobID) string {
	return filepath.Join(s.jobsDir(), strconv.Itoa(int(id)))
}

// Submit writes the script and starts it in the background.
func (s *Scheduler) Submit(ctx context.Context, job *sched.Job) (sched.JobID, error) {
	id, err := s.nextID()
	if err != nil {
		return 0, aerr.Newf(aerr.CodeSubmission, "allocate id for job %s: %w", job.Name, err)
	}
	dir := s.jobDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, aerr.Newf(aerr.CodeSubmission, "create job directory: %w", err)
	}
	script := filepath.Join(dir, "script.sh")
	if err := os.WriteFile(script, []byte(job.Contents), 0o755); err != nil {
		return 0, aerr.Newf(aerr.CodeSubmission, "write job script: %w", err)
	}

	rec := &Record{
		Status: *sched.SubmittedStatus(job, id),
		Stdout: s.target(job.Stdout, filepath.Join(dir, "stdout.log")),
		Stderr: s.target(job.Stderr, filepath.Join(dir, "stderr.log")),
	}
	rec.Status.Owner = os.Getenv("USER")
	if err := s.save(rec); err != nil {
		return 0, aerr.Newf(aerr.CodeSubmission, "save job state: %w", err)
	}

	execCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Lock()
	s.cancels[id] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.execute(execCtx, rec, script)
	return id, nil
}

// target keeps the job's own output file unless it points at the
// discard default.
func (s *Scheduler) target(path, fallback string) string {
	if path == "" || path == sched.DefaultTarget {
		return fallback
	}
	if !filepath.IsAbs(path) {
		return filepath.Join(s.workDir, path)
	}
	return path
}

func (s *Scheduler) nextID() (sched.JobID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.jobsDir())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, err
	}
	for _, e := range entries {
		if n, err := strconv.Atoi(e.Name()); err == nil && sched.JobID(n) > s.lastID {
			s.lastID = sched.JobID(n)
		}
	}
	s.lastID++
	return s.lastID, nil
}

func (s *Scheduler) execute(ctx context.Context, rec *Record, script string) {
	defer s.wg.Done()
	id := rec.Status.ID
	defer func() {
		s.mu.Lock()
		if cancel, ok := s.cancels[id]; ok {
			cancel()
			delete(s.cancels, id)
		}
		s.mu.Unlock()
	}()

	rec.Status.State = sched.StateRunning
	rec.Status.Started = time.Now()
	rec.Status.ExecHost, _ = os.Hostname()
	rec.Status.Version++
	s.saveLogged(rec)

	err := s.run(ctx, rec, script)

	rec.FinishedAt = time.Now()
	rec.Status.State = sched.StateCompleted
	rec.Status.Version++
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		rec.ExitCode = new(int)
	case errors.As(err, &exitErr):
		code := exitErr.ExitCode()
		rec.ExitCode = &code
	default:
		rec.Error = err.Error()
	}
	s.log.Debug("Local job finished", "id", id, "name", rec.Status.Name, "error", rec.Error)
	s.saveLogged(rec)
}

func (s *Scheduler) run(ctx context.Context, rec *Record, script string) error {
	stdout, err := os.Create(rec.Stdout)
	if err != nil {
		return fmt.Errorf("create stdout: %w", err)
	}
	defer stdout.Close()
	stderr, err := os.Create(rec.Stderr)
	if err != nil {
		return fmt.Errorf("create stderr: %w", err)
	}
	defer stderr.Close()

	cmd := exec.CommandContext(ctx, s.shell, script)
	cmd.Dir = s.workDir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = append(os.Environ(),
		"PBS_O_WORKDIR="+s.workDir,
		"AIMLESS_JOB_ID="+strconv.Itoa(int(rec.Status.ID)),
		"AIMLESS_JOB_NAME="+rec.Status.Name,
	)
	return cmd.Run()
}

func (s *Scheduler) save(rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.jobDir(rec.Status.ID), "job.json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *Scheduler) saveLogged(rec *Record) {
	if err := s.save(rec); err != nil {
		s.log.Warn("Could not save local job state", "id", rec.Status.ID, "error", err)
	}
}

// Load reads the record of job id.
func (s *Scheduler) Load(id sched.JobID) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(s.jobDir(id), "job.json"))
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, aerr.Newf(aerr.CodeStatusParsing, "job %d state: %w", id, err)
	}
	return &rec, nil
}

// Stat returns the recorded status of each known id, or of every job when
// ids is empty.
func (s *Scheduler) Stat(_ context.Context, ids []sched.JobID) (map[sched.JobID]*sched.Status, error) {
	if len(ids) == 0 {
		entries, err := os.ReadDir(s.jobsDir())
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		for _, e := range entries {
			if n, err := strconv.Atoi(e.Name()); err == nil {
				ids = append(ids, sched.JobID(n))
			}
		}
	}
	out := make(map[sched.JobID]*sched.Status, len(ids))
	for _, id := range ids {
		rec, err := s.Load(id)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		st := rec.Status
		out[id] = &st
	}
	return out, nil
}

// Logs opens the captured stdout of job id.
func (s *Scheduler) Logs(id sched.JobID) (io.ReadCloser, error) {
	rec, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	return os.Open(rec.Stdout)
}

// Close kills running jobs and waits for them to be recorded.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}
