package torque

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/quatton/aimless/pkg/aerr"
	"github.com/quatton/aimless/pkg/alog"
	"github.com/quatton/aimless/pkg/sched"
)

// Client drives a Torque/PBS scheduler through qsub and qstat.
type Client struct {
	exec  Executor
	qsub  string
	qstat string
	log   *alog.Logger
}

var _ sched.Scheduler = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithExecutor replaces the process runner.
func WithExecutor(e Executor) Option {
	return func(c *Client) { c.exec = e }
}

// WithCommands overrides the qsub and qstat binaries. Empty values keep
// the defaults.
func WithCommands(qsub, qstat string) Option {
	return func(c *Client) {
		if qsub != "" {
			c.qsub = qsub
		}
		if qstat != "" {
			c.qstat = qstat
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(log *alog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		exec:  ExecCommand,
		qsub:  "qsub",
		qstat: "qstat",
		log:   alog.NewDiscard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitArgs assembles the qsub arguments for job.
func SubmitArgs(job *sched.Job) []string {
	args := []string{"-V",
		"-N", sched.FixName(job.Name),
		"-o", job.Stdout,
		"-e", job.Stderr,
		"-q", job.Queue,
		"-l", "walltime=" + job.Walltime,
		"-l", "nodes=" + strconv.Itoa(job.NumNodes),
	}
	if job.NumCPUs > 0 {
		args = append(args, "-l", "ppn="+strconv.Itoa(job.NumCPUs))
	}
	if job.Mail != "" {
		args = append(args, "-m", "a", "-M", job.Mail)
	}
	return args
}

// Submit pipes the job script into qsub and returns the new job's ID.
func (c *Client) Submit(ctx context.Context, job *sched.Job) (sched.JobID, error) {
	stdout, stderr, err := c.exec(ctx, job.Contents, c.qsub, SubmitArgs(job)...)
	out := strings.TrimSpace(string(stdout))
	if out == "" {
		if err != nil {
			return 0, aerr.Newf(aerr.CodeSubmission, "no output for %s with contents %s: %w. Errors: %s",
				job.Name, job.Contents, err, strings.TrimSpace(string(stderr)))
		}
		return 0, aerr.Newf(aerr.CodeSubmission, "no output for %s with contents %s. Errors: %s",
			job.Name, job.Contents, strings.TrimSpace(string(stderr)))
	}
	c.log.Debug(fmt.Sprintf("Output from job %s: %s", job.Name, out))
	id, perr := ParseID(out)
	if perr != nil {
		return 0, aerr.Newf(aerr.CodeSubmission, "submit %s: %w", job.Name, perr)
	}
	return id, nil
}

// Stat runs qstat -x for ids (every job when ids is empty). An empty
// reply is an empty map, also when qstat exited non-zero. A qstat that
// could not be started, or a done ctx, is an error.
func (c *Client) Stat(ctx context.Context, ids []sched.JobID) (map[sched.JobID]*sched.Status, error) {
	args := []string{"-x"}
	for _, id := range ids {
		args = append(args, strconv.Itoa(int(id)))
	}
	stdout, stderr, err := c.exec(ctx, "", c.qstat, args...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("stat on IDs %v: %w", ids, ctxErr)
	}
	if len(stderr) > 0 {
		c.log.Debug(fmt.Sprintf("Error output for stat on IDs %v: %s", ids, strings.TrimSpace(string(stderr))))
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, aerr.Newf(aerr.CodeStatusParsing, "could not run %s for IDs %v: %w", c.qstat, ids, err)
		}
	}
	if strings.TrimSpace(string(stdout)) == "" {
		if err != nil {
			// qstat exits non-zero once every requested job has been purged.
			c.log.Debug("qstat returned no output", "error", err)
		}
		return map[sched.JobID]*sched.Status{}, nil
	}
	c.log.Debug("Stat: " + string(stdout))
	return ParseStatus(stdout)
}

// ParseID extracts the numeric ID from qsub output of the form id.host.
func ParseID(raw string) (sched.JobID, error) {
	raw = strings.TrimSpace(raw)
	head, _, found := strings.Cut(raw, ".")
	if !found {
		return 0, fmt.Errorf("could not properly split output %q", raw)
	}
	id, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("job ID value %s is not an int: %w", head, err)
	}
	return sched.JobID(id), nil
}

type xmlTop struct {
	Data []xmlData `xml:"Data"`
}

type xmlData struct {
	Jobs []xmlJob `xml:"Job"`
}

type xmlJob struct {
	ID        string `xml:"Job_Id"`
	Name      string `xml:"Job_Name"`
	Owner     string `xml:"Job_Owner"`
	State     string `xml:"job_state"`
	Queue     string `xml:"queue"`
	CTime     string `xml:"ctime"`
	QTime     string `xml:"qtime"`
	StartTime string `xml:"start_time"`
	ExecHost  string `xml:"exec_host"`
	Remaining string `xml:"Walltime>Remaining"`
}

// ParseStatus decodes qstat -x output. Multiple Data blocks arrive
// without a root element, so the body is wrapped before decoding.
func ParseStatus(raw []byte) (map[sched.JobID]*sched.Status, error) {
	var top xmlTop
	body := "<top>" + string(raw) + "</top>"
	if err := xml.Unmarshal([]byte(body), &top); err != nil {
		return nil, aerr.Newf(aerr.CodeStatusParsing, "decode qstat output: %w", err)
	}

	out := make(map[sched.JobID]*sched.Status)
	for _, d := range top.Data {
		for _, j := range d.Jobs {
			st, err := j.status()
			if err != nil {
				return nil, aerr.New(aerr.CodeStatusParsing, err)
			}
			out[st.ID] = st
		}
	}
	return out, nil
}

func (j xmlJob) status() (*sched.Status, error) {
	id, err := ParseID(j.ID)
	if err != nil {
		return nil, err
	}
	st := &sched.Status{
		ID:       id,
		Name:     strings.TrimSpace(j.Name),
		Owner:    strings.TrimSpace(j.Owner),
		Queue:    strings.TrimSpace(j.Queue),
		ExecHost: strings.TrimSpace(j.ExecHost),
	}
	state, ok := sched.StateForCode(strings.TrimSpace(j.State))
	if !ok {
		return nil, fmt.Errorf("job %d: unknown state code %q", id, j.State)
	}
	st.State = state

	if st.Created, err = epoch(j.CTime); err != nil {
		return nil, fmt.Errorf("job %d ctime: %w", id, err)
	}
	if st.Queued, err = epoch(j.QTime); err != nil {
		return nil, fmt.Errorf("job %d qtime: %w", id, err)
	}
	if st.Started, err = epoch(j.StartTime); err != nil {
		return nil, fmt.Errorf("job %d start_time: %w", id, err)
	}
	if r := strings.TrimSpace(j.Remaining); r != "" {
		secs, err := strconv.Atoi(r)
		if err != nil {
			return nil, fmt.Errorf("job %d remaining walltime %q: %w", id, r, err)
		}
		st.Remaining = time.Duration(secs) * time.Second
	}
	return st, nil
}

// epoch parses a unix timestamp in seconds. Blank means unset.
func epoch(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, err
	}
	whole := int64(secs)
	return time.Unix(whole, int64((secs-float64(whole))*1e9)), nil
}
