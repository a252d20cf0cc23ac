package sched

import (
	"regexp"
	"unicode"
)

// Job defaults applied by NewJob.
const (
	DefaultName     = "nameless_job"
	DefaultTarget   = "/dev/null"
	DefaultNodes    = 1
	DefaultQueue    = "batch"
	DefaultWalltime = "999:00:00"

	maxNameLen = 15
)

var whitespace = regexp.MustCompile(`\s+`)

// Job is a submission request for the batch scheduler.
type Job struct {
	Name     string `json:"name"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	NumNodes int    `json:"numnodes"`
	NumCPUs  int    `json:"numcpus,omitempty"` // 0 means unset
	Queue    string `json:"queue"`
	Walltime string `json:"walltime"`
	Mail     string `json:"mail,omitempty"`
	Contents string `json:"contents"`
}

// JobOption configures a Job built by NewJob
type JobOption func(*Job)

func WithName(name string) JobOption { return func(j *Job) { j.Name = name } }

func WithQueue(queue string) JobOption {
	return func(j *Job) {
		if queue != "" {
			j.Queue = queue
		}
	}
}

func WithWalltime(walltime string) JobOption {
	return func(j *Job) {
		if walltime != "" {
			j.Walltime = walltime
		}
	}
}

func WithNodes(nodes, cpus int) JobOption {
	return func(j *Job) {
		if nodes > 0 {
			j.NumNodes = nodes
		}
		j.NumCPUs = cpus
	}
}

func WithOutput(stdout, stderr string) JobOption {
	return func(j *Job) {
		if stdout != "" {
			j.Stdout = stdout
		}
		if stderr != "" {
			j.Stderr = stderr
		}
	}
}

func WithMail(mail string) JobOption { return func(j *Job) { j.Mail = mail } }

// NewJob returns a job carrying contents with the scheduler defaults
// filled in. The name is normalized with FixName.
func NewJob(contents string, opts ...JobOption) *Job {
	j := &Job{
		Name:     DefaultName,
		Stdout:   DefaultTarget,
		Stderr:   DefaultTarget,
		NumNodes: DefaultNodes,
		Queue:    DefaultQueue,
		Walltime: DefaultWalltime,
		Contents: contents,
	}
	for _, opt := range opts {
		opt(j)
	}
	j.Name = FixName(j.Name)
	return j
}

// FixName makes name acceptable to the scheduler: non-empty, no
// whitespace, no leading digit, at most 15 characters. Overlong names are
// cut to 14.
func FixName(name string) string {
	if name == "" {
		return DefaultName
	}
	name = whitespace.ReplaceAllString(name, "-")
	if r := []rune(name); unicode.IsDigit(r[0]) {
		name = "d" + name
	}
	if r := []rune(name); len(r) > maxNameLen {
		name = string(r[:maxNameLen-1])
	}
	return name
}
