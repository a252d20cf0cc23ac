package shooter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/quatton/aimless/pkg/aerr"
	"github.com/quatton/aimless/pkg/sched"
)

// Template parameter keys.
const (
	KeyNumPaths   = "numpaths"
	KeyTotalSteps = "totalsteps"
	KeyBwSteps    = "bwsteps"
	KeyFwSteps    = "fwsteps"
	KeyDtSteps    = "dtsteps"
	KeyBwOut      = "bwout"
	KeyFwOut      = "fwout"
	KeyDtOut      = "dtout"

	KeyTopology = "topology"
	KeyShooter  = "shooter"
	KeyDirRst   = "dir_rst"
	KeyInfile   = "infile"
	KeyOutfile  = "outfile"
	KeyMdcrd    = "mdcrd"

	KeyName     = "name"
	KeyQueue    = "queue"
	KeyWalltime = "walltime"
	KeyMail     = "mail"
	KeyStdout   = "stdout"
	KeyStderr   = "stderr"
	KeyNumNodes = "numnodes"
	KeyNumCPUs  = "numcpus"
)

// StepParams are the MD step counts derived from the total step budget.
type StepParams struct {
	NumPaths   int `json:"numpaths"`
	TotalSteps int `json:"totalsteps"`
	BwSteps    int `json:"bwsteps"`
	FwSteps    int `json:"fwsteps"`
	DtSteps    int `json:"dtsteps"`
	BwOut      int `json:"bwout"`
	FwOut      int `json:"fwout"`
	DtOut      int `json:"dtout"`
}

// CalcParams splits total steps evenly between the forward and backward
// halves, gives one percent to the DT step, and sets each output
// frequency one below its step count.
func CalcParams(total int) StepParams {
	p := StepParams{
		TotalSteps: total,
		BwSteps:    total / 2,
		FwSteps:    total / 2,
		DtSteps:    total / 100,
	}
	p.BwOut = p.BwSteps - 1
	p.FwOut = p.FwSteps - 1
	p.DtOut = p.DtSteps - 1
	return p
}

// Map renders p for template substitution.
func (p StepParams) Map() map[string]string {
	return map[string]string{
		KeyNumPaths:   strconv.Itoa(p.NumPaths),
		KeyTotalSteps: strconv.Itoa(p.TotalSteps),
		KeyBwSteps:    strconv.Itoa(p.BwSteps),
		KeyFwSteps:    strconv.Itoa(p.FwSteps),
		KeyDtSteps:    strconv.Itoa(p.DtSteps),
		KeyBwOut:      strconv.Itoa(p.BwOut),
		KeyFwOut:      strconv.Itoa(p.FwOut),
		KeyDtOut:      strconv.Itoa(p.DtOut),
	}
}

// JobParams configure every job the shooter submits. Extra carries
// site-specific template values through untouched.
type JobParams struct {
	Name     string
	Queue    string
	Walltime string
	Mail     string
	Stdout   string
	Stderr   string
	NumNodes int
	NumCPUs  int
	Extra    map[string]string
}

// ParseJobParams splits a flat key/value section into the recognized job
// fields and the passthrough bag.
func ParseJobParams(raw map[string]string) (JobParams, error) {
	p := JobParams{Extra: map[string]string{}}
	for k, v := range raw {
		var err error
		switch strings.ToLower(k) {
		case KeyName:
			p.Name = v
		case KeyQueue:
			p.Queue = v
		case KeyWalltime:
			p.Walltime = v
		case KeyMail:
			p.Mail = v
		case KeyStdout:
			p.Stdout = v
		case KeyStderr:
			p.Stderr = v
		case KeyNumNodes:
			p.NumNodes, err = atoiField(k, v)
		case KeyNumCPUs:
			p.NumCPUs, err = atoiField(k, v)
		default:
			p.Extra[k] = v
		}
		if err != nil {
			return JobParams{}, err
		}
	}
	return p, nil
}

func atoiField(key, v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, aerr.Newf(aerr.CodeConfig, "jobs.%s: %q is not a non-negative integer", key, v)
	}
	return n, nil
}

// Map renders the recognized fields that are set, then Extra, for
// template substitution.
func (p JobParams) Map() map[string]string {
	m := make(map[string]string, len(p.Extra)+8)
	for k, v := range p.Extra {
		m[k] = v
	}
	set := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	set(KeyName, p.Name)
	set(KeyQueue, p.Queue)
	set(KeyWalltime, p.Walltime)
	set(KeyMail, p.Mail)
	set(KeyStdout, p.Stdout)
	set(KeyStderr, p.Stderr)
	if p.NumNodes > 0 {
		m[KeyNumNodes] = strconv.Itoa(p.NumNodes)
	}
	if p.NumCPUs > 0 {
		m[KeyNumCPUs] = strconv.Itoa(p.NumCPUs)
	}
	return m
}

// Job builds the scheduler request for one step of path pnum.
func (p JobParams) Job(contents, step string, pnum int) *sched.Job {
	name := p.Name
	if name == "" {
		name = fmt.Sprintf("p%02d-%s", pnum, step)
	}
	return sched.NewJob(contents,
		sched.WithName(name),
		sched.WithQueue(p.Queue),
		sched.WithWalltime(p.Walltime),
		sched.WithNodes(p.NumNodes, p.NumCPUs),
		sched.WithOutput(p.Stdout, p.Stderr),
		sched.WithMail(p.Mail),
	)
}

// ExtraKeys returns the passthrough keys in sorted order.
func (p JobParams) ExtraKeys() []string {
	keys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
