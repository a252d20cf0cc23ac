package shooter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quatton/aimless/pkg/aerr"
	"github.com/quatton/aimless/pkg/sched"
)

func TestCalcParams(t *testing.T) {
	p := CalcParams(1000)
	assert.Equal(t, StepParams{
		TotalSteps: 1000,
		BwSteps:    500,
		FwSteps:    500,
		DtSteps:    10,
		BwOut:      499,
		FwOut:      499,
		DtOut:      9,
	}, p)

	p.NumPaths = 20
	m := p.Map()
	assert.Equal(t, "20", m[KeyNumPaths])
	assert.Equal(t, "500", m[KeyFwSteps])
	assert.Equal(t, "9", m[KeyDtOut])
}

func TestCalcParamsOdd(t *testing.T) {
	p := CalcParams(2501)
	assert.Equal(t, 1250, p.FwSteps)
	assert.Equal(t, 1250, p.BwSteps)
	assert.Equal(t, 25, p.DtSteps)
	assert.Equal(t, 24, p.DtOut)
}

func TestParseJobParams(t *testing.T) {
	p, err := ParseJobParams(map[string]string{
		"queue":    "long",
		"walltime": "24:00:00",
		"NumNodes": "4",
		"numcpus":  " 8 ",
		"mail":     "me@example.org",
		"sander":   "/opt/amber/bin/sander",
	})
	require.NoError(t, err)
	assert.Equal(t, "long", p.Queue)
	assert.Equal(t, "24:00:00", p.Walltime)
	assert.Equal(t, 4, p.NumNodes)
	assert.Equal(t, 8, p.NumCPUs)
	assert.Equal(t, "me@example.org", p.Mail)
	assert.Equal(t, map[string]string{"sander": "/opt/amber/bin/sander"}, p.Extra)
	assert.Equal(t, []string{"sander"}, p.ExtraKeys())
}

func TestParseJobParamsBadInt(t *testing.T) {
	for _, v := range []string{"four", "-1", "1.5"} {
		_, err := ParseJobParams(map[string]string{"numnodes": v})
		require.Error(t, err, v)
		assert.True(t, aerr.IsCode(err, aerr.CodeConfig), v)
		assert.Contains(t, err.Error(), "jobs.numnodes")
	}

	p, err := ParseJobParams(map[string]string{"numcpus": ""})
	require.NoError(t, err)
	assert.Zero(t, p.NumCPUs)
}

func TestJobParamsMap(t *testing.T) {
	p := JobParams{
		Queue:    "short",
		NumNodes: 2,
		Extra:    map[string]string{"queue": "shadowed", "module": "amber/12"},
	}
	m := p.Map()
	assert.Equal(t, "short", m[KeyQueue])
	assert.Equal(t, "2", m[KeyNumNodes])
	assert.Equal(t, "amber/12", m["module"])
	assert.NotContains(t, m, KeyNumCPUs)
	assert.NotContains(t, m, KeyMail)
}

func TestJobParamsJob(t *testing.T) {
	job := JobParams{}.Job("echo hi\n", "forward", 7)
	assert.Equal(t, "p07-forward", job.Name)
	assert.Equal(t, sched.DefaultQueue, job.Queue)
	assert.Equal(t, sched.DefaultWalltime, job.Walltime)
	assert.Equal(t, sched.DefaultNodes, job.NumNodes)
	assert.Equal(t, "echo hi\n", job.Contents)

	job = JobParams{Name: "cel6a run", Queue: "gpu", NumNodes: 3, NumCPUs: 12, Stdout: "o.log"}.Job("x", "dt", 1)
	assert.Equal(t, "cel6a-run", job.Name)
	assert.Equal(t, "gpu", job.Queue)
	assert.Equal(t, 3, job.NumNodes)
	assert.Equal(t, 12, job.NumCPUs)
	assert.Equal(t, "o.log", job.Stdout)
	assert.Equal(t, sched.DefaultTarget, job.Stderr)
}
