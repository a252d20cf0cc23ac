package tpl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quatton/aimless/pkg/aerr"
)

func TestSubstitute(t *testing.T) {
	params := map[string]string{"fwsteps": "500", "topology": "cel6a.prmtop", "a_1": "x"}

	tests := []struct {
		in, want string
	}{
		{"nstlim=$fwsteps,", "nstlim=500,"},
		{"-p ${topology} -c x", "-p cel6a.prmtop -c x"},
		{"${fwsteps}0", "5000"},
		{"cost $$5", "cost $5"},
		{"$$fwsteps", "$fwsteps"},
		{"keep $PBS_O_WORKDIR and ${HOME}", "keep $PBS_O_WORKDIR and ${HOME}"},
		{"lone $ sign, $1, ${ broken", "lone $ sign, $1, ${ broken"},
		{"$a_1$fwsteps", "x500"},
		{"no placeholders", "no placeholders"},
		{"trailing $", "trailing $"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Substitute(tt.in, params), tt.in)
	}
}

func TestParams(t *testing.T) {
	assert.Equal(t, map[string]string{"n": "10", "s": "x", "f": "1.5"},
		Params(map[string]any{"n": 10, "s": "x", "f": 1.5}))
}

func writeTemplates(t *testing.T, dir string) {
	t.Helper()
	for _, tg := range Inputs {
		body := "&cntrl\n  nstlim=$fwsteps, ntwx=$fwout,\n&end\n# " + tg.Template + "\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, tg.Template), []byte(body), 0o644))
	}
}

func TestWriteInputs(t *testing.T) {
	tplDir := t.TempDir()
	tgtDir := filepath.Join(t.TempDir(), "new", "run")
	writeTemplates(t, tplDir)

	require.NoError(t, WriteInputs(tplDir, tgtDir, map[string]string{"fwsteps": "500", "fwout": "499"}))

	for _, tg := range Inputs {
		data, err := os.ReadFile(filepath.Join(tgtDir, tg.Output))
		require.NoError(t, err, tg.Output)
		assert.Equal(t, "&cntrl\n  nstlim=500, ntwx=499,\n&end\n# "+tg.Template+"\n", string(data))
	}
}

func TestWriteInputsMissingTemplateDir(t *testing.T) {
	err := WriteInputs(filepath.Join(t.TempDir(), "absent"), t.TempDir(), nil)
	assert.True(t, aerr.IsCode(err, aerr.CodeEnvironment))
	assert.Contains(t, err.Error(), "does not exist")
}

func TestWriteInputsMissingTemplate(t *testing.T) {
	tplDir := t.TempDir()
	writeTemplates(t, tplDir)
	require.NoError(t, os.Remove(filepath.Join(tplDir, "indt.tpl")))

	err := WriteInputs(tplDir, t.TempDir(), nil)
	assert.True(t, aerr.IsCode(err, aerr.CodeTemplate))
	assert.Contains(t, err.Error(), "indt.in")
	assert.Contains(t, err.Error(), "change in time for the trajectory")
}

func TestWriteInputsUnwritableTarget(t *testing.T) {
	tplDir := t.TempDir()
	tgtDir := t.TempDir()
	writeTemplates(t, tplDir)
	// A directory squatting on an output name cannot be overwritten.
	require.NoError(t, os.Mkdir(filepath.Join(tgtDir, "indt.in"), 0o755))

	err := WriteInputs(tplDir, tgtDir, nil)
	assert.True(t, aerr.IsCode(err, aerr.CodeEnvironment))
	assert.Contains(t, err.Error(), "couldn't write target")
}

func TestRender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "amber_job.tpl")
	require.NoError(t, os.WriteFile(path, []byte("sander -i $infile -o $outfile"), 0o644))

	got, err := Render(path, map[string]string{"infile": "indt.in", "outfile": "dt.out"})
	require.NoError(t, err)
	assert.Equal(t, "sander -i indt.in -o dt.out", got)

	_, err = Render(filepath.Join(t.TempDir(), "missing.tpl"), nil)
	assert.True(t, aerr.IsCode(err, aerr.CodeTemplate))
}
