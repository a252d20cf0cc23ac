package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/quatton/aimless/pkg/aerr"
	"github.com/quatton/aimless/pkg/basin"
	"github.com/quatton/aimless/pkg/shooter"
)

var sample = []shooter.PathResult{
	{Path: 1, Forward: basin.A, Backward: basin.B, Accepted: true,
		ForwardRC: basin.Coordinates{RC1: 4.1, RC2: 0.7}, BackwardRC: basin.Coordinates{RC1: 1.2, RC2: 9.2}},
	{Path: 2, Forward: basin.A, Backward: basin.A},
	{Path: 3, Forward: basin.Inconclusive, Backward: basin.B},
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sample))

	want := "01:\n" +
		"\tforward : A\n" +
		"\tbackward: B\n" +
		"\taccepted: Y\n" +
		"02:\n" +
		"\tforward : A\n" +
		"\tbackward: A\n" +
		"\taccepted: N\n" +
		"03:\n" +
		"\tforward : I\n" +
		"\tbackward: B\n" +
		"\taccepted: N\n" +
		"\n" +
		"Accepted:  1\n" +
		"Rejected:  2\n" +
		"Both A  :  1\n" +
		"Both B  :  0\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, nil))
	assert.Equal(t, "\nAccepted:  0\nRejected:  0\nBoth A  :  0\nBoth B  :  0\n", buf.String())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample))
	assert.Equal(t, "path,forward,backward,accepted\n1,A,B,Y\n2,A,A,N\n3,I,B,N\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sample))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("paths")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"path", "forward", "backward", "accepted", "rc1_forward", "rc2_forward", "rc1_backward", "rc2_backward"}, rows[0])
	assert.Equal(t, []string{"1", "A", "B", "Y", "4.1", "0.7", "1.2", "9.2"}, rows[1])
	assert.Equal(t, "3", rows[3][0])
	assert.Equal(t, "I", rows[3][1])
}

func TestParse(t *testing.T) {
	formats, err := Parse("tcT")
	require.NoError(t, err)
	assert.Equal(t, []Format{Text, CSV}, formats)

	formats, err = Parse("")
	require.NoError(t, err)
	assert.Empty(t, formats)

	_, err = Parse("tz")
	require.Error(t, err)
	assert.True(t, aerr.IsCode(err, aerr.CodeConfig))

	assert.Equal(t, "xlsx", XLSX.String())
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{Text: filepath.Join(dir, "r.txt"), CSV: filepath.Join(dir, "r.csv")}

	written, err := WriteFiles([]Format{CSV, Text}, paths, sample)
	require.NoError(t, err)
	assert.Equal(t, []string{paths.CSV, paths.Text}, written)

	data, err := os.ReadFile(paths.CSV)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2,A,A,N\n")

	_, err = WriteFiles([]Format{XLSX}, Paths{XLSX: filepath.Join(dir, "missing", "r.xlsx")}, sample)
	assert.True(t, aerr.IsCode(err, aerr.CodeEnvironment))
}

func TestDefaultTargets(t *testing.T) {
	var p Paths
	assert.Equal(t, DefaultText, p.target(Text))
	assert.Equal(t, DefaultCSV, p.target(CSV))
	assert.Equal(t, DefaultXLSX, p.target(XLSX))
}
