package basin

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quatton/aimless/pkg/aerr"
)

var testBounds = Bounds{
	RC1LoA: 2.75, RC1HiA: 10.0, RC2LoA: 0.0, RC2HiA: 1.9,
	RC1LoB: 0.0, RC1HiB: 2.0, RC2LoB: 3.0, RC2HiB: 10.0,
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		rc1, rc2 float64
		want     Label
	}{
		{"inside A", 4.1, 0.7, A},
		{"inside B", 1.2, 9.2, B},
		{"rc2 outside both", 1.2, 1.0, Inconclusive},
		{"rc1 A rc2 B", 4.1, 8.6, Inconclusive},
		{"on A low bound", 2.75, 0.7, Inconclusive},
		{"on A high bound", 10.0, 0.7, Inconclusive},
		{"on B rc2 bound", 1.2, 3.0, Inconclusive},
		{"just inside B", 1.999, 3.001, B},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, testBounds.Classify(tt.rc1, tt.rc2))
			assert.Equal(t, tt.want, testBounds.ClassifyPoint(Coordinates{RC1: tt.rc1, RC2: tt.rc2}))
		})
	}
}

func TestClassifyPrefersA(t *testing.T) {
	overlap := Bounds{
		RC1LoA: 0, RC1HiA: 5, RC2LoA: 0, RC2HiA: 5,
		RC1LoB: 0, RC1HiB: 5, RC2LoB: 0, RC2HiB: 5,
	}
	assert.Equal(t, A, overlap.Classify(1, 1))
}

func TestAccepted(t *testing.T) {
	labels := []Label{A, B, Inconclusive}
	for _, f := range labels {
		for _, b := range labels {
			want := (f == A && b == B) || (f == B && b == A)
			assert.Equal(t, want, Accepted(f, b), "%s/%s", f, b)
		}
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, testBounds.Validate())

	bad := testBounds
	bad.RC2LoB, bad.RC2HiB = 10, 3
	err := bad.Validate()
	assert.True(t, aerr.IsCode(err, aerr.CodeConfig))
	assert.Contains(t, err.Error(), "rc2 B")
}

func TestParseConstraints(t *testing.T) {
	src := "# Step  r1  r2\n   1000   4.1000   0.7000\n   1001   9.9   9.9\n"
	c, err := ParseConstraints(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, Coordinates{RC1: 4.1, RC2: 0.7}, c)
}

func TestParseConstraintsMalformed(t *testing.T) {
	for name, src := range map[string]string{
		"one line":   "# header\n",
		"two fields": "#\n1 2\n",
		"not number": "#\n1 x 2\n",
		"empty":      "",
	} {
		_, err := ParseConstraints(strings.NewReader(src))
		assert.True(t, aerr.IsCode(err, aerr.CodeDataFormat), name)
	}
}

func TestReadConstraints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cons_fwd.dat")
	require.NoError(t, os.WriteFile(path, []byte("header\n0 1.2 9.2\n"), 0o644))

	c, err := ReadConstraints(path)
	require.NoError(t, err)
	assert.Equal(t, B, testBounds.ClassifyPoint(c))

	_, err = ReadConstraints(filepath.Join(t.TempDir(), "missing.dat"))
	assert.True(t, aerr.IsCode(err, aerr.CodeEnvironment))
}
