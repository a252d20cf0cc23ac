// Package basin decides which stable basin a trajectory endpoint fell into.
package basin

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/quatton/aimless/pkg/aerr"
)

// Label is the outcome of classifying one trajectory endpoint.
type Label string

const (
	A            Label = "A"
	B            Label = "B"
	Inconclusive Label = "I"
)

// Bounds are the exclusive rectangles in (rc1, rc2) space that define
// basins A and B.
type Bounds struct {
	RC1LoA float64 `mapstructure:"rc1loa" json:"RC1loA"`
	RC1HiA float64 `mapstructure:"rc1hia" json:"RC1hiA"`
	RC2LoA float64 `mapstructure:"rc2loa" json:"RC2loA"`
	RC2HiA float64 `mapstructure:"rc2hia" json:"RC2hiA"`
	RC1LoB float64 `mapstructure:"rc1lob" json:"RC1loB"`
	RC1HiB float64 `mapstructure:"rc1hib" json:"RC1hiB"`
	RC2LoB float64 `mapstructure:"rc2lob" json:"RC2loB"`
	RC2HiB float64 `mapstructure:"rc2hib" json:"RC2hiB"`
}

// Coordinates is one endpoint in reaction-coordinate space.
type Coordinates struct {
	RC1 float64 `json:"rc1"`
	RC2 float64 `json:"rc2"`
}

// Classify returns A when (rc1, rc2) lies strictly inside the A
// rectangle, else B for the B rectangle, else Inconclusive.
func (b Bounds) Classify(rc1, rc2 float64) Label {
	switch {
	case b.RC1LoA < rc1 && rc1 < b.RC1HiA && b.RC2LoA < rc2 && rc2 < b.RC2HiA:
		return A
	case b.RC1LoB < rc1 && rc1 < b.RC1HiB && b.RC2LoB < rc2 && rc2 < b.RC2HiB:
		return B
	default:
		return Inconclusive
	}
}

// ClassifyPoint is Classify for a Coordinates value.
func (b Bounds) ClassifyPoint(c Coordinates) Label {
	return b.Classify(c.RC1, c.RC2)
}

// Validate reports rectangles whose low bound is not below the high bound.
func (b Bounds) Validate() error {
	var problems []string
	check := func(name string, lo, hi float64) {
		if !(lo < hi) {
			problems = append(problems, fmt.Sprintf("%s: low %g is not below high %g", name, lo, hi))
		}
	}
	check("rc1 A", b.RC1LoA, b.RC1HiA)
	check("rc2 A", b.RC2LoA, b.RC2HiA)
	check("rc1 B", b.RC1LoB, b.RC1HiB)
	check("rc2 B", b.RC2LoB, b.RC2HiB)
	if len(problems) > 0 {
		return aerr.Newf(aerr.CodeConfig, "invalid basin bounds: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Accepted reports whether the two halves of a trajectory connect the
// basins: one ends in A and the other in B.
func Accepted(forward, backward Label) bool {
	return (forward == A && backward == B) || (forward == B && backward == A)
}

// ParseConstraints reads the reaction coordinates from an MD constraint
// report: the second line holds a step value followed by rc1 and rc2.
func ParseConstraints(r io.Reader) (Coordinates, error) {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		if line < 2 {
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			return Coordinates{}, aerr.Newf(aerr.CodeDataFormat, "line 2: want 3 fields, got %d", len(fields))
		}
		var vals [3]float64
		for i := range vals {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return Coordinates{}, aerr.Newf(aerr.CodeDataFormat, "line 2 field %d: %q is not a number", i+1, fields[i])
			}
			vals[i] = v
		}
		return Coordinates{RC1: vals[1], RC2: vals[2]}, nil
	}
	if err := sc.Err(); err != nil {
		return Coordinates{}, aerr.Newf(aerr.CodeEnvironment, "read constraints: %w", err)
	}
	return Coordinates{}, aerr.Newf(aerr.CodeDataFormat, "constraint data has %d lines, need 2", line)
}

// ReadConstraints is ParseConstraints for a file.
func ReadConstraints(path string) (Coordinates, error) {
	f, err := os.Open(path)
	if err != nil {
		return Coordinates{}, aerr.Newf(aerr.CodeEnvironment, "open constraints: %w", err)
	}
	defer f.Close()
	c, err := ParseConstraints(f)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
