// Package restart derives the time-reversed restart file that seeds the
// backward half of a shooting trajectory.
package restart

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/quatton/aimless/pkg/aerr"
)

const (
	// FloatFormat renders one negated velocity component.
	FloatFormat = " % 11.7f"
	// StampLayout is the generator-line timestamp format.
	StampLayout = "2006-01-02 15:04:05"

	generator = "aimless"
)

// Reverse copies the restart read from src to dst with every velocity
// negated. Coordinates and the box line are copied verbatim; the title is
// replaced with a generator line stamped with now.
func Reverse(src io.Reader, dst io.Writer, now time.Time) error {
	data, err := io.ReadAll(src)
	if err != nil {
		return aerr.Newf(aerr.CodeEnvironment, "read restart: %w", err)
	}
	text := string(data)
	trailingNL := strings.HasSuffix(text, "\n")
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")

	if len(lines) < 2 {
		return aerr.Newf(aerr.CodeDataFormat, "restart has %d lines, need a title and an atom count", len(lines))
	}
	countFields := strings.Fields(lines[1])
	if len(countFields) == 0 {
		return aerr.Newf(aerr.CodeDataFormat, "line 2: missing atom count")
	}
	atoms, err := strconv.ParseFloat(countFields[0], 64)
	if err != nil || atoms < 0 || math.IsNaN(atoms) || math.IsInf(atoms, 0) {
		return aerr.Newf(aerr.CodeDataFormat, "line 2: bad atom count %q", countFields[0])
	}
	if atoms/2 > float64(len(lines)) {
		return aerr.Newf(aerr.CodeDataFormat, "restart for %g atoms needs more than the %d lines present", atoms, len(lines))
	}
	// Two atoms (six values) per line.
	block := int(math.Ceil(atoms / 2))
	if want := 2 + 2*block + 1; len(lines) < want {
		return aerr.Newf(aerr.CodeDataFormat, "restart for %d atoms needs %d lines, got %d", int(atoms), want, len(lines))
	}

	w := bufio.NewWriter(dst)
	title := ""
	if f := strings.Fields(lines[0]); len(f) > 0 {
		title = f[0]
	}
	fmt.Fprintf(w, "%s Made by %s at %s\n", title, generator, now.Format(StampLayout))
	w.WriteString(lines[1] + "\n")

	for _, line := range lines[2 : 2+block] {
		w.WriteString(line + "\n")
	}
	for i, line := range lines[2+block : 2+2*block] {
		var b strings.Builder
		for _, field := range strings.Fields(line) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return aerr.Newf(aerr.CodeDataFormat, "line %d: bad velocity %q", 3+block+i, field)
			}
			fmt.Fprintf(&b, FloatFormat, -v)
		}
		w.WriteString(b.String() + "\n")
	}

	w.WriteString(lines[len(lines)-1])
	if trailingNL {
		w.WriteString("\n")
	}
	if err := w.Flush(); err != nil {
		return aerr.Newf(aerr.CodeEnvironment, "write restart: %w", err)
	}
	return nil
}

// ReverseFile writes the reversal of the restart at src to dst.
func ReverseFile(src, dst string, now time.Time) error {
	in, err := os.Open(src)
	if err != nil {
		return aerr.Newf(aerr.CodeEnvironment, "open forward restart: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return aerr.Newf(aerr.CodeEnvironment, "create backward restart: %w", err)
	}
	if err := Reverse(in, out, now); err != nil {
		out.Close()
		return fmt.Errorf("%s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return aerr.Newf(aerr.CodeEnvironment, "close backward restart: %w", err)
	}
	return nil
}
