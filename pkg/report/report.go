// Package report renders path results as text, CSV and XLSX.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/quatton/aimless/pkg/aerr"
	"github.com/quatton/aimless/pkg/shooter"
)

// Format letters accepted by Parse.
const (
	Text Format = 't'
	CSV  Format = 'c'
	XLSX Format = 'x'
)

const (
	DefaultText = "aimless_results.txt"
	DefaultCSV  = "aimless_results.csv"
	DefaultXLSX = "aimless_results.xlsx"

	sheet = "paths"
)

// Format selects one report kind.
type Format byte

func (f Format) String() string {
	switch f {
	case Text:
		return "text"
	case CSV:
		return "csv"
	case XLSX:
		return "xlsx"
	default:
		return fmt.Sprintf("unknown(%c)", byte(f))
	}
}

// Parse reads a format string such as "tc". Duplicates are dropped;
// unknown letters are a config error.
func Parse(s string) ([]Format, error) {
	var out []Format
	seen := map[Format]bool{}
	for _, r := range strings.ToLower(s) {
		f := Format(r)
		switch f {
		case Text, CSV, XLSX:
		default:
			return nil, aerr.Newf(aerr.CodeConfig, "unknown report format %q", r)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

var header = []string{"path", "forward", "backward", "accepted"}

func yn(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

// WriteText writes a block per path followed by outcome totals.
func WriteText(w io.Writer, results []shooter.PathResult) error {
	var b strings.Builder
	for _, res := range results {
		fmt.Fprintf(&b, "%02d:\n", res.Path)
		fmt.Fprintf(&b, "\t%-8s: %s\n", "forward", res.Forward)
		fmt.Fprintf(&b, "\t%-8s: %s\n", "backward", res.Backward)
		fmt.Fprintf(&b, "\t%-8s: %s\n", "accepted", yn(res.Accepted))
	}
	sum := shooter.Summarize(results)
	b.WriteString("\n")
	fmt.Fprintf(&b, "%-8s: %2d\n", "Accepted", sum.Accepted)
	fmt.Fprintf(&b, "%-8s: %2d\n", "Rejected", sum.Rejected)
	fmt.Fprintf(&b, "%-8s: %2d\n", "Both A", sum.BothA)
	fmt.Fprintf(&b, "%-8s: %2d\n", "Both B", sum.BothB)
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteCSV writes one row per path under a path,forward,backward,accepted
// header.
func WriteCSV(w io.Writer, results []shooter.PathResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, res := range results {
		row := []string{strconv.Itoa(res.Path), string(res.Forward), string(res.Backward), yn(res.Accepted)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the CSV columns plus the final reaction coordinates to
// a single-sheet workbook.
func WriteXLSX(w io.Writer, results []shooter.PathResult) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	cols := append(append([]string{}, header...), "rc1_forward", "rc2_forward", "rc1_backward", "rc2_backward")
	for i, h := range cols {
		if err := f.SetCellValue(sheet, cell(i, 1), h); err != nil {
			return err
		}
	}
	for r, res := range results {
		row := []any{
			res.Path, string(res.Forward), string(res.Backward), yn(res.Accepted),
			res.ForwardRC.RC1, res.ForwardRC.RC2, res.BackwardRC.RC1, res.BackwardRC.RC2,
		}
		for i, v := range row {
			if err := f.SetCellValue(sheet, cell(i, r+2), v); err != nil {
				return err
			}
		}
	}
	_, err = f.WriteTo(w)
	return err
}

func cell(col, row int) string {
	name, _ := excelize.ColumnNumberToName(col + 1)
	return name + strconv.Itoa(row)
}

// Paths maps each format to its output file.
type Paths struct {
	Text string
	CSV  string
	XLSX string
}

func (p Paths) target(f Format) string {
	switch f {
	case Text:
		return orDefault(p.Text, DefaultText)
	case CSV:
		return orDefault(p.CSV, DefaultCSV)
	default:
		return orDefault(p.XLSX, DefaultXLSX)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// WriteFiles writes every requested format to its file and returns the
// files written.
func WriteFiles(formats []Format, paths Paths, results []shooter.PathResult) ([]string, error) {
	var written []string
	for _, f := range formats {
		target := paths.target(f)
		if err := writeFile(target, f, results); err != nil {
			return written, err
		}
		written = append(written, target)
	}
	return written, nil
}

func writeFile(target string, f Format, results []shooter.PathResult) error {
	out, err := os.Create(target)
	if err != nil {
		return aerr.Newf(aerr.CodeEnvironment, "create %s report: %w", f, err)
	}
	switch f {
	case Text:
		err = WriteText(out, results)
	case CSV:
		err = WriteCSV(out, results)
	default:
		err = WriteXLSX(out, results)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return aerr.Newf(aerr.CodeEnvironment, "write %s report %s: %w", f, target, err)
	}
	return nil
}
