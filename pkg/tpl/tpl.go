// Package tpl fills $-placeholder templates used for MD input decks and
// job scripts.
//
// Placeholders are $name or ${name}; $$ is a literal dollar sign. Names
// missing from the parameter map, and any other use of $, are left as
// written so scheduler and shell variables survive.
package tpl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/quatton/aimless/pkg/aerr"
)

var placeholder = regexp.MustCompile(`\$(?:(\$)|([_A-Za-z][_A-Za-z0-9]*)|\{([_A-Za-z][_A-Za-z0-9]*)\})`)

// Substitute fills the placeholders in text from params.
func Substitute(text string, params map[string]string) string {
	var b strings.Builder
	last := 0
	for _, m := range placeholder.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(text[last:m[0]])
		last = m[1]
		switch {
		case m[2] >= 0:
			b.WriteString("$")
		case m[4] >= 0:
			writeParam(&b, text[m[0]:m[1]], text[m[4]:m[5]], params)
		case m[6] >= 0:
			writeParam(&b, text[m[0]:m[1]], text[m[6]:m[7]], params)
		}
	}
	b.WriteString(text[last:])
	return b.String()
}

func writeParam(b *strings.Builder, raw, name string, params map[string]string) {
	if v, ok := params[name]; ok {
		b.WriteString(v)
		return
	}
	b.WriteString(raw)
}

// Render reads the template at path and fills it from params.
func Render(path string, params map[string]string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", aerr.Newf(aerr.CodeTemplate, "couldn't read template '%s': %w", path, err)
	}
	return Substitute(string(data), params), nil
}

// Target ties a template to the input file it produces.
type Target struct {
	Template string
	Output   string
	Purpose  string
}

// Inputs are the MD input decks written once before the first path.
var Inputs = []Target{
	{"cons.tpl", "cons.rst", "force constants are zero - this is just to get final bond lengths"},
	{"instarter.tpl", "instarter.in", "generate the velocities for this shooting point"},
	{"indt.tpl", "indt.in", "change in time for the trajectory"},
	{"inforward.tpl", "inforward.in", "forward portion of the trajectory"},
	{"inbackward.tpl", "inbackward.in", "backward portion of the trajectory"},
}

// WriteInputs fills every template in Inputs from tplDir into tgtDir.
// tgtDir is created if needed.
func WriteInputs(tplDir, tgtDir string, params map[string]string) error {
	return WriteTargets(Inputs, tplDir, tgtDir, params)
}

// WriteTargets fills targets from tplDir into tgtDir.
func WriteTargets(targets []Target, tplDir, tgtDir string, params map[string]string) error {
	info, err := os.Stat(tplDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return aerr.Newf(aerr.CodeEnvironment, "template directory '%s' does not exist", tplDir)
		}
		return aerr.Newf(aerr.CodeEnvironment, "template directory '%s': %w", tplDir, err)
	}
	if !info.IsDir() {
		return aerr.Newf(aerr.CodeEnvironment, "template directory '%s' is not a directory", tplDir)
	}
	if err := os.MkdirAll(tgtDir, 0o755); err != nil {
		return aerr.Newf(aerr.CodeEnvironment, "create target directory '%s': %w", tgtDir, err)
	}

	for _, t := range targets {
		src := filepath.Join(tplDir, t.Template)
		data, err := os.ReadFile(src)
		if err != nil {
			return aerr.Newf(aerr.CodeTemplate,
				"couldn't read template '%s' (this template creates '%s' for '%s'): %w",
				src, t.Output, t.Purpose, err)
		}
		dst := filepath.Join(tgtDir, t.Output)
		if err := os.WriteFile(dst, []byte(Substitute(string(data), params)), 0o644); err != nil {
			return aerr.Newf(aerr.CodeEnvironment, "couldn't write target '%s': %w", dst, err)
		}
	}
	return nil
}

// Params converts typed values into the flat string map templates use.
func Params(values map[string]any) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = fmt.Sprint(v)
	}
	return out
}
