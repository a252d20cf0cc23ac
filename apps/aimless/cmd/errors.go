package cmd

import (
	"fmt"
	"os"

	"github.com/quatton/aimless/pkg/aerr"
)

// exitIfError prints err with a hint for its category and exits.
func exitIfError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "aimless: %v\n", err)
	switch aerr.CodeOf(err) {
	case aerr.CodeConfig:
		fmt.Fprintln(os.Stderr, "check aimless.yaml or the AIMLESS_* environment")
	case aerr.CodeTemplate:
		fmt.Fprintln(os.Stderr, "check the templates in main.tpldir")
	case aerr.CodeSubmission, aerr.CodeStatusParsing:
		fmt.Fprintln(os.Stderr, "the scheduler rejected a request; job files are left in main.tgtdir")
	case aerr.CodeDataFormat:
		fmt.Fprintln(os.Stderr, "an MD output file was malformed; the path's files are left in main.tgtdir")
	}
	os.Exit(1)
}
