package torque

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// Executor runs name with args, feeding stdin, and returns what the
// process wrote. A non-nil error means the process failed to start or
// exited non-zero; stdout and stderr are still returned.
type Executor func(ctx context.Context, stdin string, name string, args ...string) (stdout, stderr []byte, err error)

// ExecCommand is the Executor backed by os/exec.
func ExecCommand(ctx context.Context, stdin string, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
