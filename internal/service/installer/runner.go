package installer

import (
	"context"
	"os"
	"os/exec"
)

// Runner executes external commands. It exists so tests can substitute the
// real installer with a recorder.
type Runner interface {
	// Run executes the command, streaming its output to the parent process.
	Run(ctx context.Context, name string, args ...string) error
	// Output executes the command and returns its standard output.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner is the production Runner backed by os/exec.
type execRunner struct{}

// NewExecRunner returns a Runner that executes real processes.
//
//nolint:ireturn // The seam is the interface, callers never need the concrete type.
func NewExecRunner() Runner {
	return execRunner{}
}

// Run executes the command with stdout/stderr attached to the parent, so the
// installer's own progress output reaches the build log untouched.
func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// Output executes the command and captures its standard output.
func (execRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
