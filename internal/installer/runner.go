package installer

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/shinji-kodama/service-express/internal/logging"
)

// Streams are the standard streams handed to a child process.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// InheritStreams returns the current process's standard streams.
func InheritStreams() Streams {
	return Streams{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Runner starts external processes.
type Runner interface {
	// Run executes name with args in dir, wired to streams, and waits for it.
	// A non-zero exit surfaces as an *exec.ExitError.
	Run(ctx context.Context, dir string, streams Streams, name string, args ...string) error

	// Output executes name with args and returns its trimmed stdout.
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, dir string, streams Streams, name string, args ...string) error {
	logging.LogCommand(dir, name, args)

	// #nosec G204 -- the executable comes from operator configuration and the
	// arguments are package names validated against the preset schema.
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = streams.Stdin
	cmd.Stdout = streams.Stdout
	cmd.Stderr = streams.Stderr
	return cmd.Run()
}

// Output implements Runner.
func (ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	logging.LogCommand("", name, args)

	// #nosec G204 -- see Run.
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout strings.Builder
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}
