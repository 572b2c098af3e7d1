// Package execx is a thin wrapper around os/exec that supports injecting a
// fake Run function in tests.
package execx

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Command describes one external process invocation.
type Command struct {
	// Name of the executable, either an absolute path or a name resolved
	// via PATH.
	Name string
	Args []string
	Dir  string

	// Captured output, populated by Run.
	Stdout bytes.Buffer
	Stderr bytes.Buffer

	// Exit code of the process; -1 when the process did not run or was
	// killed by a signal.
	ExitCode int
}

// RunFn executes a command. The default implementation shells out; tests
// substitute their own.
type RunFn func(ctx context.Context, cmd *Command) error

var run RunFn = DefaultRun

// SetRunForTesting replaces the process runner and returns a function that
// restores the previous one.
func SetRunForTesting(f RunFn) (restore func()) {
	prev := run
	run = f
	return func() { run = prev }
}

// Run executes cmd, waiting for it to finish. A non-zero exit status is
// returned as an error that includes the captured stderr.
func Run(ctx context.Context, cmd *Command) error {
	return run(ctx, cmd)
}

func DefaultRun(ctx context.Context, cmd *Command) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = &cmd.Stdout
	c.Stderr = &cmd.Stderr

	err := c.Run()
	if c.ProcessState != nil {
		cmd.ExitCode = c.ProcessState.ExitCode()
	} else {
		cmd.ExitCode = -1
	}
	if err != nil {
		stderr := strings.TrimSpace(cmd.Stderr.String())
		if stderr != "" {
			return fmt.Errorf("%s: %w: %s", cmd.Name, err, stderr)
		}
		return fmt.Errorf("%s: %w", cmd.Name, err)
	}
	return nil
}

// Output runs the named command and returns its stdout.
func Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := &Command{Name: name, Args: args}
	if err := Run(ctx, cmd); err != nil {
		return "", err
	}
	return cmd.Stdout.String(), nil
}

// LookPath reports whether the named executable can be resolved via PATH.
func LookPath(name string) (string, bool) {
	path, err := exec.LookPath(name)
	return path, err == nil
}
