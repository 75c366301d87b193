package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Runner performs one scrape for a single key. delay is empty when no delay
// was requested.
type Runner interface {
	Run(ctx context.Context, key, delay string) error
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context, key, delay string) error

// Run calls f(ctx, key, delay).
func (f RunnerFunc) Run(ctx context.Context, key, delay string) error {
	return f(ctx, key, delay)
}

// ExecRunner runs an external scraper process per key as
//
//	<Command> <Args...> [<DelayFlag> <delay>] <key>
//
// or, when DelayFlag is empty, with the delay as a second positional argument:
//
//	<Command> <Args...> <key> [<delay>]
//
// It blocks until the process exits.
type ExecRunner struct {
	Command   string
	Args      []string
	DelayFlag string

	// Stdout and Stderr default to the parent's when nil.
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner builds an ExecRunner from a program and its leading arguments.
func NewExecRunner(argv []string, delayFlag string) (*ExecRunner, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, fmt.Errorf("scraper command is empty")
	}
	return &ExecRunner{
		Command:   argv[0],
		Args:      argv[1:],
		DelayFlag: delayFlag,
	}, nil
}

// Argv returns the arguments passed to Command for one key.
func (r *ExecRunner) Argv(key, delay string) []string {
	args := make([]string, 0, len(r.Args)+3)
	args = append(args, r.Args...)
	if delay == "" {
		return append(args, key)
	}
	if r.DelayFlag == "" {
		return append(args, key, delay)
	}
	return append(args, r.DelayFlag, delay, key)
}

// Run starts the scraper for key and waits for it. A non-zero exit status is
// returned as an error.
func (r *ExecRunner) Run(ctx context.Context, key, delay string) error {
	cmd := exec.CommandContext(ctx, r.Command, r.Argv(key, delay)...)
	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("scraper exited with status %d: %w", exitErr.ExitCode(), err)
		}
		return fmt.Errorf("failed to run scraper: %w", err)
	}
	return nil
}
