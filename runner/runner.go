package runner

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"time"
)

// CommandRunner executes an external command in a working directory.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (*Result, error)
}

// Result holds the outcome of a command that ran to completion.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Combined joins stdout and stderr the way downstream parsers expect them.
func (r *Result) Combined() string {
	return r.Stdout + "\n" + r.Stderr
}

// Failed reports whether the command exited with a non-zero status.
func (r *Result) Failed() bool {
	return r.ExitCode != 0
}

// ExecRunner runs commands with os/exec.
// The child inherits the full environment of this process.
type ExecRunner struct {
	logger *slog.Logger
}

// Option configures ExecRunner.
type Option func(*ExecRunner)

// WithLogger sets the logger used for command tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(r *ExecRunner) {
		r.logger = logger
	}
}

// NewExecRunner creates a runner backed by os/exec.
func NewExecRunner(opts ...Option) *ExecRunner {
	r := &ExecRunner{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes name with args in dir. Each argument is passed to the child
// as its own argv entry; nothing is interpreted by a shell.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running command", "command", name, "dir", dir, "args", len(args))

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &DispatchError{Command: name, Args: args, Dir: dir, Err: err}
	}
	err := cmd.Wait()
	duration := time.Since(start)

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, &DispatchError{Command: name, Args: args, Dir: dir, Err: err}
		}
		result.ExitCode = exitErr.ExitCode()
	}

	r.logger.Debug("command finished",
		"command", name,
		"exit_code", result.ExitCode,
		"duration", duration,
	)

	return result, nil
}
