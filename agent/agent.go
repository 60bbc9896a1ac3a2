package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"

	"github.com/randalmurphal/featureflow/prompt"
	"github.com/randalmurphal/featureflow/runner"
	"github.com/randalmurphal/featureflow/transcript"
)

// Kind names the purpose of an invocation.
type Kind string

const (
	KindPlan      Kind = "plan"
	KindRevise    Kind = "revise"
	KindImplement Kind = "implement"
)

// Request carries everything an invocation needs.
type Request struct {
	ThreadID string
	RepoName string
	RepoPath string
	Request  string
	Plan     string
	Feedback string
}

// Outcome is a parsed invocation that ran to completion, with any exit code.
type Outcome struct {
	ID       string
	Kind     Kind
	Thoughts string
	Result   string
	Found    bool // delimiter present
	ExitCode int
	Output   string // combined stdout and stderr
	Duration time.Duration
}

// Failed reports a non-zero exit.
func (o *Outcome) Failed() bool {
	return o.ExitCode != 0
}

// Agent builds prompts and runs the coding-agent command.
type Agent struct {
	command  string
	runner   runner.CommandRunner
	prompts  *prompt.Loader
	recorder transcript.Recorder
	logger   *slog.Logger
	now      func() time.Time
	newID    func() (string, error)
	observe  func(kind Kind, exitCode int, err error, d time.Duration)
}

// Option configures an Agent.
type Option func(*Agent)

// WithPrompts sets the prompt loader.
func WithPrompts(l *prompt.Loader) Option {
	return func(a *Agent) { a.prompts = l }
}

// WithRecorder sets where transcripts are written.
func WithRecorder(r transcript.Recorder) Option {
	return func(a *Agent) { a.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// WithObserver registers a callback invoked after every invocation.
func WithObserver(fn func(kind Kind, exitCode int, err error, d time.Duration)) Option {
	return func(a *Agent) { a.observe = fn }
}

// New creates an Agent running command through r.
func New(command string, r runner.CommandRunner, opts ...Option) *Agent {
	a := &Agent{
		command:  command,
		runner:   r,
		prompts:  prompt.NewLoader(),
		recorder: transcript.Nop{},
		logger:   slog.Default(),
		now:      time.Now,
		newID:    func() (string, error) { return nanoid.New() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DraftPlan asks the agent for an implementation plan.
func (a *Agent) DraftPlan(ctx context.Context, req Request) (*Outcome, error) {
	return a.invoke(ctx, KindPlan, prompt.Plan, PlanDelimiter, req, map[string]any{
		"repo":    req.RepoName,
		"request": req.Request,
	})
}

// RevisePlan asks the agent to revise req.Plan given req.Feedback.
func (a *Agent) RevisePlan(ctx context.Context, req Request) (*Outcome, error) {
	return a.invoke(ctx, KindRevise, prompt.Revise, PlanDelimiter, req, map[string]any{
		"repo":     req.RepoName,
		"request":  req.Request,
		"plan":     req.Plan,
		"feedback": req.Feedback,
	})
}

// Implement asks the agent to implement req.Plan and open a pull request.
func (a *Agent) Implement(ctx context.Context, req Request) (*Outcome, error) {
	return a.invoke(ctx, KindImplement, prompt.Implement, SummaryDelimiter, req, map[string]any{
		"repo":    req.RepoName,
		"request": req.Request,
		"plan":    req.Plan,
	})
}

// invoke returns an error only when the command never produced output:
// a prompt that fails to render or a command that cannot be launched.
func (a *Agent) invoke(ctx context.Context, kind Kind, name, delimiter string, req Request, vars map[string]any) (*Outcome, error) {
	vars["delimiter"] = delimiter
	text, err := a.prompts.Render(name, vars)
	if err != nil {
		return nil, fmt.Errorf("build %s prompt: %w", kind, err)
	}

	id, err := a.newID()
	if err != nil {
		return nil, fmt.Errorf("generate invocation id: %w", err)
	}

	args := []string{"-y", "-p", text}
	logger := a.logger.With("thread_id", req.ThreadID, "invocation", id, "kind", string(kind))
	logger.Info("invoking agent", "command", a.command, "dir", req.RepoPath)

	tr := &transcript.Transcript{
		ID:        id,
		ThreadID:  req.ThreadID,
		Kind:      string(kind),
		Command:   a.command,
		Args:      args,
		Dir:       req.RepoPath,
		Prompt:    text,
		StartedAt: a.now(),
	}

	res, err := a.runner.Run(ctx, req.RepoPath, a.command, args...)
	tr.EndedAt = a.now()
	if err != nil {
		var de *runner.DispatchError
		if errors.As(err, &de) {
			logger = logger.With("command", de.CommandLine(), "dir", de.Dir)
		}
		logger.Error("agent dispatch failed", "error", err)
		tr.Status = transcript.StatusDispatchFailed
		tr.Error = err.Error()
		a.record(logger, tr)
		a.notify(kind, -1, err, tr.Duration())
		return nil, err
	}

	out := &Outcome{
		ID:       id,
		Kind:     kind,
		ExitCode: res.ExitCode,
		Output:   res.Combined(),
		Duration: res.Duration,
	}
	out.Thoughts, out.Result, out.Found = Split(out.Output, delimiter)

	tr.Output = out.Output
	tr.ExitCode = res.ExitCode
	tr.Status = transcript.StatusCompleted
	if res.Failed() {
		tr.Status = transcript.StatusFailed
	}
	a.record(logger, tr)
	a.notify(kind, res.ExitCode, nil, res.Duration)

	logger.Info("agent finished",
		"exit_code", res.ExitCode,
		"delimiter_found", out.Found,
		"duration", res.Duration,
	)
	return out, nil
}

func (a *Agent) record(logger *slog.Logger, tr *transcript.Transcript) {
	if err := a.recorder.Save(tr); err != nil {
		logger.Warn("failed to write transcript", "error", err)
	}
}

func (a *Agent) notify(kind Kind, exitCode int, err error, d time.Duration) {
	if a.observe != nil {
		a.observe(kind, exitCode, err, d)
	}
}
