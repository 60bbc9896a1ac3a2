package pr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/randalmurphal/featureflow/runner"
)

// State is a pull request state as reported by the hosting service.
type State string

const (
	StateOpen   State = "OPEN"
	StateMerged State = "MERGED"
	StateClosed State = "CLOSED"
)

// Done reports whether the pull request will not change any more.
func (s State) Done() bool {
	return s == StateMerged || s == StateClosed
}

// ParseState accepts the three known states in any case.
func ParseState(s string) (State, error) {
	switch st := State(strings.ToUpper(strings.TrimSpace(s))); st {
	case StateOpen, StateMerged, StateClosed:
		return st, nil
	default:
		return "", fmt.Errorf("%w: state %q", ErrMalformedResponse, s)
	}
}

// StatusChecker fetches the current state of a pull request.
type StatusChecker interface {
	Status(ctx context.Context, url string) (State, error)
}

// CLIChecker asks the gh CLI for pull request status.
type CLIChecker struct {
	command string
	runner  runner.CommandRunner
}

// NewCLIChecker creates a checker running command (normally "gh").
func NewCLIChecker(command string, r runner.CommandRunner) *CLIChecker {
	return &CLIChecker{command: command, runner: r}
}

// Status implements StatusChecker.
func (c *CLIChecker) Status(ctx context.Context, url string) (State, error) {
	res, err := c.runner.Run(ctx, "", c.command, "pr", "view", url, "--json", "state")
	if err != nil {
		return "", err
	}
	if res.Failed() {
		return "", fmt.Errorf("%s pr view exited %d: %s", c.command, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	if !gjson.Valid(res.Stdout) {
		return "", fmt.Errorf("%w: %q", ErrMalformedResponse, strings.TrimSpace(res.Stdout))
	}
	field := gjson.Get(res.Stdout, "state")
	if !field.Exists() {
		return "", fmt.Errorf("%w: no state field", ErrMalformedResponse)
	}
	return ParseState(field.String())
}

// MockChecker is a StatusChecker for tests.
type MockChecker struct {
	StatusFunc func(ctx context.Context, url string) (State, error)

	mu    sync.Mutex
	calls []string
}

// Status implements StatusChecker.
func (m *MockChecker) Status(ctx context.Context, url string) (State, error) {
	m.mu.Lock()
	m.calls = append(m.calls, url)
	m.mu.Unlock()
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, url)
	}
	return StateOpen, nil
}

// Calls returns the URLs checked so far.
func (m *MockChecker) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
