package runner

import (
	"context"
	"sync"
)

// Call records a single invocation made through MockRunner.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// MockRunner is a CommandRunner for tests.
type MockRunner struct {
	// RunFunc, when set, produces the result for every call.
	RunFunc func(ctx context.Context, dir, name string, args ...string) (*Result, error)

	mu    sync.Mutex
	calls []Call
}

// Run implements CommandRunner.
func (m *MockRunner) Run(ctx context.Context, dir, name string, args ...string) (*Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Dir: dir, Name: name, Args: append([]string(nil), args...)})
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, dir, name, args...)
	}
	return &Result{}, nil
}

// Calls returns a copy of the recorded invocations.
func (m *MockRunner) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}
