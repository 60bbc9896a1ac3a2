package runner

import (
	"errors"
	"strings"
)

// ErrDispatch indicates a command could not be launched.
var ErrDispatch = errors.New("command dispatch failed")

// DispatchError wraps a launch failure with the command that was attempted.
type DispatchError struct {
	Command string   // Binary name or path
	Args    []string // Arguments passed to the binary
	Dir     string   // Working directory
	Err     error    // Underlying error from os/exec
}

func (e *DispatchError) Error() string {
	return "dispatch " + e.Command + ": " + e.Err.Error()
}

// Unwrap returns both ErrDispatch and the underlying cause.
func (e *DispatchError) Unwrap() []error {
	return []error{ErrDispatch, e.Err}
}

// CommandLine renders the command for logs. It is never executed.
func (e *DispatchError) CommandLine() string {
	if len(e.Args) == 0 {
		return e.Command
	}
	return e.Command + " " + strings.Join(e.Args, " ")
}
