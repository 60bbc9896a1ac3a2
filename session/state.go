package session

import "fmt"

// State is a workflow state.
type State string

const (
	SelectingRepo    State = "SELECTING_REPO"
	AwaitingRequest  State = "AWAITING_REQUEST"
	Implementing     State = "IMPLEMENTING"
	AwaitingApproval State = "AWAITING_APPROVAL"
	Revising         State = "REVISING"
	Finalizing       State = "FINALIZING"
	MonitoringPR     State = "MONITORING_PR"
	Completed        State = "COMPLETED"
	Aborted          State = "ABORTED"
)

var allStates = []State{
	SelectingRepo, AwaitingRequest, Implementing, AwaitingApproval,
	Revising, Finalizing, MonitoringPR, Completed, Aborted,
}

// ParseState converts a stored state name. An empty name is a record
// created before its first transition and maps to SelectingRepo.
func ParseState(s string) (State, error) {
	if s == "" {
		return SelectingRepo, nil
	}
	for _, st := range allStates {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownState, s)
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == Completed || s == Aborted
}

// Busy reports whether an agent invocation is outstanding in this state.
func (s State) Busy() bool {
	return s == Implementing || s == Revising || s == Finalizing
}

// Recovery returns the state a busy session resumes in after a restart,
// when the invocation it was waiting for is gone.
func (s State) Recovery() (State, bool) {
	switch s {
	case Implementing:
		return AwaitingRequest, true
	case Revising, Finalizing:
		return AwaitingApproval, true
	default:
		return s, false
	}
}

func (s State) String() string {
	return string(s)
}
