package session

import (
	"errors"
	"testing"
)

func TestState_Predicates(t *testing.T) {
	tests := []struct {
		state    State
		terminal bool
		busy     bool
	}{
		{SelectingRepo, false, false},
		{AwaitingRequest, false, false},
		{Implementing, false, true},
		{AwaitingApproval, false, false},
		{Revising, false, true},
		{Finalizing, false, true},
		{MonitoringPR, false, false},
		{Completed, true, false},
		{Aborted, true, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
			if got := tt.state.Busy(); got != tt.busy {
				t.Errorf("Busy() = %v, want %v", got, tt.busy)
			}
			_, recovers := tt.state.Recovery()
			if recovers != tt.busy {
				t.Errorf("Recovery() ok = %v, want %v", recovers, tt.busy)
			}
		})
	}
}

func TestState_Recovery(t *testing.T) {
	tests := []struct {
		from State
		want State
	}{
		{Implementing, AwaitingRequest},
		{Revising, AwaitingApproval},
		{Finalizing, AwaitingApproval},
	}
	for _, tt := range tests {
		if got, _ := tt.from.Recovery(); got != tt.want {
			t.Errorf("%s.Recovery() = %s, want %s", tt.from, got, tt.want)
		}
	}
}

func TestParseState(t *testing.T) {
	for _, st := range allStates {
		got, err := ParseState(string(st))
		if err != nil || got != st {
			t.Errorf("ParseState(%q) = %q, %v", st, got, err)
		}
	}

	if got, err := ParseState(""); err != nil || got != SelectingRepo {
		t.Errorf("ParseState(\"\") = %q, %v, want SELECTING_REPO", got, err)
	}
	if _, err := ParseState("awaiting_approval"); !errors.Is(err, ErrUnknownState) {
		t.Errorf("ParseState(lowercase) error = %v, want ErrUnknownState", err)
	}
}
