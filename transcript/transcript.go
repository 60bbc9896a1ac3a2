package transcript

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no transcript matches.
	ErrNotFound = errors.New("transcript not found")

	// ErrInvalid is returned for a transcript without an ID or thread.
	ErrInvalid = errors.New("transcript requires id and thread id")
)

// Status is the outcome of one invocation.
type Status string

const (
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
	StatusDispatchFailed Status = "dispatch_failed"
)

// Transcript is the full record of one agent invocation.
type Transcript struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	Kind      string    `json:"kind"`
	Command   string    `json:"command"`
	Args      []string  `json:"args"`
	Dir       string    `json:"dir"`
	Prompt    string    `json:"prompt"`
	Output    string    `json:"output,omitempty"`
	ExitCode  int       `json:"exitCode"`
	Error     string    `json:"error,omitempty"`
	Status    Status    `json:"status"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
}

// Duration is the wall-clock time of the invocation.
func (t *Transcript) Duration() time.Duration {
	if t.EndedAt.IsZero() {
		return 0
	}
	return t.EndedAt.Sub(t.StartedAt)
}

// Meta summarises a transcript without its prompt and output.
func (t *Transcript) Meta() Meta {
	return Meta{
		ID:        t.ID,
		ThreadID:  t.ThreadID,
		Kind:      t.Kind,
		Status:    t.Status,
		ExitCode:  t.ExitCode,
		StartedAt: t.StartedAt,
		Duration:  t.Duration(),
	}
}

// Meta is a listing entry.
type Meta struct {
	ID        string
	ThreadID  string
	Kind      string
	Status    Status
	ExitCode  int
	StartedAt time.Time
	Duration  time.Duration
}

// Recorder persists transcripts.
type Recorder interface {
	Save(t *Transcript) error
}

// Nop discards transcripts.
type Nop struct{}

// Save implements Recorder.
func (Nop) Save(*Transcript) error { return nil }
