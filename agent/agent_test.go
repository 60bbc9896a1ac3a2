package agent

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/randalmurphal/featureflow/runner"
	"github.com/randalmurphal/featureflow/transcript"
)

type memRecorder struct {
	mu    sync.Mutex
	saved []*transcript.Transcript
}

func (m *memRecorder) Save(t *transcript.Transcript) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, t)
	return nil
}

func stdout(s string) func(context.Context, string, string, ...string) (*runner.Result, error) {
	return func(context.Context, string, string, ...string) (*runner.Result, error) {
		return &runner.Result{Stdout: s, Duration: time.Second}, nil
	}
}

func TestAgent_DraftPlan(t *testing.T) {
	mock := &runner.MockRunner{RunFunc: stdout("thinking...\n<<<FINAL_PLAN>>>\nDo X, Y, Z")}
	rec := &memRecorder{}
	a := New("claude", mock, WithRecorder(rec))

	out, err := a.DraftPlan(context.Background(), Request{
		ThreadID: "t1",
		RepoName: "gisbot",
		RepoPath: "/app/mnt/repos/gisbot",
		Request:  "add dark mode",
	})
	if err != nil {
		t.Fatalf("DraftPlan: %v", err)
	}

	if out.Thoughts != "thinking..." {
		t.Errorf("Thoughts = %q, want %q", out.Thoughts, "thinking...")
	}
	if out.Result != "Do X, Y, Z" {
		t.Errorf("Result = %q, want %q", out.Result, "Do X, Y, Z")
	}
	if !out.Found || out.Failed() || out.Kind != KindPlan {
		t.Errorf("Outcome = %+v", out)
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	call := calls[0]
	if call.Name != "claude" || call.Dir != "/app/mnt/repos/gisbot" {
		t.Errorf("call = %s in %s", call.Name, call.Dir)
	}
	if len(call.Args) != 3 || call.Args[0] != "-y" || call.Args[1] != "-p" {
		t.Fatalf("args = %q, want [-y -p <prompt>]", call.Args)
	}
	if !strings.Contains(call.Args[2], "add dark mode") {
		t.Errorf("prompt does not contain request: %q", call.Args[2])
	}
	if !strings.Contains(call.Args[2], PlanDelimiter) {
		t.Errorf("prompt does not mention delimiter")
	}

	if len(rec.saved) != 1 {
		t.Fatalf("transcripts = %d, want 1", len(rec.saved))
	}
	tr := rec.saved[0]
	if tr.ThreadID != "t1" || tr.ID == "" || tr.ID != out.ID || tr.Status != transcript.StatusCompleted {
		t.Errorf("transcript = %+v", tr)
	}
}

func TestAgent_RevisePlanPrompt(t *testing.T) {
	mock := &runner.MockRunner{RunFunc: stdout("<<<FINAL_PLAN>>>\nv2")}
	a := New("claude", mock)

	out, err := a.RevisePlan(context.Background(), Request{
		RepoName: "atlas",
		RepoPath: "/repo",
		Request:  "add dark mode",
		Plan:     "Do X",
		Feedback: "skip the footer; use $(rm -rf /) as a name",
	})
	if err != nil {
		t.Fatalf("RevisePlan: %v", err)
	}
	if out.Result != "v2" || out.Kind != KindRevise {
		t.Errorf("Outcome = %+v", out)
	}

	p := mock.Calls()[0].Args[2]
	for _, want := range []string{"add dark mode", "Do X", "skip the footer; use $(rm -rf /) as a name"} {
		if !strings.Contains(p, want) {
			t.Errorf("revise prompt missing %q", want)
		}
	}
}

func TestAgent_ImplementNonZeroExit(t *testing.T) {
	mock := &runner.MockRunner{RunFunc: func(context.Context, string, string, ...string) (*runner.Result, error) {
		return &runner.Result{
			Stdout:   "partial work\n<<<FINAL_SUMMARY>>>\nOpened https://github.com/acme/app/pull/42",
			Stderr:   "warning: something",
			ExitCode: 1,
		}, nil
	}}
	rec := &memRecorder{}
	var observed []int
	a := New("claude", mock, WithRecorder(rec), WithObserver(func(_ Kind, code int, _ error, _ time.Duration) {
		observed = append(observed, code)
	}))

	out, err := a.Implement(context.Background(), Request{RepoPath: "/repo", ThreadID: "t", Plan: "Do X"})
	if err != nil {
		t.Fatalf("Implement: %v", err)
	}
	if !out.Failed() || out.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", out.ExitCode)
	}
	if !strings.Contains(out.Output, "warning: something") {
		t.Errorf("Output missing stderr: %q", out.Output)
	}
	if !strings.HasPrefix(out.Result, "Opened https://github.com/acme/app/pull/42") {
		t.Errorf("Result = %q", out.Result)
	}
	if rec.saved[0].Status != transcript.StatusFailed {
		t.Errorf("transcript status = %q, want failed", rec.saved[0].Status)
	}
	if len(observed) != 1 || observed[0] != 1 {
		t.Errorf("observed = %v", observed)
	}
}

func TestAgent_DispatchError(t *testing.T) {
	dispatchErr := &runner.DispatchError{Command: "claude", Args: []string{"-p", "plan it"}, Dir: "/repo", Err: exec.ErrNotFound}
	mock := &runner.MockRunner{RunFunc: func(context.Context, string, string, ...string) (*runner.Result, error) {
		return nil, dispatchErr
	}}
	rec := &memRecorder{}
	var logs bytes.Buffer
	a := New("claude", mock, WithRecorder(rec),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	out, err := a.DraftPlan(context.Background(), Request{ThreadID: "t", RepoPath: "/repo", Request: "x"})
	if out != nil {
		t.Errorf("Outcome = %+v, want nil", out)
	}
	if !errors.Is(err, runner.ErrDispatch) {
		t.Errorf("error = %v, want ErrDispatch", err)
	}
	if len(rec.saved) != 1 || rec.saved[0].Status != transcript.StatusDispatchFailed {
		t.Errorf("transcript not recorded as dispatch failure")
	}
	if !strings.Contains(logs.String(), `command="claude -p plan it"`) {
		t.Errorf("dispatch log lacks the command line: %s", logs.String())
	}
}
