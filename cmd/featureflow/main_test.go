package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/featureflow/chat"
	"github.com/randalmurphal/featureflow/metrics"
	"github.com/randalmurphal/featureflow/session"
	"github.com/randalmurphal/featureflow/store"
	"github.com/randalmurphal/featureflow/testutil"
	"github.com/randalmurphal/featureflow/transcript"
)

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	wd, wdErr := os.Getwd()
	if wdErr != nil {
		t.Fatalf("Getwd: %v", wdErr)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReposCmd(t *testing.T) {
	present := t.TempDir()
	file := testutil.TempFile(t, "repos.yaml", "repos:\n  webapp: "+present+"\n  ghost: /nonexistent/ghost\n")

	out, err := run(t, "repos", "--repos-file", file)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[1], "ghost")
	assert.True(t, strings.HasSuffix(lines[1], "no"))
	assert.Contains(t, lines[2], present)
	assert.True(t, strings.HasSuffix(lines[2], "yes"))
}

func TestReposCmd_Defaults(t *testing.T) {
	out, err := run(t, "repos")
	require.NoError(t, err)
	assert.Contains(t, out, "/app/mnt/repos/gisbot")
}

func TestRootCmd_InvalidSetting(t *testing.T) {
	_, err := run(t, "repos", "--poll-interval", "soon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_interval")
}

func TestSessionsCmd(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "ff.db")
	db, err := store.Open(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Create(ctx, &store.Record{
		ThreadID: "t-open", State: "AWAITING_APPROVAL", UserID: "U1", ChannelID: "C1",
		RepoName: "gisbot", RequestText: "add dark mode", FinalPlan: "Do X",
	}))
	require.NoError(t, db.Create(ctx, &store.Record{
		ThreadID: "t-done", State: store.StateCompleted, UserID: "U1", ChannelID: "C1",
	}))
	require.NoError(t, db.Close())

	out, err := run(t, "sessions", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "t-open")
	assert.Contains(t, out, "AWAITING_APPROVAL")
	assert.NotContains(t, out, "t-done")

	out, err = run(t, "sessions", "--db", dbPath, "--thread", "t-done")
	require.NoError(t, err)
	assert.Contains(t, out, "COMPLETED")

	out, err = run(t, "sessions", "--db", dbPath, "--thread", "t-open")
	require.NoError(t, err)
	assert.Contains(t, out, "Request:\nadd dark mode")
	assert.Contains(t, out, "Plan:\nDo X")

	_, err = run(t, "sessions", "--db", dbPath, "--thread", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTranscriptsCmd(t *testing.T) {
	dir := t.TempDir()
	fs, err := transcript.NewFileStore(transcript.StoreConfig{BaseDir: dir})
	require.NoError(t, err)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, fs.Save(&transcript.Transcript{
		ID: "inv-1", ThreadID: "t1", Kind: "plan", Command: "claude",
		Prompt: "Draft a plan for: add dark mode", Output: "thinking...\n<<<FINAL_PLAN>>>\nDo X",
		Status: transcript.StatusCompleted, StartedAt: start, EndedAt: start.Add(90 * time.Second),
	}))

	out, err := run(t, "transcripts", "t1", "--transcript-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "inv-1")
	assert.Contains(t, out, "plan")

	out, err = run(t, "transcripts", "t2", "--transcript-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No transcripts found.")

	out, err = run(t, "transcripts", "t1", "--id", "inv-1", "--transcript-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Duration:  1m30s")
	assert.Contains(t, out, "Prompt:\nDraft a plan for: add dark mode")
	assert.Contains(t, out, "Output:\nthinking...")

	_, err = run(t, "transcripts", "t1", "--id", "nope", "--transcript-dir", dir)
	assert.ErrorContains(t, err, "no transcript nope")
}

func TestRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db := testutil.OpenStore(t)

	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	sessions := session.NewRepository(db, session.WithActiveGauge(rec.SetActiveSessions))
	require.NoError(t, sessions.Create(ctx, session.Session{
		ThreadID: "t1", State: session.SelectingRepo, InitiatingUser: "U1", Channel: "C1",
	}))

	events, err := chat.NewEventsHandler("", func(context.Context, chat.Message) error { return nil })
	require.NoError(t, err)
	router := newRouter(events, sessions, reg)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, float64(1), health["active_sessions"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "featureflow_active_sessions 1")

	w = httptest.NewRecorder()
	body := `{"type":"url_verification","challenge":"abc"}`
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "abc")
}

func TestInvocationOutcome(t *testing.T) {
	tests := []struct {
		code int
		err  error
		want string
	}{
		{0, nil, "ok"},
		{3, nil, "nonzero_exit"},
		{-1, os.ErrNotExist, "dispatch_error"},
	}
	for _, tt := range tests {
		if got := invocationOutcome(tt.code, tt.err); got != tt.want {
			t.Errorf("invocationOutcome(%d, %v) = %q, want %q", tt.code, tt.err, got, tt.want)
		}
	}
}
