package store

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T, opts ...Option) *SQLiteStore {
	t.Helper()

	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "featureflow.db"), opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreate_AndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &Record{
		ThreadID:  "1700000000.000100",
		State:     "SELECTING_REPO",
		UserID:    "U123",
		ChannelID: "C456",
	}
	if err := s.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.CreatedAt.IsZero() || rec.LastUpdated.IsZero() {
		t.Error("Create should stamp CreatedAt and LastUpdated")
	}

	got, err := s.Get(ctx, rec.ThreadID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != "SELECTING_REPO" || got.UserID != "U123" || got.ChannelID != "C456" {
		t.Errorf("Get = %+v", got)
	}
	if got.RepoPath != "" {
		t.Errorf("RepoPath = %q, want empty", got.RepoPath)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not read back")
	}

	err = s.Update(ctx, rec.ThreadID, Update{
		ImplementationThoughts: String("pushed branch"),
		FinalSummary:           String("Added dark mode."),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err = s.Get(ctx, rec.ThreadID)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if got.ImplementationThoughts != "pushed branch" || got.FinalSummary != "Added dark mode." {
		t.Errorf("artifacts = %q / %q", got.ImplementationThoughts, got.FinalSummary)
	}
}

func TestCreate_RejectsDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, &Record{ThreadID: "t1", State: "SELECTING_REPO"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	err := s.Create(ctx, &Record{ThreadID: "t1", State: "AWAITING_REQUEST"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second Create error = %v, want ErrDuplicate", err)
	}

	got, err := s.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != "SELECTING_REPO" {
		t.Errorf("duplicate insert changed state to %q", got.State)
	}
}

func TestCreate_RequiresThreadID(t *testing.T) {
	s := openTestStore(t)
	if err := s.Create(context.Background(), &Record{}); err == nil {
		t.Error("expected error for empty thread id")
	}
}

func TestUpdate_PatchesOnlySuppliedFields(t *testing.T) {
	clock := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	s := openTestStore(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	if err := s.Create(ctx, &Record{ThreadID: "t1", State: "SELECTING_REPO", UserID: "U1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	clock = clock.Add(time.Minute)
	err := s.Update(ctx, "t1", Update{
		State:    String("AWAITING_REQUEST"),
		RepoName: String("gisbot"),
		RepoPath: String("/app/mnt/repos/gisbot"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := s.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != "AWAITING_REQUEST" || got.RepoPath != "/app/mnt/repos/gisbot" || got.RepoName != "gisbot" {
		t.Errorf("Get = %+v", got)
	}
	if got.UserID != "U1" {
		t.Errorf("UserID = %q, untouched field was overwritten", got.UserID)
	}
	if !got.LastUpdated.Equal(clock) {
		t.Errorf("LastUpdated = %v, want %v", got.LastUpdated, clock)
	}
	if !got.CreatedAt.Equal(clock.Add(-time.Minute)) {
		t.Errorf("CreatedAt = %v, should not move", got.CreatedAt)
	}
}

func TestUpdate_EmptyIsNoop(t *testing.T) {
	clock := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	s := openTestStore(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	if err := s.Create(ctx, &Record{ThreadID: "t1", State: "SELECTING_REPO"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	clock = clock.Add(time.Hour)
	if err := s.Update(ctx, "t1", Update{}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	// No row required for an empty update either.
	if err := s.Update(ctx, "missing", Update{}); err != nil {
		t.Fatalf("Update on missing thread with no fields: %v", err)
	}

	got, _ := s.Get(ctx, "t1")
	if !got.LastUpdated.Equal(clock.Add(-time.Hour)) {
		t.Errorf("LastUpdated moved on empty update: %v", got.LastUpdated)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	s := openTestStore(t)
	err := s.Update(context.Background(), "missing", Update{State: String("ABORTED")})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListOpen_ExcludesTerminal(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	records := []*Record{
		{ThreadID: "open-1", State: "AWAITING_APPROVAL"},
		{ThreadID: "done", State: StateCompleted},
		{ThreadID: "open-2", State: "MONITORING_PR", PRURL: "https://github.com/acme/app/pull/42"},
		{ThreadID: "aborted", State: StateAborted},
		{ThreadID: "no-state"},
	}
	for _, rec := range records {
		if err := s.Create(ctx, rec); err != nil {
			t.Fatalf("Create %s: %v", rec.ThreadID, err)
		}
	}

	open, err := s.ListOpen(ctx)
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}

	var ids []string
	for _, rec := range open {
		ids = append(ids, rec.ThreadID)
	}
	want := []string{"open-1", "open-2", "no-state"}
	if len(ids) != len(want) {
		t.Fatalf("ListOpen ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ListOpen[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
	if open[1].PRURL != "https://github.com/acme/app/pull/42" {
		t.Errorf("PRURL = %q", open[1].PRURL)
	}
}

func TestOpen_MigratesLegacySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	ctx := context.Background()

	// A database created before the later columns existed.
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec(createTable); err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO feature_requests (thread_id, state) VALUES ('old', 'AWAITING_APPROVAL')`); err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}
	db.Close()

	s, err := Open(ctx, path, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("Open legacy: %v", err)
	}
	defer s.Close()

	if err := s.Update(ctx, "old", Update{PRURL: String("https://github.com/acme/app/pull/7")}); err != nil {
		t.Fatalf("Update new column: %v", err)
	}
	got, err := s.Get(ctx, "old")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PRURL != "https://github.com/acme/app/pull/7" {
		t.Errorf("PRURL = %q", got.PRURL)
	}
	if got.CreatedAt.IsZero() {
		t.Error("default created_at not parsed")
	}
}

func TestOpen_ReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "featureflow.db")
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := Open(ctx, path, WithLogger(logger))
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := s.Create(ctx, &Record{ThreadID: "t1", State: "AWAITING_REQUEST"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	s.Close()

	// Second open re-applies every column migration; duplicates must be ignored.
	s, err = Open(ctx, path, WithLogger(logger))
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer s.Close()

	open, err := s.ListOpen(ctx)
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	if len(open) != 1 || open[0].ThreadID != "t1" {
		t.Errorf("ListOpen after reopen = %+v", open)
	}
}

func TestUpdate_Merge(t *testing.T) {
	a := Update{State: String("A"), RepoName: String("x")}
	b := Update{State: String("B"), PRURL: String("u")}

	m := a.Merge(b)
	if *m.State != "B" || *m.RepoName != "x" || *m.PRURL != "u" {
		t.Errorf("Merge = state %q repo %q pr %q", *m.State, *m.RepoName, *m.PRURL)
	}
	if (Update{}).IsEmpty() != true || m.IsEmpty() {
		t.Error("IsEmpty mismatch")
	}
}
