package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

const selectColumns = `thread_id, state, user_id, channel_id, repo_name, repo_path,
	request_text, plan_thoughts, final_plan, implementation_thoughts,
	final_summary, pr_url, created_at, last_updated`

// SQLiteStore persists feature requests in SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Option configures SQLiteStore.
type Option func(*SQLiteStore)

// WithLogger sets the logger for migration warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLiteStore) {
		s.logger = logger
	}
}

// WithClock overrides the time source for last_updated.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrate(ctx, db, s.logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.db = db
	return s, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create inserts a new record. Returns ErrDuplicate if the thread exists.
func (s *SQLiteStore) Create(ctx context.Context, rec *Record) error {
	if rec.ThreadID == "" {
		return fmt.Errorf("create feature request: thread id is required")
	}

	now := s.now().UTC()
	created := rec.CreatedAt
	if created.IsZero() {
		created = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feature_requests (
			thread_id, state, user_id, channel_id, repo_name, repo_path,
			request_text, plan_thoughts, final_plan, implementation_thoughts,
			final_summary, pr_url, created_at, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ThreadID, nullable(rec.State), nullable(rec.UserID), nullable(rec.ChannelID),
		nullable(rec.RepoName), nullable(rec.RepoPath), nullable(rec.RequestText),
		nullable(rec.PlanThoughts), nullable(rec.FinalPlan), nullable(rec.ImplementationThoughts),
		nullable(rec.FinalSummary), nullable(rec.PRURL),
		created.Format(timeLayout), now.Format(timeLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicate, rec.ThreadID)
		}
		return fmt.Errorf("create feature request: %w", err)
	}

	rec.CreatedAt = created
	rec.LastUpdated = now
	return nil
}

// Update patches the supplied fields and bumps last_updated.
// An empty update is a no-op and does not touch last_updated.
func (s *SQLiteStore) Update(ctx context.Context, threadID string, u Update) error {
	cols := u.columns()
	if len(cols) == 0 {
		return nil
	}

	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+2)
	for _, c := range cols {
		sets = append(sets, c.name+" = ?")
		args = append(args, c.value)
	}
	sets = append(sets, "last_updated = ?")
	args = append(args, s.now().UTC().Format(timeLayout), threadID)

	query := "UPDATE feature_requests SET " + strings.Join(sets, ", ") + " WHERE thread_id = ?"
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update feature request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update feature request: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, threadID)
	}
	return nil
}

// Get returns the record for a thread.
func (s *SQLiteStore) Get(ctx context.Context, threadID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM feature_requests WHERE thread_id = ?", threadID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, threadID)
	}
	if err != nil {
		return nil, fmt.Errorf("get feature request: %w", err)
	}
	return rec, nil
}

// ListOpen returns every record whose state is NULL or not terminal,
// oldest first.
func (s *SQLiteStore) ListOpen(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+selectColumns+`
		FROM feature_requests
		WHERE state IS NULL OR state NOT IN (?, ?)
		ORDER BY id`, StateCompleted, StateAborted)
	if err != nil {
		return nil, fmt.Errorf("list open feature requests: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list open feature requests: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list open feature requests: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec                                            Record
		state, user, channel, repoName, repoPath       sql.NullString
		request, planThoughts, finalPlan, implThoughts sql.NullString
		summary, prURL                                 sql.NullString
		createdAt, lastUpdated                         string
	)

	if err := row.Scan(&rec.ThreadID, &state, &user, &channel, &repoName, &repoPath,
		&request, &planThoughts, &finalPlan, &implThoughts, &summary, &prURL,
		&createdAt, &lastUpdated); err != nil {
		return nil, err
	}

	rec.State = state.String
	rec.UserID = user.String
	rec.ChannelID = channel.String
	rec.RepoName = repoName.String
	rec.RepoPath = repoPath.String
	rec.RequestText = request.String
	rec.PlanThoughts = planThoughts.String
	rec.FinalPlan = finalPlan.String
	rec.ImplementationThoughts = implThoughts.String
	rec.FinalSummary = summary.String
	rec.PRURL = prURL.String
	rec.CreatedAt = parseTime(createdAt)
	rec.LastUpdated = parseTime(lastUpdated)

	return &rec, nil
}

func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
