package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// createTable is the schema as first deployed.
const createTable = `
CREATE TABLE IF NOT EXISTS feature_requests (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	thread_id     TEXT NOT NULL UNIQUE,
	state         TEXT,
	user_id       TEXT,
	channel_id    TEXT,
	repo_name     TEXT,
	repo_path     TEXT,
	request_text  TEXT,
	plan_thoughts TEXT,
	final_plan    TEXT,
	created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
	last_updated  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
)`

// columnMigrations are applied in order on every start. Append only.
var columnMigrations = []string{
	"ALTER TABLE feature_requests ADD COLUMN implementation_thoughts TEXT",
	"ALTER TABLE feature_requests ADD COLUMN final_summary TEXT",
	"ALTER TABLE feature_requests ADD COLUMN pr_url TEXT",
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_feature_requests_state ON feature_requests(state)",
}

// migrate creates the table and applies additive column changes.
// Only failure to create the base table is returned; column and index
// failures are logged and skipped.
func migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create feature_requests table: %w", err)
	}

	for _, stmt := range columnMigrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			if isDuplicateColumn(err) {
				continue
			}
			logger.Warn("schema migration failed", "statement", stmt, "error", err)
		}
	}

	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logger.Warn("index creation failed", "statement", stmt, "error", err)
		}
	}

	return nil
}

func isDuplicateColumn(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column")
}
