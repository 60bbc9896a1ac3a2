// Package testutil provides helpers shared by featureflow tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/featureflow/config"
	"github.com/randalmurphal/featureflow/store"
)

// TestContext returns a context that is canceled when the test ends.
func TestContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

// OpenStore opens a fresh SQLite store in a temporary directory. It is
// closed when the test ends.
func OpenStore(t *testing.T, opts ...store.Option) *store.SQLiteStore {
	t.Helper()

	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "featureflow.db"), opts...)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TempFile writes content to a file in a temporary directory and returns
// its path.
func TempFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file %s: %v", name, err)
	}
	return path
}

// RepoDirs creates one empty directory per name and returns a repository
// table pointing at them.
func RepoDirs(t *testing.T, names ...string) *config.Repos {
	t.Helper()

	root := t.TempDir()
	entries := make(map[string]string, len(names))
	for _, name := range names {
		dir := filepath.Join(root, name)
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatalf("create repo dir %s: %v", name, err)
		}
		entries[name] = dir
	}

	repos, err := config.NewRepos(entries)
	if err != nil {
		t.Fatalf("build repos: %v", err)
	}
	return repos
}
