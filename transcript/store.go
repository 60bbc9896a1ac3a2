package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// StoreConfig holds configuration for transcript storage.
type StoreConfig struct {
	BaseDir string
}

// FileStore stores transcripts as JSON files.
type FileStore struct {
	baseDir string
	mu      sync.Mutex
}

// NewFileStore creates the base directory and returns a store rooted there.
func NewFileStore(config StoreConfig) (*FileStore, error) {
	if err := os.MkdirAll(config.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	return &FileStore{baseDir: config.BaseDir}, nil
}

// BaseDir returns the base directory for the store.
func (s *FileStore) BaseDir() string {
	return s.baseDir
}

// Save writes t, replacing any earlier write with the same id.
func (s *FileStore) Save(t *Transcript) error {
	if t == nil || t.ID == "" || t.ThreadID == "" {
		return ErrInvalid
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.threadDir(t.ThreadID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create thread dir: %w", err)
	}

	// Write then rename so readers never see a partial document.
	path := filepath.Join(dir, safeName(t.ID)+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// Load reads one transcript.
func (s *FileStore) Load(threadID, id string) (*Transcript, error) {
	path := filepath.Join(s.threadDir(threadID), safeName(id)+".json")
	return readFile(path)
}

// List returns metadata for every transcript of a thread, oldest first.
func (s *FileStore) List(threadID string) ([]Meta, error) {
	entries, err := os.ReadDir(s.threadDir(threadID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var metas []Meta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		t, err := readFile(filepath.Join(s.threadDir(threadID), entry.Name()))
		if err != nil {
			continue
		}
		metas = append(metas, t.Meta())
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].StartedAt.Before(metas[j].StartedAt)
	})
	return metas, nil
}

func (s *FileStore) threadDir(threadID string) string {
	return filepath.Join(s.baseDir, safeName(threadID))
}

func readFile(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", path, err)
	}
	return &t, nil
}

// safeName keeps identifiers from escaping the base directory.
func safeName(name string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	return r.Replace(name)
}
