package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// foldKey case-folds a name. Casers are stateful, so each call gets its own.
func foldKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Repo is one entry of the repository table.
type Repo struct {
	Name string
	Path string
}

// Repos is an immutable, case-insensitive repository name to path table.
type Repos struct {
	byKey map[string]Repo
	names []string
}

// NewRepos builds a table. Names that fold to the same key are rejected.
func NewRepos(entries map[string]string) (*Repos, error) {
	r := &Repos{byKey: make(map[string]Repo, len(entries))}
	for name, path := range entries {
		name = strings.TrimSpace(name)
		if name == "" || path == "" {
			return nil, fmt.Errorf("repository entry %q: name and path are required", name)
		}
		key := foldKey(name)
		if existing, dup := r.byKey[key]; dup {
			return nil, fmt.Errorf("repository %q conflicts with %q", name, existing.Name)
		}
		r.byKey[key] = Repo{Name: name, Path: path}
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// DefaultRepos is the built-in table used when no repos_file is configured.
func DefaultRepos() *Repos {
	r, err := NewRepos(map[string]string{
		"gisbot":   "/app/mnt/repos/gisbot",
		"atlas":    "/app/mnt/repos/atlas",
		"tileserv": "/app/mnt/repos/tileserv",
	})
	if err != nil {
		panic(err) // static table
	}
	return r
}

// LoadRepos reads a YAML file with a top-level "repos" mapping.
func LoadRepos(path string) (*Repos, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read repos file: %w", err)
	}

	var file struct {
		Repos map[string]string `yaml:"repos"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse repos file %s: %w", path, err)
	}
	if len(file.Repos) == 0 {
		return nil, fmt.Errorf("repos file %s defines no repositories", path)
	}
	return NewRepos(file.Repos)
}

// Lookup finds a repository by name, ignoring case and surrounding space.
func (r *Repos) Lookup(name string) (Repo, bool) {
	repo, ok := r.byKey[foldKey(name)]
	return repo, ok
}

// Names returns the configured names in sorted order.
func (r *Repos) Names() []string {
	return append([]string(nil), r.names...)
}

// Len returns the number of repositories.
func (r *Repos) Len() int {
	return len(r.names)
}
