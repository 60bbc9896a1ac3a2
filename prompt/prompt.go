package prompt

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"
)

//go:embed prompts/*.txt
var embeddedPrompts embed.FS

// Template names.
const (
	Plan      = "plan"
	Revise    = "revise"
	Implement = "implement"
)

// ErrNotFound is returned when no template with the given name exists.
var ErrNotFound = errors.New("prompt not found")

// Loader loads and renders prompt templates. It is safe for concurrent use.
type Loader struct {
	dir     string
	funcMap template.FuncMap

	mu    sync.Mutex
	cache map[string]*template.Template
}

// Option configures a Loader.
type Option func(*Loader)

// WithDir sets the override directory searched before the embedded prompts.
func WithDir(dir string) Option {
	return func(l *Loader) {
		l.dir = dir
	}
}

// WithFunc adds a template function.
func WithFunc(name string, fn any) Option {
	return func(l *Loader) {
		l.funcMap[name] = fn
	}
}

// NewLoader creates a prompt loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		funcMap: defaultFuncMap(),
		cache:   make(map[string]*template.Template),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Render executes the named template with vars.
func (l *Loader) Render(name string, vars map[string]any) (string, error) {
	tmpl, err := l.template(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return buf.String(), nil
}

// Exists reports whether a template can be loaded.
func (l *Loader) Exists(name string) bool {
	_, err := l.loadRaw(name)
	return err == nil
}

// List returns every available template name, sorted.
func (l *Loader) List() []string {
	seen := make(map[string]bool)
	collect := func(entries []os.DirEntry) {
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".txt") {
				seen[strings.TrimSuffix(entry.Name(), ".txt")] = true
			}
		}
	}

	if l.dir != "" {
		if entries, err := os.ReadDir(l.dir); err == nil {
			collect(entries)
		}
	}
	if entries, err := embeddedPrompts.ReadDir("prompts"); err == nil {
		collect(entries)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *Loader) template(name string) (*template.Template, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tmpl, ok := l.cache[name]; ok {
		return tmpl, nil
	}

	content, err := l.loadRaw(name)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Funcs(l.funcMap).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
	}
	l.cache[name] = tmpl
	return tmpl, nil
}

func (l *Loader) loadRaw(name string) (string, error) {
	filename := name + ".txt"

	if l.dir != "" {
		if data, err := os.ReadFile(filepath.Join(l.dir, filename)); err == nil {
			return string(data), nil
		}
	}

	data, err := embeddedPrompts.ReadFile("prompts/" + filename)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return string(data), nil
}

func defaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"trim":   strings.TrimSpace,
		"upper":  strings.ToUpper,
		"lower":  strings.ToLower,
		"indent": indent,
		"quote":  func(s string) string { return fmt.Sprintf("%q", s) },
	}
}

// indent prefixes every non-empty line of s with n spaces.
func indent(n int, s string) string {
	if s == "" {
		return s
	}
	prefix := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
