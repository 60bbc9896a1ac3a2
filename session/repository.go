package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/randalmurphal/featureflow/store"
)

// Gateway is the durable side of the repository.
type Gateway interface {
	Create(ctx context.Context, rec *store.Record) error
	Update(ctx context.Context, threadID string, u store.Update) error
	Get(ctx context.Context, threadID string) (*store.Record, error)
	ListOpen(ctx context.Context) ([]*store.Record, error)
}

// Repository keeps active sessions in memory, backed by a Gateway.
type Repository struct {
	gw     Gateway
	logger *slog.Logger
	gauge  func(active int)
	onFail func(err error)

	mu       sync.RWMutex
	sessions map[string]Session
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// WithActiveGauge registers a callback receiving the number of active
// sessions after every change.
func WithActiveGauge(fn func(active int)) Option {
	return func(r *Repository) { r.gauge = fn }
}

// WithFailureHook registers a callback for every swallowed store error.
func WithFailureHook(fn func(err error)) Option {
	return func(r *Repository) { r.onFail = fn }
}

// NewRepository creates an empty repository.
func NewRepository(gw Gateway, opts ...Option) *Repository {
	r := &Repository{
		gw:       gw,
		logger:   slog.Default(),
		sessions: make(map[string]Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns a copy of the active session for threadID.
func (r *Repository) Get(threadID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[threadID]
	return s, ok
}

// List returns copies of the active sessions matching keep, ordered by
// thread id. A nil keep matches all.
func (r *Repository) List(keep func(Session) bool) []Session {
	r.mu.RLock()
	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if keep == nil || keep(s) {
			out = append(out, s)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ThreadID < out[j].ThreadID })
	return out
}

// Len returns the number of active sessions.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Create writes the durable record for a new session and adds it to memory.
// It returns ErrExists when the thread id is taken in memory or in the
// store. Any other store failure is logged and the session is kept in
// memory; the next Save retries the insert.
func (r *Repository) Create(ctx context.Context, s Session) error {
	if s.ThreadID == "" {
		return fmt.Errorf("create session: thread id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ThreadID]; ok {
		return fmt.Errorf("%w: %s", ErrExists, s.ThreadID)
	}

	if err := r.gw.Create(ctx, s.Record()); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("%w: %s", ErrExists, s.ThreadID)
		}
		r.logger.Error("failed to persist new session",
			"thread_id", s.ThreadID, "error", err)
		r.failed(err)
	}

	r.sessions[s.ThreadID] = s
	r.changed()
	return nil
}

// Open adds a new session to memory only. The durable record is inserted
// by the first Save, so a session dropped before then leaves nothing for
// ReloadActive. It returns ErrExists when the thread id is active in memory
// or already has a durable record.
func (r *Repository) Open(ctx context.Context, s Session) error {
	if s.ThreadID == "" {
		return fmt.Errorf("open session: thread id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ThreadID]; ok {
		return fmt.Errorf("%w: %s", ErrExists, s.ThreadID)
	}

	_, err := r.gw.Get(ctx, s.ThreadID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrExists, s.ThreadID)
	case !errors.Is(err, store.ErrNotFound):
		r.logger.Warn("failed to check for an existing record",
			"thread_id", s.ThreadID, "error", err)
		r.failed(err)
	}

	r.sessions[s.ThreadID] = s
	r.changed()
	return nil
}

// Save persists the fields of s that changed since it was last stored,
// together with extra, then replaces the in-memory copy. A terminal s is
// removed from memory instead.
func (r *Repository) Save(ctx context.Context, s Session, extra store.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, known := r.sessions[s.ThreadID]
	if !known {
		old = Session{ThreadID: s.ThreadID}
	}
	r.persist(ctx, s, diff(old, s).Merge(extra))

	if s.State.Terminal() {
		delete(r.sessions, s.ThreadID)
	} else {
		r.sessions[s.ThreadID] = s
	}
	r.changed()
}

// Finish moves an active session to a terminal state and drops it from
// memory.
func (r *Repository) Finish(ctx context.Context, threadID string, terminal State) error {
	if !terminal.Terminal() {
		return fmt.Errorf("finish session: %s is not terminal", terminal)
	}
	s, ok := r.Get(threadID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, threadID)
	}
	s.State = terminal
	r.Save(ctx, s, store.Update{})
	return nil
}

// Remove drops a session from memory without touching the durable record.
func (r *Repository) Remove(threadID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, threadID)
	r.changed()
}

// Recovered describes a session whose busy state was rolled back on reload.
type Recovered struct {
	Session Session
	From    State
}

// ReloadActive replaces memory with every non-terminal durable record.
// Records persisted in a busy state are rolled back and returned so the
// caller can tell their threads.
func (r *Repository) ReloadActive(ctx context.Context) ([]Recovered, error) {
	records, err := r.gw.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open sessions: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions = make(map[string]Session, len(records))
	var recovered []Recovered
	for _, rec := range records {
		s, err := FromRecord(rec)
		if err != nil {
			r.logger.Warn("skipping stored session", "thread_id", rec.ThreadID, "error", err)
			continue
		}
		if s.State.Terminal() {
			continue
		}

		if to, ok := s.State.Recovery(); ok {
			from := s.State
			r.logger.Info("rolling back interrupted session",
				"thread_id", s.ThreadID, "from", from, "to", to)
			s.State = to
			r.persist(ctx, s, store.Update{State: store.String(string(to))})
			recovered = append(recovered, Recovered{Session: s, From: from})
		}
		r.sessions[s.ThreadID] = s
	}

	r.logger.Info("reloaded active sessions", "count", len(r.sessions), "recovered", len(recovered))
	r.changed()
	return recovered, nil
}

// persist writes u, inserting the full record when the row is missing.
// Callers hold r.mu.
func (r *Repository) persist(ctx context.Context, s Session, u store.Update) {
	if u.IsEmpty() {
		return
	}

	err := r.gw.Update(ctx, s.ThreadID, u)
	if errors.Is(err, store.ErrNotFound) {
		rec := s.Record()
		applyUpdate(rec, u)
		err = r.gw.Create(ctx, rec)
	}
	if err != nil {
		r.logger.Error("failed to persist session",
			"thread_id", s.ThreadID, "state", s.State, "error", err)
		r.failed(err)
	}
}

func (r *Repository) failed(err error) {
	if r.onFail != nil {
		r.onFail(err)
	}
}

func (r *Repository) changed() {
	if r.gauge != nil {
		r.gauge(len(r.sessions))
	}
}

// applyUpdate copies the artifact fields of u that a Session cannot carry.
func applyUpdate(rec *store.Record, u store.Update) {
	if u.PlanThoughts != nil {
		rec.PlanThoughts = *u.PlanThoughts
	}
	if u.FinalPlan != nil {
		rec.FinalPlan = *u.FinalPlan
	}
	if u.ImplementationThoughts != nil {
		rec.ImplementationThoughts = *u.ImplementationThoughts
	}
	if u.FinalSummary != nil {
		rec.FinalSummary = *u.FinalSummary
	}
}
