package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/randalmurphal/featureflow/agent"
	"github.com/randalmurphal/featureflow/chat"
	"github.com/randalmurphal/featureflow/config"
	"github.com/randalmurphal/featureflow/metrics"
	"github.com/randalmurphal/featureflow/notify"
	"github.com/randalmurphal/featureflow/session"
	"github.com/randalmurphal/featureflow/store"
)

// Agent runs the coding agent. *agent.Agent implements it.
type Agent interface {
	DraftPlan(ctx context.Context, req agent.Request) (*agent.Outcome, error)
	RevisePlan(ctx context.Context, req agent.Request) (*agent.Outcome, error)
	Implement(ctx context.Context, req agent.Request) (*agent.Outcome, error)
}

// DefaultQueueSize is the event buffer of a Machine.
const DefaultQueueSize = 64

type handler func(ctx context.Context, s session.Session, ev Event)

// Machine is the per-thread workflow state machine.
type Machine struct {
	sessions *session.Repository
	repos    *config.Repos
	agent    Agent
	poster   chat.Poster
	users    chat.UserLookup
	notifier notify.Notifier
	metrics  *metrics.Recorder
	logger   *slog.Logger
	dirOK    func(path string) bool
	now      func() time.Time

	events   chan Event
	handlers map[transitionKey]handler
}

// Option configures a Machine.
type Option func(*Machine)

// WithUsers sets the lookup used to name rejected senders.
func WithUsers(u chat.UserLookup) Option {
	return func(m *Machine) { m.users = u }
}

// WithNotifier sets the operator notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(m *Machine) { m.notifier = n }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(m *Machine) { m.metrics = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithPathChecker replaces the check that a repository path is an existing
// directory.
func WithPathChecker(fn func(path string) bool) Option {
	return func(m *Machine) { m.dirOK = fn }
}

// WithQueueSize sets the event buffer size.
func WithQueueSize(n int) Option {
	return func(m *Machine) { m.events = make(chan Event, n) }
}

// New creates a Machine. Call Run to start processing.
func New(sessions *session.Repository, repos *config.Repos, ag Agent, poster chat.Poster, opts ...Option) *Machine {
	m := &Machine{
		sessions: sessions,
		repos:    repos,
		agent:    ag,
		poster:   poster,
		notifier: notify.NopNotifier{},
		logger:   slog.Default(),
		dirOK:    isDir,
		now:      time.Now,
		events:   make(chan Event, DefaultQueueSize),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.handlers = map[transitionKey]handler{
		{session.SelectingRepo, EventText}:  m.selectRepo,
		{session.SelectingRepo, EventAbort}: m.abort,

		{session.AwaitingRequest, EventText}:  m.acceptRequest,
		{session.AwaitingRequest, EventAbort}: m.abort,

		{session.AwaitingApproval, EventApprove}: m.approve,
		{session.AwaitingApproval, EventAbort}:   m.abort,
		{session.AwaitingApproval, EventText}:    m.revise,

		{session.Implementing, EventText}: m.busy,
		{session.Revising, EventText}:     m.busy,
		{session.Finalizing, EventText}:   m.busy,

		{session.Implementing, EventAgentDone}: m.planReady,
		{session.Revising, EventAgentDone}:     m.planReady,
		{session.Finalizing, EventAgentDone}:   m.implemented,

		{session.MonitoringPR, EventText}: m.remindMonitoring,
	}
	return m
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Submit queues an inbound message. It blocks while the queue is full and
// returns ctx's error, without queueing, when ctx ends first. Submit has
// the chat.Sink signature.
func (m *Machine) Submit(ctx context.Context, msg chat.Message) error {
	select {
	case m.events <- classify(msg):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue message for thread %s: %w", msg.ThreadID, ctx.Err())
	}
}

// Run processes events until ctx is cancelled. Agent invocations started
// by Run use ctx, so cancelling it also stops running agents.
func (m *Machine) Run(ctx context.Context) error {
	m.logger.Info("workflow loop started", "active_sessions", m.sessions.Len())
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("workflow loop stopped")
			return ctx.Err()
		case ev := <-m.events:
			m.handle(ctx, ev)
		}
	}
}

func (m *Machine) handle(ctx context.Context, ev Event) {
	logger := m.logger.With("thread_id", ev.ThreadID, "event", ev.Kind.String())

	s, ok := m.sessions.Get(ev.ThreadID)
	if !ok {
		if ev.Kind == EventAgentDone {
			logger.Warn("completion for a session that is no longer active")
			return
		}
		if ev.Message.Mention {
			m.open(ctx, ev)
		}
		return
	}

	if ev.Kind != EventAgentDone && ev.Message.User != s.InitiatingUser {
		m.reject(ctx, s, ev.Message)
		return
	}

	h, ok := m.handlers[transitionKey{s.State, ev.Kind}]
	if !ok && ev.Kind != EventAgentDone {
		h, ok = m.handlers[transitionKey{s.State, EventText}]
	}
	if !ok {
		logger.Warn("no transition for event", "state", s.State)
		return
	}
	h(ctx, s, ev)
}

// open starts a session for a top-level mention.
func (m *Machine) open(ctx context.Context, ev Event) {
	msg := ev.Message
	s := session.Session{
		ThreadID:       msg.ThreadID,
		State:          session.SelectingRepo,
		InitiatingUser: msg.User,
		Channel:        msg.Channel,
	}

	if err := m.sessions.Open(ctx, s); err != nil {
		if errors.Is(err, session.ErrExists) {
			m.metrics.Rejected("thread_closed")
			m.reply(ctx, s, threadClosedText)
			return
		}
		m.logger.Error("failed to open session", "thread_id", msg.ThreadID, "error", err)
		return
	}

	m.logger.Info("session opened", "thread_id", s.ThreadID, "user", s.InitiatingUser)
	m.metrics.Transition("", string(session.SelectingRepo))
	m.reply(ctx, s, greetingText(s.InitiatingUser, m.repos.Names()))
}

// reject answers a sender who does not own the session.
func (m *Machine) reject(ctx context.Context, s session.Session, msg chat.Message) {
	name := msg.User
	if m.users != nil {
		if n, err := m.users.DisplayName(ctx, msg.User); err == nil && n != "" {
			name = n
		} else if err != nil {
			m.logger.Debug("display name lookup failed", "user", msg.User, "error", err)
		}
	}

	m.logger.Info("rejected message from non-owner",
		"thread_id", s.ThreadID, "user", msg.User, "state", s.State)
	m.metrics.Rejected("unauthorized")
	m.reply(ctx, s, rejectText(name, s.InitiatingUser))
}

// move persists s in state to with extra, then returns the stored copy.
func (m *Machine) move(ctx context.Context, s session.Session, to session.State, extra store.Update) session.Session {
	from := s.State
	s.State = to
	m.sessions.Save(ctx, s, extra)

	if from != to {
		m.metrics.Transition(string(from), string(to))
		m.logger.Info("session transition", "thread_id", s.ThreadID, "from", from, "to", to)
	}
	return s
}

func (m *Machine) reply(ctx context.Context, s session.Session, text string) {
	if err := m.poster.PostReply(ctx, s.Channel, s.ThreadID, text); err != nil {
		m.logger.Error("failed to post reply", "thread_id", s.ThreadID, "error", err)
	}
}

func (m *Machine) notify(ctx context.Context, s session.Session, typ notify.EventType, severity, message string, meta map[string]any) {
	err := m.notifier.Notify(ctx, notify.Event{
		Type:      typ,
		ThreadID:  s.ThreadID,
		Channel:   s.Channel,
		Repo:      s.RepoName,
		Message:   message,
		Severity:  severity,
		Timestamp: m.now(),
		Metadata:  meta,
	})
	if err != nil {
		m.logger.Warn("operator notification failed", "thread_id", s.ThreadID, "error", err)
	}
}

// start runs an agent invocation in the background and reports the result
// to the loop. before is the session to restore if the command cannot start.
func (m *Machine) start(ctx context.Context, kind agent.Kind, before session.Session, req agent.Request) {
	go func() {
		var (
			out *agent.Outcome
			err error
		)
		switch kind {
		case agent.KindPlan:
			out, err = m.agent.DraftPlan(ctx, req)
		case agent.KindRevise:
			out, err = m.agent.RevisePlan(ctx, req)
		case agent.KindImplement:
			out, err = m.agent.Implement(ctx, req)
		}

		ev := Event{
			Kind:       EventAgentDone,
			ThreadID:   req.ThreadID,
			Completion: &Completion{Kind: kind, Outcome: out, Err: err, Before: before},
		}
		select {
		case m.events <- ev:
		case <-ctx.Done():
		}
	}()
}

// NotifyRecovered tells each thread whose interrupted invocation was rolled
// back at start-up what it can do next.
func (m *Machine) NotifyRecovered(ctx context.Context, recovered []session.Recovered) {
	for _, r := range recovered {
		s := r.Session
		m.reply(ctx, s, recoveredText(r.From, s.State))
		m.notify(ctx, s, notify.EventSessionRecovered, notify.SeverityWarning,
			"session rolled back after restart",
			map[string]any{"from": string(r.From), "to": string(s.State)})
	}
}

func requestFor(s session.Session) agent.Request {
	return agent.Request{
		ThreadID: s.ThreadID,
		RepoName: s.RepoName,
		RepoPath: s.RepoPath,
		Request:  s.RequestText,
		Plan:     s.PlanText,
	}
}
