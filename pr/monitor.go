package pr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/randalmurphal/featureflow/chat"
	"github.com/randalmurphal/featureflow/metrics"
	"github.com/randalmurphal/featureflow/notify"
	"github.com/randalmurphal/featureflow/session"
)

// DefaultInterval is the reference polling cadence.
const DefaultInterval = 5 * time.Minute

// Monitor completes sessions whose pull request was merged or closed.
type Monitor struct {
	sessions *session.Repository
	checker  StatusChecker
	poster   chat.Poster
	notifier notify.Notifier
	metrics  *metrics.Recorder
	logger   *slog.Logger
	interval time.Duration

	mu   sync.Mutex
	cron *cron.Cron
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.interval = d }
}

// WithNotifier sets the operator notifier.
func WithNotifier(n notify.Notifier) MonitorOption {
	return func(m *Monitor) { m.notifier = n }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) MonitorOption {
	return func(m *Monitor) { m.metrics = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) MonitorOption {
	return func(m *Monitor) { m.logger = l }
}

// NewMonitor creates a monitor. Call Start to schedule it.
func NewMonitor(sessions *session.Repository, checker StatusChecker, poster chat.Poster, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		sessions: sessions,
		checker:  checker,
		poster:   poster,
		notifier: notify.NopNotifier{},
		logger:   slog.Default(),
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start schedules Tick every interval until Stop. ctx is passed to each tick.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cron != nil {
		return fmt.Errorf("monitor already started")
	}

	logger := cron.PrintfLogger(slog.NewLogLogger(m.logger.Handler(), slog.LevelWarn))
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc("@every "+m.interval.String(), func() { m.Tick(ctx) }); err != nil {
		return fmt.Errorf("schedule pull request monitor: %w", err)
	}
	c.Start()
	m.cron = c

	m.logger.Info("pull request monitor started", "interval", m.interval)
	return nil
}

// Stop unschedules the monitor and waits for a running tick to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// Tick checks every monitored session once.
func (m *Monitor) Tick(ctx context.Context) {
	watched := m.sessions.List(func(s session.Session) bool {
		return s.State == session.MonitoringPR && s.PullRequestURL != ""
	})

	for _, s := range watched {
		if ctx.Err() != nil {
			return
		}
		m.check(ctx, s)
	}
}

func (m *Monitor) check(ctx context.Context, s session.Session) {
	logger := m.logger.With("thread_id", s.ThreadID, "pr_url", s.PullRequestURL)

	state, err := m.checker.Status(ctx, s.PullRequestURL)
	if err != nil {
		logger.Warn("pull request status check failed", "error", err)
		m.metrics.PRPoll("error")
		return
	}
	m.metrics.PRPoll(string(state))

	if !state.Done() {
		return
	}

	if err := m.sessions.Finish(ctx, s.ThreadID, session.Completed); err != nil {
		logger.Warn("session vanished before completion", "error", err)
		return
	}
	m.metrics.Transition(string(session.MonitoringPR), string(session.Completed))
	logger.Info("pull request finished", "state", state)

	text := fmt.Sprintf("Pull request %s was %s. This feature request is complete.",
		s.PullRequestURL, pastTense(state))
	if err := m.poster.PostReply(ctx, s.Channel, s.ThreadID, text); err != nil {
		logger.Error("failed to post completion", "error", err)
	}

	if err := m.notifier.Notify(ctx, notify.Event{
		Type:      notify.EventSessionCompleted,
		ThreadID:  s.ThreadID,
		Channel:   s.Channel,
		Repo:      s.RepoName,
		Message:   text,
		Severity:  notify.SeverityInfo,
		Timestamp: time.Now(),
		Metadata:  map[string]any{"pr_state": string(state), "pr_url": s.PullRequestURL},
	}); err != nil {
		logger.Warn("operator notification failed", "error", err)
	}
}

func pastTense(s State) string {
	if s == StateMerged {
		return "merged"
	}
	return "closed without merging"
}
