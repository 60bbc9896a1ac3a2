package pr

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/featureflow/chat"
	"github.com/randalmurphal/featureflow/metrics"
	"github.com/randalmurphal/featureflow/session"
	"github.com/randalmurphal/featureflow/store"
	"github.com/randalmurphal/featureflow/testutil"
)

const testPRURL = "https://github.com/acme/app/pull/42"

type monitorFixture struct {
	db       *store.SQLiteStore
	sessions *session.Repository
	poster   *chat.MockPoster
}

func newMonitorFixture(t *testing.T) *monitorFixture {
	t.Helper()
	ctx := testutil.TestContext(t)

	db := testutil.OpenStore(t)
	sessions := session.NewRepository(db)
	s := session.Session{
		ThreadID:       "1700000000.000100",
		State:          session.SelectingRepo,
		InitiatingUser: "U1",
		Channel:        "C1",
	}
	require.NoError(t, sessions.Create(ctx, s))

	s.State = session.MonitoringPR
	s.RepoName = "gisbot"
	s.RepoPath = "/app/mnt/repos/gisbot"
	s.PullRequestURL = testPRURL
	sessions.Save(ctx, s, store.Update{})

	return &monitorFixture{db: db, sessions: sessions, poster: &chat.MockPoster{}}
}

func TestMonitor_TickMerged(t *testing.T) {
	ctx := testutil.TestContext(t)
	f := newMonitorFixture(t)
	checker := &MockChecker{StatusFunc: func(context.Context, string) (State, error) {
		return StateMerged, nil
	}}
	mon := NewMonitor(f.sessions, checker, f.poster, WithMetrics(metrics.New(prometheus.NewRegistry())))

	mon.Tick(ctx)

	_, ok := f.sessions.Get("1700000000.000100")
	assert.False(t, ok, "completed session should leave memory")

	rec, err := f.db.Get(ctx, "1700000000.000100")
	require.NoError(t, err)
	assert.Equal(t, store.StateCompleted, rec.State)

	replies := f.poster.Replies()
	require.Len(t, replies, 1)
	assert.Equal(t, "C1", replies[0].Channel)
	assert.Equal(t, "1700000000.000100", replies[0].ThreadID)
	assert.Contains(t, replies[0].Text, testPRURL)
	assert.Contains(t, replies[0].Text, "merged")

	// A second tick has nothing left to watch.
	mon.Tick(ctx)
	assert.Len(t, f.poster.Replies(), 1)
	assert.Equal(t, []string{testPRURL}, checker.Calls())
}

func TestMonitor_TickClosed(t *testing.T) {
	f := newMonitorFixture(t)
	checker := &MockChecker{StatusFunc: func(context.Context, string) (State, error) {
		return StateClosed, nil
	}}

	NewMonitor(f.sessions, checker, f.poster).Tick(context.Background())

	replies := f.poster.Replies()
	require.Len(t, replies, 1)
	assert.True(t, strings.Contains(replies[0].Text, "closed without merging"))
	assert.Equal(t, 0, f.sessions.Len())
}

func TestMonitor_TickLeavesSession(t *testing.T) {
	tests := []struct {
		name   string
		status func(context.Context, string) (State, error)
	}{
		{"open", func(context.Context, string) (State, error) { return StateOpen, nil }},
		{"error", func(context.Context, string) (State, error) { return "", errors.New("gh: rate limited") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testutil.TestContext(t)
			f := newMonitorFixture(t)

			NewMonitor(f.sessions, &MockChecker{StatusFunc: tt.status}, f.poster).Tick(ctx)

			s, ok := f.sessions.Get("1700000000.000100")
			require.True(t, ok)
			assert.Equal(t, session.MonitoringPR, s.State)
			assert.Empty(t, f.poster.Replies())

			rec, err := f.db.Get(ctx, "1700000000.000100")
			require.NoError(t, err)
			assert.Equal(t, "MONITORING_PR", rec.State)
		})
	}
}

func TestMonitor_SkipsOtherStates(t *testing.T) {
	ctx := testutil.TestContext(t)
	f := newMonitorFixture(t)
	s, _ := f.sessions.Get("1700000000.000100")
	s.State = session.AwaitingApproval
	f.sessions.Save(ctx, s, store.Update{})

	checker := &MockChecker{}
	NewMonitor(f.sessions, checker, f.poster).Tick(ctx)

	assert.Empty(t, checker.Calls())
}

func TestMonitor_StartStop(t *testing.T) {
	f := newMonitorFixture(t)
	checker := &MockChecker{StatusFunc: func(context.Context, string) (State, error) {
		return StateMerged, nil
	}}
	mon := NewMonitor(f.sessions, checker, f.poster, WithInterval(time.Second))

	require.NoError(t, mon.Start(context.Background()))
	assert.Error(t, mon.Start(context.Background()), "second Start should fail")
	defer mon.Stop()

	require.Eventually(t, func() bool {
		return len(f.poster.Replies()) == 1
	}, 5*time.Second, 50*time.Millisecond)
}
