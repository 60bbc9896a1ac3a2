package workflow

import (
	"context"

	"github.com/randalmurphal/featureflow/agent"
	"github.com/randalmurphal/featureflow/notify"
	"github.com/randalmurphal/featureflow/pr"
	"github.com/randalmurphal/featureflow/session"
	"github.com/randalmurphal/featureflow/store"
)

func (m *Machine) selectRepo(ctx context.Context, s session.Session, ev Event) {
	repo, ok := m.repos.Lookup(ev.Text)
	if !ok {
		m.metrics.Rejected("unknown_repo")
		m.reply(ctx, s, unknownRepoText(ev.Text, m.repos.Names()))
		return
	}

	if !m.dirOK(repo.Path) {
		m.logger.Error("repository path does not exist",
			"thread_id", s.ThreadID, "repo", repo.Name, "path", repo.Path)
		m.sessions.Remove(s.ThreadID)
		m.metrics.Rejected("config_error")
		m.notify(ctx, s, notify.EventConfigError, notify.SeverityError,
			"repository path does not exist",
			map[string]any{"repo": repo.Name, "path": repo.Path})
		m.reply(ctx, s, missingPathText(repo.Name, repo.Path))
		return
	}

	s.RepoName = repo.Name
	s.RepoPath = repo.Path
	s = m.move(ctx, s, session.AwaitingRequest, store.Update{})
	m.reply(ctx, s, repoSelectedText(repo.Name))
}

func (m *Machine) acceptRequest(ctx context.Context, s session.Session, ev Event) {
	if ev.Text == "" {
		m.reply(ctx, s, emptyRequestText)
		return
	}

	before := s
	s.RequestText = ev.Text
	s = m.move(ctx, s, session.Implementing, store.Update{})
	m.reply(ctx, s, draftingText(s.RepoName))
	m.start(ctx, agent.KindPlan, before, requestFor(s))
}

func (m *Machine) approve(ctx context.Context, s session.Session, ev Event) {
	// The loop already checked the sender; approval is what triggers
	// pushing code, so it checks again against the current owner.
	if ev.Message.User != s.InitiatingUser {
		m.reject(ctx, s, ev.Message)
		return
	}

	before := s
	s = m.move(ctx, s, session.Finalizing, store.Update{})
	m.reply(ctx, s, implementingText(s.RepoName))
	m.start(ctx, agent.KindImplement, before, requestFor(s))
}

func (m *Machine) revise(ctx context.Context, s session.Session, ev Event) {
	if ev.Text == "" {
		m.reply(ctx, s, approvalPromptText)
		return
	}

	before := s
	s = m.move(ctx, s, session.Revising, store.Update{})
	m.reply(ctx, s, revisingText)

	req := requestFor(s)
	req.Feedback = ev.Text
	m.start(ctx, agent.KindRevise, before, req)
}

func (m *Machine) abort(ctx context.Context, s session.Session, _ Event) {
	s = m.move(ctx, s, session.Aborted, store.Update{})
	m.notify(ctx, s, notify.EventSessionAborted, notify.SeverityInfo, "aborted by user", nil)
	m.reply(ctx, s, abortedText)
}

func (m *Machine) busy(ctx context.Context, s session.Session, _ Event) {
	m.metrics.Rejected("busy")
	m.reply(ctx, s, busyText(s.State))
}

func (m *Machine) remindMonitoring(ctx context.Context, s session.Session, _ Event) {
	m.metrics.Rejected("monitoring")
	m.reply(ctx, s, monitoringText(s.PullRequestURL))
}

// planReady completes a drafting or revision run.
func (m *Machine) planReady(ctx context.Context, s session.Session, ev Event) {
	out, ok := m.completed(ctx, s, ev.Completion)
	if !ok {
		return
	}

	s.PlanText = out.Result
	s = m.move(ctx, s, session.AwaitingApproval, store.Update{PlanThoughts: store.String(out.Thoughts)})
	m.reportExit(ctx, s, out)
	m.reply(ctx, s, planText(out.Result))
}

// implemented completes the implementation run.
func (m *Machine) implemented(ctx context.Context, s session.Session, ev Event) {
	out, ok := m.completed(ctx, s, ev.Completion)
	if !ok {
		return
	}

	extra := store.Update{
		ImplementationThoughts: store.String(out.Thoughts),
		FinalSummary:           store.String(out.Result),
	}

	url, found := pr.FindURL(out.Result)
	if !found {
		s = m.move(ctx, s, session.Completed, extra)
		m.reportExit(ctx, s, out)
		m.notify(ctx, s, notify.EventSessionCompleted, notify.SeverityInfo,
			"implementation finished without a pull request", nil)
		m.reply(ctx, s, completedText(out.Result))
		return
	}

	s.PullRequestURL = url
	s = m.move(ctx, s, session.MonitoringPR, extra)
	m.reportExit(ctx, s, out)
	m.notify(ctx, s, notify.EventPROpened, notify.SeverityInfo,
		"pull request opened", map[string]any{"pr_url": url})
	m.reply(ctx, s, prOpenedText(out.Result, url))
}

// completed unpacks a completion. A dispatch error rolls the session back
// to where it was before the invocation and reports false.
func (m *Machine) completed(ctx context.Context, s session.Session, c *Completion) (*agent.Outcome, bool) {
	if c.Err == nil {
		return c.Outcome, true
	}

	m.logger.Error("agent could not be started",
		"thread_id", s.ThreadID, "kind", string(c.Kind), "error", c.Err)

	before := c.Before
	m.sessions.Save(ctx, before, store.Update{})
	m.metrics.Transition(string(s.State), string(before.State))
	m.logger.Info("session rolled back", "thread_id", s.ThreadID, "from", s.State, "to", before.State)

	m.notify(ctx, before, notify.EventDispatchFailed, notify.SeverityError,
		c.Err.Error(), map[string]any{"kind": string(c.Kind)})
	m.reply(ctx, before, dispatchFailedText(c.Err))
	return nil, false
}

// reportExit posts the raw output of a run that exited non-zero. The
// workflow continues with whatever the run printed.
func (m *Machine) reportExit(ctx context.Context, s session.Session, out *agent.Outcome) {
	if !out.Failed() {
		return
	}
	m.logger.Warn("agent exited non-zero",
		"thread_id", s.ThreadID, "kind", string(out.Kind), "exit_code", out.ExitCode)
	m.reply(ctx, s, exitFailureText(out.ExitCode, out.Output))
}
