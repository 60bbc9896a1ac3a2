package session

import "github.com/randalmurphal/featureflow/store"

// Session is one active workflow, bound to a single thread and user.
type Session struct {
	ThreadID       string
	State          State
	InitiatingUser string
	Channel        string
	RepoName       string
	RepoPath       string
	RequestText    string
	PlanText       string
	PullRequestURL string
}

// Record converts s to a durable record.
func (s Session) Record() *store.Record {
	return &store.Record{
		ThreadID:    s.ThreadID,
		State:       string(s.State),
		UserID:      s.InitiatingUser,
		ChannelID:   s.Channel,
		RepoName:    s.RepoName,
		RepoPath:    s.RepoPath,
		RequestText: s.RequestText,
		FinalPlan:   s.PlanText,
		PRURL:       s.PullRequestURL,
	}
}

// FromRecord rebuilds a session from a durable record.
func FromRecord(rec *store.Record) (Session, error) {
	st, err := ParseState(rec.State)
	if err != nil {
		return Session{}, err
	}
	return Session{
		ThreadID:       rec.ThreadID,
		State:          st,
		InitiatingUser: rec.UserID,
		Channel:        rec.ChannelID,
		RepoName:       rec.RepoName,
		RepoPath:       rec.RepoPath,
		RequestText:    rec.RequestText,
		PlanText:       rec.FinalPlan,
		PullRequestURL: rec.PRURL,
	}, nil
}

// diff returns an update holding every field that differs from old.
func diff(old, cur Session) store.Update {
	var u store.Update
	set := func(dst **string, a, b string) {
		if a != b {
			*dst = store.String(b)
		}
	}
	set(&u.State, string(old.State), string(cur.State))
	set(&u.UserID, old.InitiatingUser, cur.InitiatingUser)
	set(&u.ChannelID, old.Channel, cur.Channel)
	set(&u.RepoName, old.RepoName, cur.RepoName)
	set(&u.RepoPath, old.RepoPath, cur.RepoPath)
	set(&u.RequestText, old.RequestText, cur.RequestText)
	set(&u.FinalPlan, old.PlanText, cur.PlanText)
	set(&u.PRURL, old.PullRequestURL, cur.PullRequestURL)
	return u
}
