package store

import "time"

// Terminal state names. A record in one of these states is never reloaded.
const (
	StateCompleted = "COMPLETED"
	StateAborted   = "ABORTED"
)

// Record is a feature request row.
type Record struct {
	ThreadID               string
	State                  string
	UserID                 string
	ChannelID              string
	RepoName               string
	RepoPath               string
	RequestText            string
	PlanThoughts           string
	FinalPlan              string
	ImplementationThoughts string
	FinalSummary           string
	PRURL                  string
	CreatedAt              time.Time
	LastUpdated            time.Time
}

// Update patches a record. Only non-nil fields are written.
type Update struct {
	State                  *string
	UserID                 *string
	ChannelID              *string
	RepoName               *string
	RepoPath               *string
	RequestText            *string
	PlanThoughts           *string
	FinalPlan              *string
	ImplementationThoughts *string
	FinalSummary           *string
	PRURL                  *string
}

// String returns a pointer to s, for building Updates.
func String(s string) *string {
	return &s
}

// IsEmpty reports whether the update carries no fields.
func (u Update) IsEmpty() bool {
	return len(u.columns()) == 0
}

// Merge overlays other onto u; fields set in other win.
func (u Update) Merge(other Update) Update {
	pick := func(a, b *string) *string {
		if b != nil {
			return b
		}
		return a
	}
	return Update{
		State:                  pick(u.State, other.State),
		UserID:                 pick(u.UserID, other.UserID),
		ChannelID:              pick(u.ChannelID, other.ChannelID),
		RepoName:               pick(u.RepoName, other.RepoName),
		RepoPath:               pick(u.RepoPath, other.RepoPath),
		RequestText:            pick(u.RequestText, other.RequestText),
		PlanThoughts:           pick(u.PlanThoughts, other.PlanThoughts),
		FinalPlan:              pick(u.FinalPlan, other.FinalPlan),
		ImplementationThoughts: pick(u.ImplementationThoughts, other.ImplementationThoughts),
		FinalSummary:           pick(u.FinalSummary, other.FinalSummary),
		PRURL:                  pick(u.PRURL, other.PRURL),
	}
}

type column struct {
	name  string
	value string
}

// columns lists the set fields in a stable order.
func (u Update) columns() []column {
	fields := []struct {
		name string
		v    *string
	}{
		{"state", u.State},
		{"user_id", u.UserID},
		{"channel_id", u.ChannelID},
		{"repo_name", u.RepoName},
		{"repo_path", u.RepoPath},
		{"request_text", u.RequestText},
		{"plan_thoughts", u.PlanThoughts},
		{"final_plan", u.FinalPlan},
		{"implementation_thoughts", u.ImplementationThoughts},
		{"final_summary", u.FinalSummary},
		{"pr_url", u.PRURL},
	}

	var cols []column
	for _, f := range fields {
		if f.v != nil {
			cols = append(cols, column{name: f.name, value: *f.v})
		}
	}
	return cols
}
