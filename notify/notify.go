package notify

import (
	"context"
	"strings"
	"time"
)

// EventType identifies an operator notification.
type EventType string

const (
	EventConfigError      EventType = "config_error"
	EventDispatchFailed   EventType = "dispatch_failed"
	EventPROpened         EventType = "pr_opened"
	EventSessionCompleted EventType = "session_completed"
	EventSessionAborted   EventType = "session_aborted"
	EventSessionRecovered EventType = "session_recovered"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Event describes something an operator may want to know about.
type Event struct {
	Type      EventType      `json:"type"`
	ThreadID  string         `json:"thread_id"`
	Channel   string         `json:"channel,omitempty"`
	Repo      string         `json:"repo,omitempty"`
	Message   string         `json:"message"`
	Severity  string         `json:"severity"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Notifier sends notifications. Callers log returned errors and carry on.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// ForURL picks a notifier for an operator webhook URL. Slack incoming
// webhooks get attachment formatting; anything else receives raw events.
// An empty URL yields NopNotifier.
func ForURL(url string) Notifier {
	switch {
	case url == "":
		return NopNotifier{}
	case strings.HasPrefix(url, "https://hooks.slack.com/"):
		return NewSlackNotifier(url)
	default:
		return NewWebhookNotifier(url, nil)
	}
}
