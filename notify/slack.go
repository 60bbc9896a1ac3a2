package notify

import (
	"context"
	"fmt"
	"sort"

	fhttp "github.com/randalmurphal/featureflow/http"
)

// SlackNotifier posts to a Slack incoming webhook.
type SlackNotifier struct {
	username string
	channel  string
	client   *fhttp.Client
}

// SlackOption configures SlackNotifier.
type SlackOption func(*SlackNotifier)

// WithSlackChannel overrides the webhook's default channel.
func WithSlackChannel(channel string) SlackOption {
	return func(n *SlackNotifier) { n.channel = channel }
}

// WithSlackUsername sets the displayed bot name.
func WithSlackUsername(username string) SlackOption {
	return func(n *SlackNotifier) { n.username = username }
}

// NewSlackNotifier creates a notifier for webhookURL.
func NewSlackNotifier(webhookURL string, opts ...SlackOption) *SlackNotifier {
	n := &SlackNotifier{
		username: "featureflow",
		client:   fhttp.NewClient(fhttp.ClientConfig{BaseURL: webhookURL, ServiceName: "slack-webhook"}),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify implements Notifier.
func (n *SlackNotifier) Notify(ctx context.Context, event Event) error {
	footer := "Thread: " + event.ThreadID
	if event.Repo != "" {
		footer = "Repo: " + event.Repo + " | " + footer
	}

	payload := slackPayload{
		Username: n.username,
		Channel:  n.channel,
		Attachments: []slackAttachment{{
			Color:     colorForSeverity(event.Severity),
			Title:     fmt.Sprintf("%s %s", emojiForEvent(event.Type), event.Type),
			Text:      event.Message,
			Footer:    footer,
			Timestamp: event.Timestamp.Unix(),
			Fields:    fieldsFromMetadata(event.Metadata),
		}},
	}

	if err := n.client.Post(ctx, "", payload, nil); err != nil {
		return fmt.Errorf("send slack notification: %w", err)
	}
	return nil
}

func emojiForEvent(t EventType) string {
	switch t {
	case EventConfigError, EventDispatchFailed:
		return ":x:"
	case EventPROpened:
		return ":link:"
	case EventSessionCompleted:
		return ":white_check_mark:"
	case EventSessionAborted:
		return ":no_entry_sign:"
	case EventSessionRecovered:
		return ":recycle:"
	default:
		return ":loudspeaker:"
	}
}

func colorForSeverity(severity string) string {
	switch severity {
	case SeverityError:
		return "danger"
	case SeverityWarning:
		return "warning"
	default:
		return "good"
	}
}

func fieldsFromMetadata(metadata map[string]any) []slackField {
	if len(metadata) == 0 {
		return nil
	}
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]slackField, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, slackField{Title: k, Value: fmt.Sprintf("%v", metadata[k]), Short: true})
	}
	return fields
}

type slackPayload struct {
	Username    string            `json:"username,omitempty"`
	Channel     string            `json:"channel,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color     string       `json:"color,omitempty"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Footer    string       `json:"footer,omitempty"`
	Timestamp int64        `json:"ts,omitempty"`
	Fields    []slackField `json:"fields,omitempty"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}
