package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	fhttp "github.com/randalmurphal/featureflow/http"
)

// MaxMessageLength bounds posted text; Slack truncates beyond 40000.
const MaxMessageLength = 39000

const truncationNote = "\n… (truncated)"

// SlackClient talks to the Slack Web API.
type SlackClient struct {
	client *fhttp.Client
}

// NewSlackClient creates a client for baseURL (normally
// https://slack.com/api) authenticated with a bot token.
func NewSlackClient(baseURL, token string, logger *slog.Logger) *SlackClient {
	return &SlackClient{
		client: fhttp.NewClient(fhttp.ClientConfig{
			BaseURL:     baseURL,
			ServiceName: "slack",
			Logger:      logger,
			BeforeRequest: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+token)
			},
		}),
	}
}

// PostReply implements Poster.
func (s *SlackClient) PostReply(ctx context.Context, channel, threadID, text string) error {
	body := map[string]string{
		"channel":   channel,
		"thread_ts": threadID,
		"text":      truncate(text, MaxMessageLength),
	}

	var raw json.RawMessage
	if err := s.client.Post(ctx, "/chat.postMessage", body, &raw); err != nil {
		return err
	}
	return checkOK(raw, "/chat.postMessage")
}

// DisplayName implements UserLookup. It prefers the profile display name,
// then the real name, then the account name.
func (s *SlackClient) DisplayName(ctx context.Context, userID string) (string, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, "/users.info?user="+url.QueryEscape(userID), &raw); err != nil {
		return "", err
	}
	if err := checkOK(raw, "/users.info"); err != nil {
		return "", err
	}

	for _, path := range []string{"user.profile.display_name", "user.real_name", "user.name"} {
		if name := gjson.GetBytes(raw, path).String(); name != "" {
			return name, nil
		}
	}
	return "", fmt.Errorf("users.info: no name for %s", userID)
}

// checkOK turns Slack's {"ok":false,"error":...} envelope into an APIError.
func checkOK(raw []byte, endpoint string) error {
	if gjson.GetBytes(raw, "ok").Bool() {
		return nil
	}
	msg := gjson.GetBytes(raw, "error").String()
	if msg == "" {
		msg = "unknown error"
	}
	return &fhttp.APIError{Service: "slack", StatusCode: http.StatusOK, Endpoint: endpoint, Message: msg}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - len(truncationNote)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncationNote
}
