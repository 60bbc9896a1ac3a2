package chat

import (
	"context"
	"regexp"
	"strings"
)

// Message is an inbound conversation message.
type Message struct {
	ThreadID string // root message id of the thread
	Channel  string
	User     string
	Text     string

	// Mention is set for a top-level message addressed to the bot, the
	// only kind of message that may open a new session.
	Mention bool
}

// Poster replies in a thread.
type Poster interface {
	PostReply(ctx context.Context, channel, threadID, text string) error
}

// UserLookup resolves a user id to a human-readable name.
type UserLookup interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// Sink receives parsed messages. An error means msg was not accepted and
// the delivery should be retried.
type Sink func(ctx context.Context, msg Message) error

var leadingMentions = regexp.MustCompile(`^(\s*<@[A-Z0-9]+(\|[^>]*)?>)+`)

// StripMentions removes user mentions at the start of text.
func StripMentions(text string) string {
	return strings.TrimSpace(leadingMentions.ReplaceAllString(text, ""))
}

// UserRef formats a user id as a platform mention.
func UserRef(userID string) string {
	return "<@" + userID + ">"
}
