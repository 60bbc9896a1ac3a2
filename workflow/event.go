package workflow

import (
	"strings"

	"github.com/randalmurphal/featureflow/agent"
	"github.com/randalmurphal/featureflow/chat"
	"github.com/randalmurphal/featureflow/session"
)

// EventKind classifies what happened to a session.
type EventKind int

const (
	// EventText is a user message with no command meaning in its state.
	EventText EventKind = iota
	// EventApprove is the exact word "approve".
	EventApprove
	// EventAbort is the exact word "abort".
	EventAbort
	// EventAgentDone is a finished, or undispatchable, agent invocation.
	EventAgentDone
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventApprove:
		return "approve"
	case EventAbort:
		return "abort"
	case EventAgentDone:
		return "agent_done"
	default:
		return "unknown"
	}
}

// Event is one unit of work for the loop.
type Event struct {
	Kind     EventKind
	ThreadID string

	// Message is set for user events. Text has leading mentions stripped.
	Message chat.Message
	Text    string

	// Completion is set for EventAgentDone.
	Completion *Completion
}

// Completion reports the end of an agent invocation.
type Completion struct {
	Kind    agent.Kind
	Outcome *agent.Outcome
	Err     error

	// Before is the session as it was when the invocation was requested.
	// A dispatch error restores it.
	Before session.Session
}

// classify turns an inbound message into an event.
func classify(msg chat.Message) Event {
	text := chat.StripMentions(msg.Text)
	ev := Event{Kind: EventText, ThreadID: msg.ThreadID, Message: msg, Text: text}
	switch strings.ToLower(text) {
	case "approve":
		ev.Kind = EventApprove
	case "abort":
		ev.Kind = EventAbort
	}
	return ev
}

// transitionKey selects a handler.
type transitionKey struct {
	State session.State
	Kind  EventKind
}
