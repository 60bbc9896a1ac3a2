package chat

import (
	"context"
	"sync"
)

// Reply is one message recorded by MockPoster.
type Reply struct {
	Channel  string
	ThreadID string
	Text     string
}

// MockPoster records replies for tests.
type MockPoster struct {
	// PostReplyFunc, when set, decides the returned error.
	PostReplyFunc func(ctx context.Context, channel, threadID, text string) error

	mu      sync.Mutex
	replies []Reply
}

// PostReply implements Poster.
func (m *MockPoster) PostReply(ctx context.Context, channel, threadID, text string) error {
	m.mu.Lock()
	m.replies = append(m.replies, Reply{Channel: channel, ThreadID: threadID, Text: text})
	m.mu.Unlock()
	if m.PostReplyFunc != nil {
		return m.PostReplyFunc(ctx, channel, threadID, text)
	}
	return nil
}

// Replies returns a copy of everything posted.
func (m *MockPoster) Replies() []Reply {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Reply(nil), m.replies...)
}

// RepliesTo returns the replies posted to one thread.
func (m *MockPoster) RepliesTo(threadID string) []Reply {
	var out []Reply
	for _, r := range m.Replies() {
		if r.ThreadID == threadID {
			out = append(out, r)
		}
	}
	return out
}

// MockUsers resolves names from a fixed map; unknown ids are returned as-is.
type MockUsers map[string]string

// DisplayName implements UserLookup.
func (m MockUsers) DisplayName(_ context.Context, userID string) (string, error) {
	if name, ok := m[userID]; ok {
		return name, nil
	}
	return userID, nil
}
