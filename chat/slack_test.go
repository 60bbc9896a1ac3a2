package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	fhttp "github.com/randalmurphal/featureflow/http"
)

func TestSlackClient_PostReply(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat.postMessage" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer xoxb-1" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true,"ts":"2.0"}`))
	}))
	defer srv.Close()

	c := NewSlackClient(srv.URL, "xoxb-1", nil)
	if err := c.PostReply(context.Background(), "C1", "1.0", "hello"); err != nil {
		t.Fatalf("PostReply: %v", err)
	}
	if got["channel"] != "C1" || got["thread_ts"] != "1.0" || got["text"] != "hello" {
		t.Errorf("body = %v", got)
	}
}

func TestSlackClient_NotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer srv.Close()

	err := NewSlackClient(srv.URL, "t", nil).PostReply(context.Background(), "C", "1", "x")
	var apiErr *fhttp.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "channel_not_found" {
		t.Errorf("error = %v, want APIError channel_not_found", err)
	}
}

func TestSlackClient_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"display name", `{"ok":true,"user":{"name":"jdoe","real_name":"Jane Doe","profile":{"display_name":"jane"}}}`, "jane"},
		{"real name", `{"ok":true,"user":{"name":"jdoe","real_name":"Jane Doe","profile":{"display_name":""}}}`, "Jane Doe"},
		{"account name", `{"ok":true,"user":{"name":"jdoe"}}`, "jdoe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("user") != "U1" {
					t.Errorf("user param = %q", r.URL.Query().Get("user"))
				}
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := NewSlackClient(srv.URL, "t", nil).DisplayName(context.Background(), "U1")
			if err != nil {
				t.Fatalf("DisplayName: %v", err)
			}
			if got != tt.want {
				t.Errorf("DisplayName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 100); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}

	long := strings.Repeat("é", 100)
	got := truncate(long, 51)
	if len(got) > 51 {
		t.Errorf("len = %d, want <= 51", len(got))
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncate split a rune: %q", got)
	}
	if !strings.HasSuffix(got, truncationNote) {
		t.Errorf("missing truncation note: %q", got)
	}
}

type countingLookup struct {
	calls int
	err   error
}

func (c *countingLookup) DisplayName(_ context.Context, id string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return "name-" + id, nil
}

func TestCachedUsers(t *testing.T) {
	next := &countingLookup{}
	cached, err := NewCachedUsers(next, 2)
	if err != nil {
		t.Fatalf("NewCachedUsers: %v", err)
	}

	for i := 0; i < 3; i++ {
		name, err := cached.DisplayName(context.Background(), "U1")
		if err != nil || name != "name-U1" {
			t.Fatalf("DisplayName = %q, %v", name, err)
		}
	}
	if next.calls != 1 {
		t.Errorf("lookups = %d, want 1", next.calls)
	}

	next.err = errors.New("down")
	if _, err := cached.DisplayName(context.Background(), "U2"); err == nil {
		t.Error("expected error")
	}
	next.err = nil
	if name, _ := cached.DisplayName(context.Background(), "U2"); name != "name-U2" {
		t.Errorf("failed lookup was cached")
	}
}

func TestStripMentions(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<@U123> gisbot", "gisbot"},
		{"  <@U123|bot> <@U456>  approve ", "approve"},
		{"approve <@U123>", "approve <@U123>"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := StripMentions(tt.in); got != tt.want {
			t.Errorf("StripMentions(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
