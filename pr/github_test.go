package pr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-github/v57/github"
)

// newTestGitHubChecker points a checker at a test server.
func newTestGitHubChecker(t *testing.T, handler http.Handler) *GitHubChecker {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := github.NewClient(nil)
	client.BaseURL, _ = client.BaseURL.Parse(server.URL + "/")
	return &GitHubChecker{client: client, host: "github.com"}
}

func TestGitHubChecker_Status(t *testing.T) {
	tests := []struct {
		name   string
		state  string
		merged bool
		want   State
	}{
		{"open", "open", false, StateOpen},
		{"closed not merged", "closed", false, StateClosed},
		{"closed merged", "closed", true, StateMerged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := newTestGitHubChecker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/repos/acme/app/pulls/42" {
					t.Errorf("path = %s", r.URL.Path)
				}
				fmt.Fprintf(w, `{"number":42,"state":%q,"merged":%v}`, tt.state, tt.merged)
			}))

			got, err := checker.Status(context.Background(), "https://github.com/acme/app/pull/42")
			if err != nil {
				t.Fatalf("Status: %v", err)
			}
			if got != tt.want {
				t.Errorf("Status = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGitHubChecker_Errors(t *testing.T) {
	checker := newTestGitHubChecker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	}))

	if _, err := checker.Status(context.Background(), "https://github.com/acme/app/pull/42"); err == nil {
		t.Error("expected error for 404")
	}
	if _, err := checker.Status(context.Background(), "https://gitlab.com/acme/app/pull/42"); !errors.Is(err, ErrUnsupportedHost) {
		t.Errorf("foreign host error = %v, want ErrUnsupportedHost", err)
	}
	if _, err := checker.Status(context.Background(), "not a url"); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("invalid URL error = %v, want ErrInvalidURL", err)
	}
}

func TestNewGitHubChecker(t *testing.T) {
	if _, err := NewGitHubChecker("", ""); err == nil {
		t.Error("expected error without token")
	}

	c, err := NewGitHubChecker("tok", "https://git.corp.example/api/v3/")
	if err != nil {
		t.Fatalf("NewGitHubChecker: %v", err)
	}
	if c.host != "git.corp.example" {
		t.Errorf("host = %q", c.host)
	}
}
