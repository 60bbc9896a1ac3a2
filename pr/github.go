package pr

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// GitHubChecker reads pull request state from the GitHub REST API.
type GitHubChecker struct {
	client *github.Client
	host   string
}

// NewGitHubChecker creates a checker for github.com. When apiURL is set
// the checker targets a GitHub Enterprise server and accepts URLs whose
// host matches it.
func NewGitHubChecker(token, apiURL string) (*GitHubChecker, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token is required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(context.Background(), ts))
	host := "github.com"

	if apiURL != "" {
		u, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("parse GitHub API URL: %w", err)
		}
		client, err = client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("configure GitHub Enterprise: %w", err)
		}
		host = u.Hostname()
	}
	return &GitHubChecker{client: client, host: host}, nil
}

// Status implements StatusChecker.
func (g *GitHubChecker) Status(ctx context.Context, prURL string) (State, error) {
	ref, err := ParseURL(prURL)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(ref.Host, g.host) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedHost, ref.Host)
	}

	pull, _, err := g.client.PullRequests.Get(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return "", fmt.Errorf("get pull request %s/%s#%d: %w", ref.Owner, ref.Repo, ref.Number, err)
	}
	return stateFromGitHub(pull)
}

// stateFromGitHub maps the REST representation, where a merged pull
// request is "closed" with merged set.
func stateFromGitHub(pull *github.PullRequest) (State, error) {
	switch pull.GetState() {
	case "open":
		return StateOpen, nil
	case "closed":
		if pull.GetMerged() {
			return StateMerged, nil
		}
		return StateClosed, nil
	default:
		return "", fmt.Errorf("%w: state %q", ErrMalformedResponse, pull.GetState())
	}
}
