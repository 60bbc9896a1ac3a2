package pr

import (
	"fmt"
	"regexp"
	"strconv"
)

var urlPattern = regexp.MustCompile(`https://([^/\s]+)/([^/\s]+)/([^/\s]+)/pull/(\d+)`)

// Ref identifies a pull request.
type Ref struct {
	Host   string
	Owner  string
	Repo   string
	Number int
}

// FindURL returns the first pull request URL in text.
func FindURL(text string) (string, bool) {
	url := urlPattern.FindString(text)
	return url, url != ""
}

// ParseURL splits a pull request URL into its parts.
func ParseURL(url string) (Ref, error) {
	m := urlPattern.FindStringSubmatch(url)
	if m == nil || m[0] != url {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidURL, url)
	}
	n, err := strconv.Atoi(m[4])
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidURL, url)
	}
	return Ref{Host: m[1], Owner: m[2], Repo: m[3], Number: n}, nil
}
