package pr

import "errors"

var (
	// ErrInvalidURL indicates a string is not a pull request URL.
	ErrInvalidURL = errors.New("invalid pull request URL")

	// ErrMalformedResponse indicates the status source returned unusable data.
	ErrMalformedResponse = errors.New("malformed pull request status")

	// ErrUnsupportedHost indicates the checker cannot query the URL's host.
	ErrUnsupportedHost = errors.New("unsupported pull request host")
)
