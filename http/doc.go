// Package http is the retrying JSON client used for outbound calls to the
// chat platform and operator webhooks.
//
// Requests are retried on network errors, 429 and 5xx responses with
// exponential backoff, honouring Retry-After. Error responses become
// *APIError values that unwrap to the sentinel for their status code.
package http
