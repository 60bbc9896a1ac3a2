// Package pr watches pull requests opened by the coding agent.
//
// Monitor polls, on a fixed cron interval, every session parked in
// MONITORING_PR. When its pull request is MERGED or CLOSED the session is
// completed and the thread is told once. Any failure to learn the status
// is logged and retried on the next tick, with no backoff or cap.
//
// Status comes from a StatusChecker: CLIChecker shells out to
// `gh pr view <url> --json state`, GitHubChecker calls the GitHub REST API.
package pr
