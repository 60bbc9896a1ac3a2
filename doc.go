// Package featureflow runs feature requests from a chat thread through a
// coding agent to a merged pull request.
//
// The module is organized by concern:
//
//   - workflow: per-thread state machine and its event loop
//   - session: active sessions in memory, backed by the durable store
//   - store: SQLite persistence of feature request records
//   - agent: coding-agent prompts, invocation and delimiter parsing
//   - runner: external command execution
//   - pr: pull request URL parsing, status checkers and the poll monitor
//   - chat: conversation interfaces and the Slack adapter
//   - notify: operator notifications (log, Slack webhook, generic webhook)
//   - prompt: embedded prompt templates with directory overrides
//   - transcript: JSON records of every agent invocation
//   - metrics: Prometheus collectors
//   - config: layered configuration and the repository table
//   - http: retrying JSON client used by the Slack adapter
//   - testutil: shared test helpers
//
// # Quick Start
//
//	featureflow repos                    # check the repository table
//	featureflow serve --listen :8080     # run the bot
//	featureflow sessions                 # list open feature requests
//
// Point the Slack Events API at /slack/events. Health and metrics are
// served at /healthz and /metrics.
//
// A thread starts when a user mentions the bot at the top level. The bot
// asks for a repository, then a feature description, drafts a plan with the
// coding agent and waits for "approve", "abort" or revision feedback. After
// approval the agent implements the plan and opens a pull request, which
// is polled until it is merged or closed.
package featureflow
