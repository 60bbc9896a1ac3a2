// Package session holds active workflow sessions.
//
// Repository is the in-memory map of non-terminal sessions, keyed by
// thread id, backed by the durable feature request store. It is the single
// place where memory and the durable record are kept in step:
//
//   - Save writes the changed fields to the store and then updates memory;
//     a session saved in a terminal state leaves memory in the same call.
//   - Persistence failures are logged and swallowed. Memory stays
//     authoritative and the durable record may lag.
//   - ReloadActive repopulates memory at start-up from every non-terminal
//     record, rolling busy states back to the state that preceded them.
//
// Sessions are plain values; Get and List hand out copies.
package session
