// Package workflow drives one feature request per chat thread.
//
// A Machine owns a single loop goroutine. Inbound chat messages and
// coding-agent completions are both delivered to it as Events and handled
// one at a time through a table keyed by (session state, event kind).
// Agent invocations run in their own goroutines and report back to the loop,
// so a slow invocation for one thread never delays another thread.
//
// States move through:
//
//	SELECTING_REPO -> AWAITING_REQUEST -> IMPLEMENTING -> AWAITING_APPROVAL
//	  -> (REVISING -> AWAITING_APPROVAL)* -> FINALIZING
//	  -> MONITORING_PR | COMPLETED
//
// "abort" ends a session from any state that is waiting on the user.
// While an invocation is outstanding the session is busy and every message
// gets a busy notice. Sessions in MONITORING_PR are finished by pr.Monitor.
//
// Every transition is persisted through session.Repository before the reply
// that announces it is posted.
package workflow
