// Package agent invokes the external coding agent.
//
// Every invocation runs
//
//	<agent> -y -p <prompt>
//
// in the target repository with the prompt passed as a single argument.
// The agent prints free-form progress and then a sentinel line
// (PlanDelimiter or SummaryDelimiter); the text after the last sentinel is
// the structured result. Split performs that parse and never fails: when
// the sentinel is missing the thoughts are NotCaptured and the whole
// output is the result.
package agent
