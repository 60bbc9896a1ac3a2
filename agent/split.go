package agent

import "strings"

// Sentinel lines printed by the coding agent.
const (
	PlanDelimiter    = "<<<FINAL_PLAN>>>"
	SummaryDelimiter = "<<<FINAL_SUMMARY>>>"
)

// NotCaptured replaces the thoughts when output has no delimiter.
const NotCaptured = "(agent thoughts not captured)"

// Split separates output at the last occurrence of delimiter. Both halves
// are trimmed of surrounding whitespace.
func Split(output, delimiter string) (thoughts, result string, found bool) {
	i := strings.LastIndex(output, delimiter)
	if i < 0 || delimiter == "" {
		return NotCaptured, strings.TrimSpace(output), false
	}
	return strings.TrimSpace(output[:i]), strings.TrimSpace(output[i+len(delimiter):]), true
}
