// Package prompt renders the coding-agent prompts.
//
// Three templates ship embedded in the binary:
//
//   - plan: draft an implementation plan for a feature request
//   - revise: revise a plan given user feedback
//   - implement: implement an approved plan and open a pull request
//
// A template of the same name in the override directory replaces the
// embedded one:
//
//	loader := prompt.NewLoader(prompt.WithDir("/etc/featureflow/prompts"))
//	text, err := loader.Render(prompt.Plan, map[string]any{
//	    "repo":      "gisbot",
//	    "request":   "add dark mode",
//	    "delimiter": "<<<FINAL_PLAN>>>",
//	})
package prompt
