package workflow

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/featureflow/chat"
	"github.com/randalmurphal/featureflow/session"
)

const (
	threadClosedText = "This thread already had a feature request. Start a new thread to make another one."

	emptyRequestText = "Describe the feature you want, in as much detail as you like."

	approvalPromptText = "Reply `approve` to implement the plan, `abort` to cancel, or send feedback to revise it."

	revisingText = "Revising the plan with your feedback. I'll post the new version here."

	abortedText = "Aborted. Nothing else will happen in this thread."
)

func greetingText(user string, repos []string) string {
	return fmt.Sprintf("Hi %s! Which repository should I work on? Known repositories: %s.",
		chat.UserRef(user), strings.Join(repos, ", "))
}

func rejectText(name, owner string) string {
	return fmt.Sprintf("Sorry %s, only %s can drive this feature request.", name, chat.UserRef(owner))
}

func unknownRepoText(input string, repos []string) string {
	if input == "" {
		return fmt.Sprintf("Which repository? Known repositories: %s.", strings.Join(repos, ", "))
	}
	return fmt.Sprintf("I don't know a repository called %q. Known repositories: %s.",
		input, strings.Join(repos, ", "))
}

func missingPathText(repo, path string) string {
	return fmt.Sprintf("Repository *%s* is configured at `%s`, but that directory does not exist. "+
		"An operator has been told. This request cannot continue.", repo, path)
}

func repoSelectedText(repo string) string {
	return fmt.Sprintf("Working on *%s*. What feature do you want?", repo)
}

func draftingText(repo string) string {
	return fmt.Sprintf("Drafting a plan for *%s*. This can take a few minutes.", repo)
}

func implementingText(repo string) string {
	return fmt.Sprintf("Approved. Implementing the plan in *%s* and opening a pull request.", repo)
}

// doing describes the invocation outstanding in a busy state.
func doing(state session.State) string {
	switch state {
	case session.Implementing:
		return "drafting the plan"
	case session.Revising:
		return "revising the plan"
	case session.Finalizing:
		return "implementing the plan"
	default:
		return "working"
	}
}

func busyText(state session.State) string {
	return fmt.Sprintf("I'm still %s. I'll reply here when it's done.", doing(state))
}

func monitoringText(url string) string {
	return fmt.Sprintf("Waiting for %s to be merged or closed. I'll post here when it is.", url)
}

func planText(plan string) string {
	return fmt.Sprintf("Here is the plan:\n\n%s\n\n%s", plan, approvalPromptText)
}

func completedText(summary string) string {
	return fmt.Sprintf("Implementation finished:\n\n%s\n\nNo pull request was found, so this feature request is complete.", summary)
}

func prOpenedText(summary, url string) string {
	return fmt.Sprintf("Implementation finished:\n\n%s\n\nPull request: %s\nI'll post here when it is merged or closed.", summary, url)
}

func dispatchFailedText(err error) string {
	return fmt.Sprintf("I couldn't start the coding agent: %v\nNothing changed. Send your last message again to retry.", err)
}

func exitFailureText(code int, output string) string {
	return fmt.Sprintf("The coding agent exited with status %d. Its output:\n```\n%s\n```", code, strings.TrimSpace(output))
}

func recoveredText(from, to session.State) string {
	next := approvalPromptText
	if to == session.AwaitingRequest {
		next = "Send the feature description again to retry."
	}
	return fmt.Sprintf("I restarted while %s, so that step was lost. %s", doing(from), next)
}
