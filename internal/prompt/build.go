package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rodneyha/bctelemetrybuddy/internal/bcstate"
)

// BuildAgentPrompt constructs the user message for one run: the
// instruction verbatim, the run number, and — on every run after the
// first — the prior summary, active issues, and a digest of recent runs.
func BuildAgentPrompt(instruction string, state bcstate.AgentState, now time.Time) string {
	var b strings.Builder

	b.WriteString(instruction)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Current time: %s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Run #%d\n\n", state.RunCount+1)

	if state.RunCount == 0 {
		b.WriteString("FIRST RUN — no previous context.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Previous summary: %s\n\n", state.Summary)

	b.WriteString("Active issues:\n")
	if len(state.ActiveIssues) == 0 {
		b.WriteString("(none)\n")
	} else {
		issuesJSON, err := json.MarshalIndent(state.ActiveIssues, "", "  ")
		if err != nil {
			b.WriteString("(failed to render active issues)\n")
		} else {
			b.Write(issuesJSON)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	b.WriteString("Recent runs:\n")
	if len(state.RecentRuns) == 0 {
		b.WriteString("(none)\n")
	} else {
		for _, run := range state.RecentRuns {
			actionTypes := make([]string, 0, len(run.Actions))
			for _, a := range run.Actions {
				actionTypes = append(actionTypes, string(a.Type))
			}
			fmt.Fprintf(&b, "- Run #%d: %s", run.RunID, run.Findings)
			if len(actionTypes) > 0 {
				fmt.Fprintf(&b, " (actions: %s)", strings.Join(actionTypes, ", "))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
