package bcstate

import (
	"fmt"
	"strings"
)

const maxResultSummaryLen = 120

// RenderMarkdownReport builds the stable Markdown report format consumed
// by downstream tooling: a fixed section order with tables for the
// summary, state-at-start, and tool-call sections.
func RenderMarkdownReport(log AgentRunLog) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Agent Run Report — %s (Run #%d)\n\n", log.AgentName, log.RunID)

	b.WriteString("# Summary\n\n")
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Timestamp | %s |\n", log.Timestamp.UTC().Format("2006-01-02T15:04:05Z"))
	fmt.Fprintf(&b, "| Duration (ms) | %d |\n", log.DurationMs)
	fmt.Fprintf(&b, "| Model | %s |\n", log.LLM.Model)
	fmt.Fprintf(&b, "| Prompt tokens | %d |\n", log.LLM.PromptTokens)
	fmt.Fprintf(&b, "| Completion tokens | %d |\n", log.LLM.CompletionTokens)
	fmt.Fprintf(&b, "| Total tokens | %d |\n", log.LLM.TotalTokens)
	fmt.Fprintf(&b, "| Tool calls | %d |\n\n", log.LLM.ToolCallCount)

	b.WriteString("# Instruction\n\n```\n")
	b.WriteString(log.Instruction)
	b.WriteString("\n```\n\n")

	b.WriteString("# State at Start\n\n")
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Summary | %s |\n", oneLine(log.StateAtStart.Summary))
	fmt.Fprintf(&b, "| Active issues | %d |\n", log.StateAtStart.ActiveIssueCount)
	fmt.Fprintf(&b, "| Run count | %d |\n\n", log.StateAtStart.RunCount)

	b.WriteString("# Tool Calls\n\n")
	if len(log.ToolCalls) == 0 {
		b.WriteString("None.\n\n")
	} else {
		b.WriteString("| # | Tool | Args | Result | Duration (ms) |\n|---|---|---|---|---|\n")
		for _, tc := range log.ToolCalls {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %d |\n",
				tc.Sequence, tc.Tool, oneLine(truncate(tc.Args, maxResultSummaryLen)),
				oneLine(truncate(tc.ResultSummary, maxResultSummaryLen)), tc.DurationMs)
		}
		b.WriteString("\n")
	}

	b.WriteString("# Findings\n\n")
	b.WriteString(log.Findings)
	b.WriteString("\n\n")

	b.WriteString("# Assessment\n\n")
	b.WriteString(log.Assessment)
	b.WriteString("\n\n")

	b.WriteString("# Actions Taken\n\n")
	if len(log.Actions) == 0 {
		b.WriteString("None.\n\n")
	} else {
		for _, a := range log.Actions {
			fmt.Fprintf(&b, "- `%s` → %s", a.Type, a.Status)
			if a.Details.Title != "" {
				fmt.Fprintf(&b, " — %s", a.Details.Title)
			}
			if a.Details.Error != "" {
				fmt.Fprintf(&b, " (%s)", a.Details.Error)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("# State Changes\n\n")
	fmt.Fprintf(&b, "- Summary updated: %t\n", log.StateChanges.SummaryUpdated)
	for _, note := range log.StateChanges.Notes {
		fmt.Fprintf(&b, "- %s\n", note)
	}

	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func oneLine(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", " "), "\n", " ")
}
