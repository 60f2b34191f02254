package bcstate

import "time"

// RunOutput is the parsed shape of what the LLM reported for a run (the
// result of prompt.ParseAgentOutput), expressed in terms this package can
// consume without importing the prompt package.
type RunOutput struct {
	Summary        string
	Findings       string
	Assessment     string
	ActiveIssues   []AgentIssue
	ResolvedIssues []string
	StateChanges   StateChanges
}

// UpdateState computes the next AgentState from the previous one and the
// outcome of a single run. It performs no I/O: every timestamp it needs
// is supplied by the caller so the result is fully deterministic.
func UpdateState(
	prev AgentState,
	output RunOutput,
	executedActions []AgentAction,
	durationMs int64,
	toolCallNames []string,
	now time.Time,
	resolvedIssueTTL time.Duration,
) AgentState {
	newRunID := prev.RunCount + 1

	stamped := make([]AgentAction, len(executedActions))
	for i, a := range executedActions {
		a.Run = newRunID
		stamped[i] = a
	}

	newActiveIssues := mergeActiveIssues(prev.ActiveIssues, output.ActiveIssues, stamped, now)

	newResolvedIssues := mergeResolvedIssues(prev.ResolvedIssues, prev.ActiveIssues, output.ResolvedIssues, now, resolvedIssueTTL)

	runSummary := AgentRunSummary{
		RunID:      newRunID,
		Timestamp:  now,
		DurationMs: durationMs,
		ToolCalls:  append([]string(nil), toolCallNames...),
		Findings:   output.Findings,
		Actions:    stamped,
	}
	recentRuns := append(append([]AgentRunSummary(nil), prev.RecentRuns...), runSummary)

	next := AgentState{
		AgentName:      prev.AgentName,
		Created:        prev.Created,
		LastRun:        timePtr(now),
		RunCount:       newRunID,
		Status:         prev.Status,
		Summary:        output.Summary,
		ActiveIssues:   newActiveIssues,
		ResolvedIssues: newResolvedIssues,
		RecentRuns:     recentRuns,
	}
	return next
}

// SlidingWindow trims recentRuns to the last windowSize entries, newest
// last. Applied by the caller after UpdateState so the window size can be
// read from per-agent config rather than baked into the pure transition.
func SlidingWindow(runs []AgentRunSummary, windowSize int) []AgentRunSummary {
	if windowSize <= 0 || len(runs) <= windowSize {
		return runs
	}
	return append([]AgentRunSummary(nil), runs[len(runs)-windowSize:]...)
}

func mergeActiveIssues(prevActive, reported []AgentIssue, stampedActions []AgentAction, now time.Time) []AgentIssue {
	result := make([]AgentIssue, 0, len(reported))
	for _, out := range reported {
		merged := out
		if merged.LastSeen.IsZero() {
			merged.LastSeen = now
		}

		if prior, ok := findMatch(prevActive, out); ok {
			if !prior.FirstSeen.IsZero() {
				merged.FirstSeen = prior.FirstSeen
			} else {
				merged.FirstSeen = now
			}
			merged.ActionsTaken = append(append([]AgentAction(nil), prior.ActionsTaken...), stampedActions...)
		} else {
			if merged.FirstSeen.IsZero() {
				merged.FirstSeen = now
			}
			merged.ActionsTaken = append([]AgentAction(nil), stampedActions...)
		}
		result = append(result, merged)
	}
	return result
}

func mergeResolvedIssues(prevResolved, prevActive []AgentIssue, resolvedIDs []string, now time.Time, ttl time.Duration) []AgentIssue {
	result := append([]AgentIssue(nil), prevResolved...)

	for _, id := range resolvedIDs {
		for _, issue := range prevActive {
			if issue.ID == id || issue.Fingerprint == id {
				resolved := issue
				resolved.LastSeen = now
				result = append(result, resolved)
				break
			}
		}
	}

	return pruneExpired(result, now, ttl)
}

func pruneExpired(issues []AgentIssue, now time.Time, ttl time.Duration) []AgentIssue {
	if ttl <= 0 {
		return issues
	}
	kept := make([]AgentIssue, 0, len(issues))
	for _, issue := range issues {
		if now.Sub(issue.LastSeen) <= ttl {
			kept = append(kept, issue)
		}
	}
	return kept
}

func findMatch(issues []AgentIssue, target AgentIssue) (AgentIssue, bool) {
	for _, issue := range issues {
		if issue.matches(target) {
			return issue, true
		}
	}
	return AgentIssue{}, false
}

func timePtr(t time.Time) *time.Time { return &t }
