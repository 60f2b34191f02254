// Package bcstate holds the per-agent on-disk state model and the pure
// state-transition function the runtime applies after every run.
package bcstate

import "time"

// Status is the lifecycle state of an agent.
type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
)

// Trend describes the direction of an issue's counts series.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
	TrendDecreasing Trend = "decreasing"
)

// ActionType enumerates the dispatchable action kinds.
type ActionType string

const (
	ActionTeamsWebhook   ActionType = "teams-webhook"
	ActionEmailSMTP      ActionType = "email-smtp"
	ActionEmailGraph     ActionType = "email-graph"
	ActionGenericWebhook ActionType = "generic-webhook"
	ActionPipelineTrigger ActionType = "pipeline-trigger"
)

// ActionStatus is the outcome of a single dispatch attempt.
type ActionStatus string

const (
	ActionSent   ActionStatus = "sent"
	ActionFailed ActionStatus = "failed"
)

// ActionDetails carries the human-facing summary of a dispatch attempt.
type ActionDetails struct {
	Title    string `json:"title,omitempty"`
	Severity string `json:"severity,omitempty"`
	Error    string `json:"error,omitempty"`
}

// AgentAction is the record of one dispatch attempt. Run is the number of
// the run that produced it; UpdateState and the runtime stamp it before
// the record is saved.
type AgentAction struct {
	Run       int           `json:"run"`
	Type      ActionType    `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Status    ActionStatus  `json:"status"`
	Details   ActionDetails `json:"details,omitempty"`
}

// AgentIssue is a tracked anomaly, matched across runs by id or
// fingerprint.
type AgentIssue struct {
	ID                     string        `json:"id"`
	Fingerprint            string        `json:"fingerprint"`
	FirstSeen              time.Time     `json:"firstSeen"`
	LastSeen               time.Time     `json:"lastSeen"`
	ConsecutiveDetections   int           `json:"consecutiveDetections"`
	Trend                  Trend         `json:"trend,omitempty"`
	Counts                 []float64     `json:"counts,omitempty"`
	ActionsTaken           []AgentAction `json:"actionsTaken,omitempty"`
}

// matches reports whether this issue identifies the same anomaly as
// other, via id or fingerprint.
func (i AgentIssue) matches(other AgentIssue) bool {
	if i.ID != "" && other.ID != "" && i.ID == other.ID {
		return true
	}
	if i.Fingerprint != "" && other.Fingerprint != "" && i.Fingerprint == other.Fingerprint {
		return true
	}
	return false
}

// AgentRunSummary is the condensed record of one run kept in the state's
// sliding window.
type AgentRunSummary struct {
	RunID      int           `json:"runId"`
	Timestamp  time.Time     `json:"timestamp"`
	DurationMs int64         `json:"durationMs"`
	ToolCalls  []string      `json:"toolCalls"`
	Findings   string        `json:"findings"`
	Actions    []AgentAction `json:"actions"`
}

// AgentState is the complete persisted state of one agent, rewritten
// atomically after every run.
type AgentState struct {
	AgentName      string            `json:"agentName"`
	Created        time.Time         `json:"created"`
	LastRun        *time.Time        `json:"lastRun"`
	RunCount       int               `json:"runCount"`
	Status         Status            `json:"status"`
	Summary        string            `json:"summary"`
	ActiveIssues   []AgentIssue      `json:"activeIssues"`
	ResolvedIssues []AgentIssue      `json:"resolvedIssues"`
	RecentRuns     []AgentRunSummary `json:"recentRuns"`
}

// InitialState returns the state written by createAgent: an untouched
// agent that has never run.
func InitialState(name string, created time.Time) AgentState {
	return AgentState{
		AgentName:      name,
		Created:        created,
		RunCount:       0,
		Status:         StatusActive,
		Summary:        "",
		ActiveIssues:   []AgentIssue{},
		ResolvedIssues: []AgentIssue{},
		RecentRuns:     []AgentRunSummary{},
	}
}

// StateChanges records what the LLM reported it changed this run, surfaced
// verbatim in the run log and Markdown report.
type StateChanges struct {
	SummaryUpdated bool     `json:"summaryUpdated"`
	Notes          []string `json:"notes,omitempty"`
}

// LLMUsageSummary is the token-accounting portion of an AgentRunLog.
type LLMUsageSummary struct {
	Model            string `json:"model"`
	PromptTokens     int    `json:"promptTokens"`
	CompletionTokens int    `json:"completionTokens"`
	TotalTokens      int    `json:"totalTokens"`
	ToolCallCount    int    `json:"toolCallCount"`
}

// ToolCallLogEntry records one tool invocation during a run, in dispatch
// order.
type ToolCallLogEntry struct {
	Sequence      int    `json:"sequence"`
	Tool          string `json:"tool"`
	Args          string `json:"args"`
	ResultSummary string `json:"resultSummary"`
	DurationMs    int64  `json:"durationMs"`
}

// StateAtStart is the snapshot captured before a run began.
type StateAtStart struct {
	Summary          string `json:"summary"`
	ActiveIssueCount int    `json:"activeIssueCount"`
	RunCount         int    `json:"runCount"`
}

// AgentRunLog is the audit-trail record written alongside every run.
type AgentRunLog struct {
	RunID        int                `json:"runId"`
	AgentName    string             `json:"agentName"`
	Timestamp    time.Time          `json:"timestamp"`
	DurationMs   int64              `json:"durationMs"`
	Instruction  string             `json:"instruction"`
	StateAtStart StateAtStart       `json:"stateAtStart"`
	LLM          LLMUsageSummary    `json:"llm"`
	ToolCalls    []ToolCallLogEntry `json:"toolCalls"`
	Assessment   string             `json:"assessment"`
	Findings     string             `json:"findings"`
	Actions      []AgentAction      `json:"actions"`
	StateChanges StateChanges       `json:"stateChanges"`
}

// AgentSummary is the listAgents() projection of one agent.
type AgentSummary struct {
	Name             string     `json:"name"`
	Status           Status     `json:"status"`
	RunCount         int        `json:"runCount"`
	LastRun          *time.Time `json:"lastRun"`
	ActiveIssueCount int        `json:"activeIssueCount"`
}
