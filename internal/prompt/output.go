package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rodneyha/bctelemetrybuddy/internal/bcerrors"
	"github.com/rodneyha/bctelemetrybuddy/internal/bcstate"
)

var (
	fencedJSONBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	bareJSONObject  = regexp.MustCompile(`(?s)\{.*\}`)
)

// AgentOutput is the parsed shape of the LLM's end-of-run JSON reply.
type AgentOutput struct {
	Summary        string                `json:"summary"`
	Findings       string                `json:"findings"`
	Assessment     string                `json:"assessment"`
	ActiveIssues   []bcstate.AgentIssue  `json:"activeIssues"`
	ResolvedIssues []string              `json:"resolvedIssues"`
	Actions        []RequestedAction     `json:"actions"`
	StateChanges   bcstate.StateChanges  `json:"stateChanges"`
}

// RequestedAction is one action entry the LLM asked the dispatcher to
// attempt; its fields mirror bcstate.ActionDetails plus the routing
// information the dispatcher needs to pick an effector and any webhook
// payload override.
type RequestedAction struct {
	Type           bcstate.ActionType `json:"type"`
	Title          string             `json:"title,omitempty"`
	Message        string             `json:"message,omitempty"`
	Severity       string             `json:"severity,omitempty"`
	Recipients     []string           `json:"recipients,omitempty"`
	InvestigationID string            `json:"investigationId,omitempty"`
	WebhookPayload json.RawMessage    `json:"webhookPayload,omitempty"`
}

// ParseAgentOutput extracts and validates the LLM's structured reply.
func ParseAgentOutput(content string) (*AgentOutput, error) {
	if strings.TrimSpace(content) == "" {
		return nil, bcerrors.New(bcerrors.KindOutput, "agent output is empty")
	}

	jsonText, err := extractJSON(content)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return nil, bcerrors.Wrap(bcerrors.KindOutput, "Failed to parse agent JSON output", err)
	}

	for _, field := range []string{"summary", "findings", "assessment"} {
		val, ok := raw[field]
		if !ok {
			return nil, bcerrors.New(bcerrors.KindOutput, fmt.Sprintf("Missing required field: %s", field))
		}
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			return nil, bcerrors.New(bcerrors.KindOutput, fmt.Sprintf("Missing required field: %s", field))
		}
	}

	var out AgentOutput
	if err := json.Unmarshal([]byte(jsonText), &out); err != nil {
		return nil, bcerrors.Wrap(bcerrors.KindOutput, "Failed to parse agent JSON output", err)
	}

	if out.ActiveIssues == nil {
		out.ActiveIssues = []bcstate.AgentIssue{}
	}
	if out.ResolvedIssues == nil {
		out.ResolvedIssues = []string{}
	}
	if out.Actions == nil {
		out.Actions = []RequestedAction{}
	}
	if !out.StateChanges.SummaryUpdated && len(out.StateChanges.Notes) == 0 {
		out.StateChanges = bcstate.StateChanges{SummaryUpdated: true}
	}

	return &out, nil
}

func extractJSON(content string) (string, error) {
	if m := fencedJSONBlock.FindStringSubmatch(content); m != nil {
		return m[1], nil
	}
	if m := bareJSONObject.FindString(content); m != "" {
		return m, nil
	}
	return "", bcerrors.New(bcerrors.KindOutput, "Failed to parse agent JSON output")
}
