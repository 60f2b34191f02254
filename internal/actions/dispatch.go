// Package actions implements the Action Dispatcher: five independent,
// idempotent effectors that carry out actions an agent's LLM output
// requested. One effector's failure never prevents another from running.
package actions

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rodneyha/bctelemetrybuddy/internal/bcstate"
	"github.com/rodneyha/bctelemetrybuddy/internal/config"
	"github.com/rodneyha/bctelemetrybuddy/internal/prompt"
)

// Dispatcher attempts requested actions against their configured
// effectors. The zero value is not usable; construct with NewDispatcher.
type Dispatcher struct {
	configs    map[string]config.ActionConfig
	httpClient *http.Client
	now        func() time.Time
}

// NewDispatcher builds a Dispatcher from the global actions configuration.
func NewDispatcher(configs map[string]config.ActionConfig) *Dispatcher {
	return &Dispatcher{
		configs:    configs,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// Dispatch attempts every requested action independently and returns one
// AgentAction per attempt, in the order requested. The Run field is left
// at zero; bcstate.UpdateState stamps the copies kept in agent state, and
// the runtime stamps the copies it records in the run log.
func (d *Dispatcher) Dispatch(requested []prompt.RequestedAction, agentName string) []bcstate.AgentAction {
	results := make([]bcstate.AgentAction, 0, len(requested))
	for _, action := range requested {
		results = append(results, d.dispatchOne(action, agentName))
	}
	return results
}

func (d *Dispatcher) dispatchOne(action prompt.RequestedAction, agentName string) bcstate.AgentAction {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := d.configs[string(action.Type)]

	var err error
	switch action.Type {
	case bcstate.ActionTeamsWebhook:
		err = d.sendTeamsWebhook(ctx, cfg, action, agentName)
	case bcstate.ActionEmailSMTP:
		err = d.sendEmailSMTP(cfg, action, agentName)
	case bcstate.ActionEmailGraph:
		err = d.sendEmailGraph(ctx, cfg, action, agentName)
	case bcstate.ActionGenericWebhook:
		err = d.sendGenericWebhook(ctx, cfg, action, agentName)
	case bcstate.ActionPipelineTrigger:
		err = d.triggerPipeline(ctx, cfg, action, agentName)
	default:
		err = fmt.Errorf("unknown action type %q", action.Type)
	}

	result := bcstate.AgentAction{
		Type:      action.Type,
		Timestamp: d.now(),
		Details: bcstate.ActionDetails{
			Title:    action.Title,
			Severity: action.Severity,
		},
	}
	if err != nil {
		result.Status = bcstate.ActionFailed
		result.Details.Error = err.Error()
	} else {
		result.Status = bcstate.ActionSent
	}
	return result
}

// severityEmoji prefixes a subject line with a 🔴/🟡/🟢 severity marker.
func severityEmoji(severity string) string {
	switch severity {
	case "high":
		return "🔴"
	case "medium":
		return "🟡"
	default:
		return "🟢"
	}
}

func nonSuccess(statusCode int) bool {
	return statusCode < 200 || statusCode >= 300
}
