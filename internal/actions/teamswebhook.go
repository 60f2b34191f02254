package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rodneyha/bctelemetrybuddy/internal/config"
	"github.com/rodneyha/bctelemetrybuddy/internal/prompt"
)

// teamsColor maps severity to an Adaptive Card accent color.
func teamsColor(severity string) string {
	switch severity {
	case "high":
		return "attention"
	case "medium":
		return "warning"
	default:
		return "good"
	}
}

// teamsCard is a minimal Adaptive Card with a title, message, and a
// severity/agent fact set, wrapped in the MessageCard-compatible
// attachment envelope Teams incoming webhooks expect.
func teamsCard(action prompt.RequestedAction, agentName string) map[string]interface{} {
	return map[string]interface{}{
		"type": "message",
		"attachments": []map[string]interface{}{
			{
				"contentType": "application/vnd.microsoft.card.adaptive",
				"content": map[string]interface{}{
					"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
					"type":    "AdaptiveCard",
					"version": "1.4",
					"body": []map[string]interface{}{
						{
							"type":   "TextBlock",
							"text":   action.Title,
							"weight": "bolder",
							"size":   "medium",
							"color":  teamsColor(action.Severity),
							"wrap":   true,
						},
						{
							"type": "TextBlock",
							"text": action.Message,
							"wrap": true,
						},
						{
							"type": "FactSet",
							"facts": []map[string]string{
								{"title": "Severity", "value": action.Severity},
								{"title": "Agent", "value": agentName},
							},
						},
					},
				},
			},
		},
	}
}

// sendTeamsWebhook posts an Adaptive Card to a configured Teams incoming
// webhook URL.
func (d *Dispatcher) sendTeamsWebhook(ctx context.Context, cfg config.ActionConfig, action prompt.RequestedAction, agentName string) error {
	if cfg.URL == "" {
		return fmt.Errorf("teams-webhook: no URL configured")
	}

	body, err := json.Marshal(teamsCard(action, agentName))
	if err != nil {
		return fmt.Errorf("teams-webhook: marshal card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("teams-webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("teams-webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if nonSuccess(resp.StatusCode) {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return fmt.Errorf("teams-webhook: status %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
