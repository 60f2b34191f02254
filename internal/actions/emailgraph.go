package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/rodneyha/bctelemetrybuddy/internal/config"
	"github.com/rodneyha/bctelemetrybuddy/internal/prompt"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

// sendEmailGraph sends a notification through Microsoft Graph's sendMail
// endpoint, authenticating with a client-credentials grant. It mirrors
// the request shape Graph email integrations in this codebase already
// use, adapted to the two-step token-then-send flow an app-only grant
// requires.
func (d *Dispatcher) sendEmailGraph(ctx context.Context, cfg config.ActionConfig, action prompt.RequestedAction, agentName string) error {
	if cfg.TenantID == "" || cfg.ClientID == "" || cfg.From == "" {
		return fmt.Errorf("email-graph: tenantId, clientId, and from are required")
	}

	secret := os.Getenv("GRAPH_CLIENT_SECRET")
	if secret == "" {
		return fmt.Errorf("email-graph: GRAPH_CLIENT_SECRET is not set")
	}

	tokenCfg := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: secret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	token, err := tokenCfg.Token(ctx)
	if err != nil {
		return fmt.Errorf("email-graph: token request failed: %w", err)
	}

	recipients := action.Recipients
	if len(recipients) == 0 {
		recipients = cfg.DefaultRecipients
	}
	if len(recipients) == 0 {
		return fmt.Errorf("email-graph: no recipients configured")
	}
	toRecipients := make([]map[string]interface{}, len(recipients))
	for i, addr := range recipients {
		toRecipients[i] = map[string]interface{}{
			"emailAddress": map[string]interface{}{"address": addr},
		}
	}

	subject := fmt.Sprintf("%s %s", severityEmoji(action.Severity), action.Title)
	body := map[string]interface{}{
		"message": map[string]interface{}{
			"subject": subject,
			"body": map[string]interface{}{
				"contentType": "Text",
				"content":     action.Message,
			},
			"toRecipients": toRecipients,
		},
		"saveToSentItems": true,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("email-graph: marshal message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/users/%s/sendMail", graphBaseURL, cfg.From)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("email-graph: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email-graph: send failed: %w", err)
	}
	defer resp.Body.Close()

	if nonSuccess(resp.StatusCode) {
		b, readErr := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		if readErr != nil {
			b = []byte("(failed to read response body)")
		}
		return fmt.Errorf("email-graph: status %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
