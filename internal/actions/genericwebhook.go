package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rodneyha/bctelemetrybuddy/internal/config"
	"github.com/rodneyha/bctelemetrybuddy/internal/prompt"
)

// sendGenericWebhook posts either the caller-supplied payload or a
// default envelope to a configured URL, applying whichever auth scheme
// is configured. Grounded on the cron scheduler's webhook executor and
// its applyWebhookAuth header logic.
func (d *Dispatcher) sendGenericWebhook(ctx context.Context, cfg config.ActionConfig, action prompt.RequestedAction, agentName string) error {
	if cfg.URL == "" {
		return fmt.Errorf("generic-webhook: no URL configured")
	}

	method := strings.ToUpper(strings.TrimSpace(cfg.Method))
	if method == "" {
		method = http.MethodPost
	}

	var payload []byte
	if len(action.WebhookPayload) > 0 {
		payload = action.WebhookPayload
	} else {
		envelope := map[string]interface{}{
			"title":     action.Title,
			"message":   action.Message,
			"severity":  action.Severity,
			"agent":     agentName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		b, err := json.Marshal(envelope)
		if err != nil {
			return fmt.Errorf("generic-webhook: marshal default envelope: %w", err)
		}
		payload = b
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("generic-webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}
	if err := applyWebhookAuth(req, cfg.Auth); err != nil {
		return fmt.Errorf("generic-webhook: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("generic-webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if nonSuccess(resp.StatusCode) {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return fmt.Errorf("generic-webhook: status %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

// applyWebhookAuth sets the Authorization (or custom) header for the
// configured auth scheme. An empty Type is treated as "no auth" rather
// than an error, since generic-webhook targets are often unauthenticated.
func applyWebhookAuth(req *http.Request, auth config.WebhookAuthConfig) error {
	switch strings.ToLower(strings.TrimSpace(auth.Type)) {
	case "":
		return nil
	case "bearer":
		token := strings.TrimSpace(auth.Token)
		if token == "" {
			return fmt.Errorf("bearer auth requires a token")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	case "basic":
		if strings.TrimSpace(auth.Username) == "" {
			return fmt.Errorf("basic auth requires a username")
		}
		req.SetBasicAuth(auth.Username, auth.Password)
	case "api_key":
		header := strings.TrimSpace(auth.HeaderName)
		if header == "" {
			return fmt.Errorf("api_key auth requires a header name")
		}
		if strings.TrimSpace(auth.APIKey) == "" {
			return fmt.Errorf("api_key auth requires a key")
		}
		req.Header.Set(header, auth.APIKey)
	default:
		return fmt.Errorf("unsupported auth type %q", auth.Type)
	}
	return nil
}
