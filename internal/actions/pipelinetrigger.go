package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rodneyha/bctelemetrybuddy/internal/config"
	"github.com/rodneyha/bctelemetrybuddy/internal/prompt"
)

// triggerPipeline starts an Azure DevOps pipeline run, authenticating
// with HTTP Basic using a personal access token as the password and an
// empty username, the convention Azure DevOps REST calls expect.
func (d *Dispatcher) triggerPipeline(ctx context.Context, cfg config.ActionConfig, action prompt.RequestedAction, agentName string) error {
	if cfg.OrgURL == "" || cfg.Project == "" || cfg.PipelineID == 0 {
		return fmt.Errorf("pipeline-trigger: orgUrl, project, and pipelineId are required")
	}

	pat := os.Getenv("DEVOPS_PAT")
	if pat == "" {
		return fmt.Errorf("pipeline-trigger: DEVOPS_PAT is not set")
	}

	templateParameters := map[string]interface{}{
		"agentName": agentName,
	}
	if action.InvestigationID != "" {
		templateParameters["investigationId"] = action.InvestigationID
	}

	body := map[string]interface{}{
		"templateParameters": templateParameters,
		"resources": map[string]interface{}{
			"repositories": map[string]interface{}{
				"self": map[string]interface{}{
					"refName": "refs/heads/main",
				},
			},
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("pipeline-trigger: marshal body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/_apis/pipelines/%d/runs?api-version=7.0", cfg.OrgURL, cfg.Project, cfg.PipelineID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("pipeline-trigger: create request: %w", err)
	}
	req.SetBasicAuth("", pat)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pipeline-trigger: request failed: %w", err)
	}
	defer resp.Body.Close()

	if nonSuccess(resp.StatusCode) {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return fmt.Errorf("pipeline-trigger: status %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
