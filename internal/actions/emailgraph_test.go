package actions

import (
	"context"
	"testing"

	"github.com/rodneyha/bctelemetrybuddy/internal/config"
	"github.com/rodneyha/bctelemetrybuddy/internal/prompt"
)

func TestSendEmailGraph_MissingConfig(t *testing.T) {
	t.Setenv("GRAPH_CLIENT_SECRET", "secret")
	d := NewDispatcher(nil)
	err := d.sendEmailGraph(context.Background(), config.ActionConfig{}, prompt.RequestedAction{}, "perf")
	if err == nil {
		t.Fatal("expected error when tenantId/clientId/from are missing")
	}
}

func TestSendEmailGraph_MissingSecret(t *testing.T) {
	t.Setenv("GRAPH_CLIENT_SECRET", "")
	d := NewDispatcher(nil)
	cfg := config.ActionConfig{TenantID: "t", ClientID: "c", From: "svc@example.com"}
	err := d.sendEmailGraph(context.Background(), cfg, prompt.RequestedAction{}, "perf")
	if err == nil {
		t.Fatal("expected error when GRAPH_CLIENT_SECRET is unset")
	}
}
