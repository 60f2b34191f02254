package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rodneyha/bctelemetrybuddy/internal/config"
)

func newTestHandlers(t *testing.T, clusterURL string, profiles map[string]config.ProfileConfig) *ToolHandlers {
	t.Helper()
	t.Setenv("BCTB_CLIENT_SECRET", "test-secret")
	t.Setenv("BCTB_ACCESS_TOKEN", "test-token")

	profile := config.ProfileConfig{
		TenantID: "tenant", ClientID: "client", WorkspaceID: "ws", ClusterURI: clusterURL,
	}
	cfg := &config.ResolvedConfig{
		ActiveProfileName: "default",
		Profile:           profile,
	}
	if profiles != nil {
		cfg.Profile = profiles["default"]
	}
	return NewToolHandlers(t.TempDir(), cfg, nil)
}

func TestToolHandlers_GetAuthStatus_Unconfigured(t *testing.T) {
	cfg := &config.ResolvedConfig{ActiveProfileName: "default"}
	h := NewToolHandlers(t.TempDir(), cfg, nil)
	status := h.GetAuthStatus()
	if status.Authenticated {
		t.Fatal("expected unauthenticated with no profile fields set")
	}
	if len(status.ConfigurationIssues) == 0 {
		t.Error("expected configuration issues to be listed")
	}
}

func TestToolHandlers_GetAuthStatus_Configured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tables":[]}`))
	}))
	defer server.Close()

	h := newTestHandlers(t, server.URL, nil)
	status := h.GetAuthStatus()
	if !status.Authenticated {
		t.Fatalf("expected authenticated, issues: %v", status.ConfigurationIssues)
	}
}

func TestToolHandlers_Dispatch_QueryTelemetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tables":[{"columns":[{"name":"eventId"}],"rows":[["A"],["B"]]}]}`))
	}))
	defer server.Close()

	h := newTestHandlers(t, server.URL, nil)
	args, _ := json.Marshal(map[string]string{"kql": "traces | take 2"})
	result, err := h.Execute(context.Background(), "query_telemetry", args)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result == nil {
		t.Fatal("expected a non-nil result")
	}
}

func TestToolHandlers_Dispatch_EmptyKQLFails(t *testing.T) {
	h := newTestHandlers(t, "http://unused.invalid", nil)
	args, _ := json.Marshal(map[string]string{"kql": ""})
	if _, err := h.Execute(context.Background(), "query_telemetry", args); err == nil {
		t.Fatal("expected an error for empty kql")
	}
}

func TestToolHandlers_Dispatch_UnknownTool(t *testing.T) {
	h := newTestHandlers(t, "http://unused.invalid", nil)
	if _, err := h.Execute(context.Background(), "bogus_tool", nil); err == nil {
		t.Fatal("expected an error for an unknown tool")
	}
}

func TestToolHandlers_CacheStatsAndClear(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tables":[{"columns":[{"name":"c"}],"rows":[["v"]]}]}`))
	}))
	defer server.Close()

	h := newTestHandlers(t, server.URL, nil)
	args, _ := json.Marshal(map[string]string{"kql": "traces | take 1"})
	if _, err := h.Execute(context.Background(), "query_telemetry", args); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// second call should hit cache
	if _, err := h.Execute(context.Background(), "query_telemetry", args); err != nil {
		t.Fatalf("Execute (cached): %v", err)
	}

	stats, err := h.Execute(context.Background(), "get_cache_stats", nil)
	if err != nil {
		t.Fatalf("get_cache_stats: %v", err)
	}
	_ = stats

	if _, err := h.Execute(context.Background(), "clear_cache", nil); err != nil {
		t.Fatalf("clear_cache: %v", err)
	}
}

func TestToolHandlers_ListAndSwitchProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tables":[]}`))
	}))
	defer server.Close()
	t.Setenv("BCTB_CLIENT_SECRET", "test-secret")

	cfg := &config.ResolvedConfig{
		ActiveProfileName: "default",
		Profile:           config.ProfileConfig{TenantID: "t", ClientID: "c", WorkspaceID: "w", ClusterURI: server.URL},
	}
	h := NewToolHandlers(t.TempDir(), cfg, nil)

	list := h.ListProfiles()
	if list.Active != "default" {
		t.Errorf("active = %q", list.Active)
	}

	if _, err := h.SwitchProfile("other"); err == nil {
		t.Fatal("expected error switching to an unknown profile when no profiles map is configured")
	}
}

func TestDefinitions_ToLLMToolDefsCoversEveryTool(t *testing.T) {
	defs := Definitions()
	llmDefs := ToLLMToolDefs(defs)
	if len(llmDefs) != len(defs) {
		t.Fatalf("len(llmDefs) = %d, want %d", len(llmDefs), len(defs))
	}
	names := map[string]bool{}
	for _, d := range defs {
		names[d.Name] = true
	}
	for _, want := range []string{"get_event_catalog", "query_telemetry", "save_query", "switch_profile", "get_auth_status"} {
		if !names[want] {
			t.Errorf("missing tool definition %q", want)
		}
	}
}
