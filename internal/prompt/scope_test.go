package prompt

import (
	"testing"

	"github.com/rodneyha/bctelemetrybuddy/internal/config"
	"github.com/rodneyha/bctelemetrybuddy/internal/llm"
)

func allTools() []llm.ToolDef {
	names := []string{"get_event_catalog", "query_telemetry", "save_query", "switch_profile", "get_auth_status"}
	tools := make([]llm.ToolDef, len(names))
	for i, n := range names {
		tools[i] = llm.ToolDef{Name: n}
	}
	return tools
}

func TestFilterToolsByScope_Full(t *testing.T) {
	in := allTools()
	out := FilterToolsByScope(in, config.ToolScopeFull)
	if len(out) != len(in) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].Name != in[i].Name {
			t.Errorf("order changed at %d: %q vs %q", i, out[i].Name, in[i].Name)
		}
	}
}

func TestFilterToolsByScope_ReadOnly(t *testing.T) {
	out := FilterToolsByScope(allTools(), config.ToolScopeReadOnly)
	for _, t2 := range out {
		if t2.Name == "save_query" || t2.Name == "switch_profile" {
			t.Fatalf("read-only scope must omit %q", t2.Name)
		}
	}
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}
}
