package prompt

import (
	"github.com/rodneyha/bctelemetrybuddy/internal/config"
	"github.com/rodneyha/bctelemetrybuddy/internal/llm"
)

// writeTools are excluded from the read-only tool scope.
var writeTools = map[string]bool{
	"save_query":     true,
	"switch_profile": true,
}

// FilterToolsByScope returns the subset of tools visible under scope.
// "read-only" omits exactly the write set; "full" (or any other value)
// returns every tool unchanged, in order.
func FilterToolsByScope(tools []llm.ToolDef, scope string) []llm.ToolDef {
	if scope != config.ToolScopeReadOnly {
		return tools
	}
	filtered := make([]llm.ToolDef, 0, len(tools))
	for _, t := range tools {
		if writeTools[t.Name] {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}
