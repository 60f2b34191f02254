package tools

import (
	"encoding/json"

	"github.com/rodneyha/bctelemetrybuddy/internal/llm"
)

// Annotations are MCP's tool-discovery hints: whether a tool only reads,
// whether it can destroy data, whether repeating a call is safe, and
// whether it reaches outside the local workspace.
type Annotations struct {
	ReadOnlyHint    bool `json:"readOnlyHint"`
	DestructiveHint bool `json:"destructiveHint"`
	IdempotentHint  bool `json:"idempotentHint"`
	OpenWorldHint   bool `json:"openWorldHint"`
}

// Definition is one discoverable tool: its LLM-facing shape plus the
// MCP annotations describing its effect.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	JSONSchema  json.RawMessage `json:"jsonSchema"`
	Annotations Annotations     `json:"annotations"`
}

func schema(properties, required string) json.RawMessage {
	if required == "" {
		return json.RawMessage(`{"type":"object","properties":` + properties + `}`)
	}
	return json.RawMessage(`{"type":"object","properties":` + properties + `,"required":[` + required + `]}`)
}

// Definitions lists every tool this surface dispatches, in the stable
// order used for scope filtering and discovery responses.
func Definitions() []Definition {
	readOnly := Annotations{ReadOnlyHint: true, IdempotentHint: true, OpenWorldHint: true}
	return []Definition{
		{
			Name:        "get_event_catalog",
			Description: "Discover distinct telemetry event ids over a recent window, grouped with counts and a heuristic status bucket.",
			JSONSchema:  schema(`{"days":{"type":"integer"},"status":{"type":"string","enum":["all","success","error","too slow","unknown"]},"includeCommonFields":{"type":"boolean"}}`, ""),
			Annotations: readOnly,
		},
		{
			Name:        "get_event_field_samples",
			Description: "Sample recent events for one event id and infer field types, including timespan detection.",
			JSONSchema:  schema(`{"eventId":{"type":"string"},"sampleSize":{"type":"integer"}}`, `"eventId"`),
			Annotations: readOnly,
		},
		{
			Name:        "get_event_schema",
			Description: "Return field names and example values for one event id.",
			JSONSchema:  schema(`{"eventId":{"type":"string"}}`, `"eventId"`),
			Annotations: readOnly,
		},
		{
			Name:        "get_tenant_mapping",
			Description: "Map companyName to aadTenantId with occurrence counts, optionally filtered by a company substring.",
			JSONSchema:  schema(`{"filter":{"type":"string"}}`, ""),
			Annotations: readOnly,
		},
		{
			Name:        "query_telemetry",
			Description: "Execute a KQL query against the active profile's telemetry cluster, using the result cache when available.",
			JSONSchema:  schema(`{"kql":{"type":"string"},"timespan":{"type":"string"}}`, `"kql"`),
			Annotations: Annotations{ReadOnlyHint: true, OpenWorldHint: true},
		},
		{
			Name:        "get_saved_queries",
			Description: "List every saved query in the active profile's query store.",
			JSONSchema:  schema(`{}`, ""),
			Annotations: readOnly,
		},
		{
			Name:        "search_queries",
			Description: "Search saved queries by name, description, or KQL text.",
			JSONSchema:  schema(`{"query":{"type":"string"}}`, `"query"`),
			Annotations: readOnly,
		},
		{
			Name:        "save_query",
			Description: "Save a KQL query for reuse.",
			JSONSchema:  schema(`{"name":{"type":"string"},"description":{"type":"string"},"category":{"type":"string"},"kql":{"type":"string"}}`, `"name","kql"`),
			Annotations: Annotations{IdempotentHint: true},
		},
		{
			Name:        "get_categories",
			Description: "List every category in use across saved queries.",
			JSONSchema:  schema(`{}`, ""),
			Annotations: readOnly,
		},
		{
			Name:        "get_recommendations",
			Description: "Apply static heuristics to a KQL query and its result size, flagging common mistakes.",
			JSONSchema:  schema(`{"kql":{"type":"string"},"rowCount":{"type":"integer"}}`, `"kql"`),
			Annotations: readOnly,
		},
		{
			Name:        "get_external_queries",
			Description: "Fetch KQL samples from the active profile's configured external reference sources.",
			JSONSchema:  schema(`{}`, ""),
			Annotations: Annotations{ReadOnlyHint: true, OpenWorldHint: true},
		},
		{
			Name:        "get_cache_stats",
			Description: "Report the query-result cache's hit/miss/entry counts.",
			JSONSchema:  schema(`{}`, ""),
			Annotations: readOnly,
		},
		{
			Name:        "clear_cache",
			Description: "Remove every entry from the query-result cache.",
			JSONSchema:  schema(`{}`, ""),
			Annotations: Annotations{DestructiveHint: true, IdempotentHint: true},
		},
		{
			Name:        "cleanup_cache",
			Description: "Remove only expired entries from the query-result cache.",
			JSONSchema:  schema(`{}`, ""),
			Annotations: Annotations{DestructiveHint: true, IdempotentHint: true},
		},
		{
			Name:        "get_auth_status",
			Description: "Report whether the active profile has a usable telemetry client, or list the configuration gaps preventing one.",
			JSONSchema:  schema(`{}`, ""),
			Annotations: readOnly,
		},
		{
			Name:        "list_profiles",
			Description: "List the active profile and every visible profile available to switch to.",
			JSONSchema:  schema(`{}`, ""),
			Annotations: readOnly,
		},
		{
			Name:        "switch_profile",
			Description: "Switch the active profile, replacing its owned services (auth, query client, cache, saved queries, external references).",
			JSONSchema:  schema(`{"name":{"type":"string"}}`, `"name"`),
			Annotations: Annotations{IdempotentHint: true},
		},
	}
}

// ToLLMToolDefs converts Definitions() into the llm package's
// vendor-neutral shape.
func ToLLMToolDefs(defs []Definition) []llm.ToolDef {
	out := make([]llm.ToolDef, len(defs))
	for i, d := range defs {
		out[i] = llm.ToolDef{Name: d.Name, Description: d.Description, JSONSchema: d.JSONSchema}
	}
	return out
}
