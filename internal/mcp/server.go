package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/rodneyha/bctelemetrybuddy/internal/tools"
)

// maxCallParamsSize bounds one tool-call request body, mirroring the
// resource-exhaustion guard other dispatch surfaces in this codebase
// apply to inbound tool parameters.
const maxCallParamsSize = 10 << 20

// ToolServer mounts tools.ToolHandlers.Execute under the tool-call
// protocol surface: discovery lists every tool's name, description,
// JSON schema, and annotations; calls validate params against that
// schema before dispatch, so every request routes through the same
// ToolHandlers.Execute the CLI driver uses — preserving telemetry and
// dispatch parity across both front ends.
type ToolServer struct {
	handlers *tools.ToolHandlers
	defs     []tools.Definition

	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemaErr   error
}

// NewToolServer builds a ToolServer bound to the given handler surface,
// discovering tools from tools.Definitions() once at construction.
func NewToolServer(handlers *tools.ToolHandlers) *ToolServer {
	return &ToolServer{
		handlers: handlers,
		defs:     tools.Definitions(),
	}
}

func (s *ToolServer) compileSchemas() error {
	s.schemasOnce.Do(func() {
		s.schemas = make(map[string]*jsonschema.Schema, len(s.defs))
		for _, d := range s.defs {
			compiled, err := jsonschema.CompileString(d.Name+".schema.json", string(d.JSONSchema))
			if err != nil {
				s.schemaErr = fmt.Errorf("tool %q: compile schema: %w", d.Name, err)
				return
			}
			s.schemas[d.Name] = compiled
		}
	})
	return s.schemaErr
}

// CallRequest is the inbound shape of one tool invocation: a tool name
// and its parameters.
type CallRequest struct {
	Name   string          `json:"name"`
	Params json.RawMessage `json:"params"`
}

// CallResponse wraps either a successful tool result or an error
// envelope, never both.
type CallResponse struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Call validates params against the named tool's schema, then dispatches
// through the shared ToolHandlers.Execute. An unknown tool or a schema
// violation is reported as an error envelope rather than an HTTP fault,
// matching the protocol's "raw return value or error envelope" contract.
func (s *ToolServer) Call(ctx context.Context, req CallRequest) CallResponse {
	if len(req.Params) > maxCallParamsSize {
		return CallResponse{Error: fmt.Sprintf("tool parameters exceed maximum size of %d bytes", maxCallParamsSize)}
	}
	if err := s.compileSchemas(); err != nil {
		return CallResponse{Error: err.Error()}
	}

	schema, ok := s.schemas[req.Name]
	if !ok {
		return CallResponse{Error: fmt.Sprintf("tool not found: %s", req.Name)}
	}

	params := req.Params
	if len(params) == 0 {
		params = json.RawMessage(`{}`)
	}
	var decoded any
	if err := json.Unmarshal(params, &decoded); err != nil {
		return CallResponse{Error: fmt.Sprintf("invalid tool parameters: %v", err)}
	}
	if err := schema.Validate(decoded); err != nil {
		return CallResponse{Error: fmt.Sprintf("tool parameters invalid: %v", err)}
	}

	result, err := s.handlers.Execute(ctx, req.Name, params)
	if err != nil {
		return CallResponse{Error: err.Error()}
	}
	return CallResponse{Result: result}
}

// Definitions exposes the discoverable tool list verbatim.
func (s *ToolServer) Definitions() []tools.Definition {
	return s.defs
}

// ServeHTTP mounts discovery at GET / and tool calls at POST /, matching
// the JSON request/response shape the tool-call protocol surface
// specifies: {name, params} in, the raw result or an error envelope out.
func (s *ToolServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.defs)

	case http.MethodPost:
		var req CallRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(CallResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
			return
		}
		resp := s.Call(r.Context(), req)
		w.Header().Set("Content-Type", "application/json")
		if resp.Error != "" {
			json.NewEncoder(w).Encode(resp)
			return
		}
		json.NewEncoder(w).Encode(resp.Result)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
