package runtime

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rodneyha/bctelemetrybuddy/internal/actions"
	"github.com/rodneyha/bctelemetrybuddy/internal/bcstate"
	"github.com/rodneyha/bctelemetrybuddy/internal/config"
	"github.com/rodneyha/bctelemetrybuddy/internal/llm"
	"github.com/rodneyha/bctelemetrybuddy/internal/tools"
)

// scriptedProvider returns one scripted ChatResponse per call, in order.
type scriptedProvider struct {
	turns []llm.ChatResponse
	calls int
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []llm.ChatMessage, opts llm.ChatOptions) (*llm.ChatResponse, error) {
	if p.calls >= len(p.turns) {
		return &llm.ChatResponse{Content: `{"summary":"s","findings":"f","assessment":"a"}`}, nil
	}
	resp := p.turns[p.calls]
	p.calls++
	return &resp, nil
}

func (p *scriptedProvider) ModelName() string { return "test-model" }

func newTestRuntime(t *testing.T, provider llm.Provider, defaults config.AgentDefaults) (*Runtime, string) {
	t.Helper()
	root := t.TempDir()
	manager := bcstate.NewManager(root)
	if err := manager.CreateAgent("watcher", "watch for errors", time.Now()); err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}

	cfg := &config.ResolvedConfig{ActiveProfileName: "default"}
	handlers := tools.NewToolHandlers(root, cfg, nil)
	dispatcher := actions.NewDispatcher(nil)

	rt := New(manager, handlers, provider, dispatcher, defaults)
	return rt, "watcher"
}

func TestRuntime_Run_NoToolCalls(t *testing.T) {
	provider := &scriptedProvider{turns: []llm.ChatResponse{
		{Content: "```json\n{\"summary\":\"all quiet\",\"findings\":\"nothing notable\",\"assessment\":\"no action needed\"}\n```"},
	}}
	rt, name := newTestRuntime(t, provider, config.AgentDefaults{})

	log, err := rt.Run(context.Background(), name)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if log.RunID != 1 {
		t.Errorf("RunID = %d, want 1", log.RunID)
	}
	if log.Findings != "nothing notable" {
		t.Errorf("Findings = %q", log.Findings)
	}
	if len(log.ToolCalls) != 0 {
		t.Errorf("ToolCalls = %v, want none", log.ToolCalls)
	}

	state, err := rt.Manager.LoadState(name)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if state.RunCount != 1 {
		t.Errorf("state.RunCount = %d, want 1", state.RunCount)
	}
	if state.Summary != "all quiet" {
		t.Errorf("state.Summary = %q", state.Summary)
	}
}

func TestRuntime_Run_WithToolCall(t *testing.T) {
	toolArgs, _ := json.Marshal(map[string]string{})
	provider := &scriptedProvider{turns: []llm.ChatResponse{
		{
			ToolCalls: []llm.ToolCall{{ID: "call-1", Name: "get_auth_status", Arguments: toolArgs}},
			AssistantMessage: llm.ChatMessage{
				Role:      llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{{ID: "call-1", Name: "get_auth_status", Arguments: toolArgs}},
			},
		},
		{Content: `{"summary":"checked auth","findings":"auth not configured","assessment":"none"}`},
	}}
	rt, name := newTestRuntime(t, provider, config.AgentDefaults{})

	log, err := rt.Run(context.Background(), name)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(log.ToolCalls) != 1 {
		t.Fatalf("ToolCalls = %v, want 1 entry", log.ToolCalls)
	}
	if log.ToolCalls[0].Sequence != 1 {
		t.Errorf("Sequence = %d, want 1", log.ToolCalls[0].Sequence)
	}
	if log.ToolCalls[0].Tool != "get_auth_status" {
		t.Errorf("Tool = %q", log.ToolCalls[0].Tool)
	}
	if log.LLM.ToolCallCount != 1 {
		t.Errorf("LLM.ToolCallCount = %d, want 1", log.LLM.ToolCallCount)
	}
}

func TestRuntime_Run_PausedAgentFails(t *testing.T) {
	provider := &scriptedProvider{}
	rt, name := newTestRuntime(t, provider, config.AgentDefaults{})
	if err := rt.Manager.SetAgentStatus(name, bcstate.StatusPaused); err != nil {
		t.Fatalf("SetAgentStatus: %v", err)
	}

	if _, err := rt.Run(context.Background(), name); err == nil {
		t.Fatal("expected an error for a paused agent")
	} else if !strings.Contains(err.Error(), "is paused") {
		t.Errorf("error = %q, want mention of paused", err.Error())
	}
}

func TestRuntime_Run_ExceedsMaxToolCallsDoesNotPersist(t *testing.T) {
	toolArgs, _ := json.Marshal(map[string]string{})
	toolCall := llm.ToolCall{ID: "call-x", Name: "get_auth_status", Arguments: toolArgs}
	turn := llm.ChatResponse{
		ToolCalls:        []llm.ToolCall{toolCall},
		AssistantMessage: llm.ChatMessage{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{toolCall}},
	}
	// Every scripted turn keeps requesting a tool call; with maxToolCalls=2
	// the loop should never reach a final turn.
	provider := &scriptedProvider{turns: []llm.ChatResponse{turn, turn, turn, turn}}
	rt, name := newTestRuntime(t, provider, config.AgentDefaults{MaxToolCalls: 2})

	if _, err := rt.Run(context.Background(), name); err == nil {
		t.Fatal("expected an error for exceeding max tool calls")
	} else if !strings.Contains(err.Error(), "exceeded max tool calls") {
		t.Errorf("error = %q", err.Error())
	}

	state, err := rt.Manager.LoadState(name)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if state.RunCount != 0 {
		t.Errorf("state.RunCount = %d, want 0 (no partial persistence)", state.RunCount)
	}
}

func TestRuntime_Run_InvalidToolArgsSubstitutesEmptyObject(t *testing.T) {
	badArgs := json.RawMessage(`{not valid json`)
	toolCall := llm.ToolCall{ID: "call-1", Name: "get_auth_status", Arguments: badArgs}
	provider := &scriptedProvider{turns: []llm.ChatResponse{
		{
			ToolCalls:        []llm.ToolCall{toolCall},
			AssistantMessage: llm.ChatMessage{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{toolCall}},
		},
		{Content: `{"summary":"s","findings":"f","assessment":"a"}`},
	}}
	rt, name := newTestRuntime(t, provider, config.AgentDefaults{})

	log, err := rt.Run(context.Background(), name)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if log.ToolCalls[0].Args != "{}" {
		t.Errorf("Args = %q, want substituted {}", log.ToolCalls[0].Args)
	}
}
