// Package llm defines the uniform chat contract spoken by every LLM vendor
// binding, and the per-vendor translation helpers that keep the agent
// runtime oblivious to which dialect it is actually talking to.
package llm

import (
	"context"
	"encoding/json"
)

// Role identifies the speaker of a ChatMessage.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ChatMessage is the vendor-neutral message shape. Anthropic-style grouped
// tool-result content blocks are an internal translation concern of each
// provider; the core never sees them.
type ChatMessage struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a single tool invocation requested by the assistant.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDef describes a callable tool to the provider.
type ToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	JSONSchema  json.RawMessage `json:"json_schema"`
}

// Usage reports token accounting for a single chat call. Zero values mean
// the vendor did not report usage for this call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// ChatOptions configures a single Chat call.
type ChatOptions struct {
	Tools     []ToolDef
	MaxTokens int
}

// ChatResponse is the uniform result of a Chat call. Exactly one of
// Content or ToolCalls is meaningful for a given turn: a turn that
// requests tool calls carries them in ToolCalls and leaves Content empty
// (vendors that emit trailing prose alongside tool calls still populate
// both; callers should check ToolCalls first).
type ChatResponse struct {
	Content          string
	ToolCalls        []ToolCall
	AssistantMessage ChatMessage
	Usage            Usage
}

// Provider is the capability set every LLM vendor binding implements.
type Provider interface {
	// Chat sends the running message list and available tools to the
	// vendor and returns a single uniform turn. All parallel tool calls
	// emitted by the vendor in one assistant turn are returned together.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (*ChatResponse, error)

	// ModelName returns the model identifier this provider is configured
	// to use.
	ModelName() string
}
