package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements Provider over Anthropic's Messages API.
//
// Anthropic groups tool results into content blocks of a single user
// message rather than one message per result; that grouping is entirely
// internal to this file. The rest of the runtime only ever sees the flat
// ChatMessage shape.
type AnthropicProvider struct {
	BaseProvider
	client       anthropic.Client
	defaultModel string
}

// AnthropicConfig configures an AnthropicProvider.
type AnthropicConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	MaxRetries   int
	RetryDelay   time.Duration
}

// NewAnthropicProvider builds a Provider bound to Anthropic's API.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm: anthropic API key is required")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "claude-sonnet-4-20250514"
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		BaseProvider: NewBaseProvider("anthropic", cfg.MaxRetries, cfg.RetryDelay),
		client:       anthropic.NewClient(opts...),
		defaultModel: cfg.DefaultModel,
	}, nil
}

// ModelName returns the configured default model.
func (p *AnthropicProvider) ModelName() string { return p.defaultModel }

// Chat sends the message list and tool definitions to Claude and returns a
// single uniform turn.
func (p *AnthropicProvider) Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (*ChatResponse, error) {
	system, rest := splitLeadingSystem(messages)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.defaultModel),
		MaxTokens: int64(defaultInt(opts.MaxTokens, 4096)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	converted, err := convertMessagesToAnthropic(rest)
	if err != nil {
		return nil, WrapError("anthropic", fmt.Errorf("convert messages: %w", err))
	}
	params.Messages = converted

	if len(opts.Tools) > 0 {
		tools, err := convertToolsToAnthropic(opts.Tools)
		if err != nil {
			return nil, WrapError("anthropic", fmt.Errorf("convert tools: %w", err))
		}
		params.Tools = tools
	}

	var msg *anthropic.Message
	retryErr := p.Retry(ctx, isAnthropicRetryable, func() error {
		result, callErr := p.client.Messages.New(ctx, params)
		if callErr != nil {
			return callErr
		}
		msg = result
		return nil
	})
	if retryErr != nil {
		var apiErr *anthropic.Error
		if errors.As(retryErr, &apiErr) {
			return nil, &Error{Provider: "anthropic", StatusCode: apiErr.StatusCode, Body: apiErr.Error(), Cause: apiErr}
		}
		return nil, WrapError("anthropic", retryErr)
	}

	return anthropicResponseToChat(msg), nil
}

func splitLeadingSystem(messages []ChatMessage) (string, []ChatMessage) {
	var system []string
	i := 0
	for i < len(messages) && messages[i].Role == RoleSystem {
		system = append(system, messages[i].Content)
		i++
	}
	return strings.Join(system, "\n\n"), messages[i:]
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// convertMessagesToAnthropic maps the flat ChatMessage list to Anthropic's
// message-param shape, merging any run of consecutive tool-role messages
// into a single user message carrying multiple tool-result blocks (the
// vendor requires this grouping).
func convertMessagesToAnthropic(messages []ChatMessage) ([]anthropic.MessageParam, error) {
	var result []anthropic.MessageParam

	i := 0
	for i < len(messages) {
		msg := messages[i]
		if msg.Role == RoleTool {
			var blocks []anthropic.ContentBlockParamUnion
			for i < len(messages) && messages[i].Role == RoleTool {
				blocks = append(blocks, anthropic.NewToolResultBlock(messages[i].ToolCallID, messages[i].Content, false))
				i++
			}
			result = append(result, anthropic.NewUserMessage(blocks...))
			continue
		}

		var content []anthropic.ContentBlockParamUnion
		if msg.Content != "" {
			content = append(content, anthropic.NewTextBlock(msg.Content))
		}
		for _, tc := range msg.ToolCalls {
			var input map[string]any
			if len(tc.Arguments) > 0 {
				if err := json.Unmarshal(tc.Arguments, &input); err != nil {
					return nil, fmt.Errorf("tool call %s: invalid arguments: %w", tc.Name, err)
				}
			}
			content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
		}

		if msg.Role == RoleAssistant {
			result = append(result, anthropic.NewAssistantMessage(content...))
		} else {
			result = append(result, anthropic.NewUserMessage(content...))
		}
		i++
	}
	return result, nil
}

func convertToolsToAnthropic(tools []ToolDef) ([]anthropic.ToolUnionParam, error) {
	result := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(tool.JSONSchema, &schema); err != nil {
			return nil, fmt.Errorf("tool %s: invalid schema: %w", tool.Name, err)
		}
		param := anthropic.ToolUnionParamOfTool(schema, tool.Name)
		if param.OfTool == nil {
			return nil, fmt.Errorf("tool %s: schema did not produce a tool definition", tool.Name)
		}
		param.OfTool.Description = anthropic.String(tool.Description)
		result = append(result, param)
	}
	return result, nil
}

func anthropicResponseToChat(msg *anthropic.Message) *ChatResponse {
	resp := &ChatResponse{
		Usage: Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
		},
	}

	var textParts []string
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			textParts = append(textParts, variant.Text)
		case anthropic.ToolUseBlock:
			resp.ToolCalls = append(resp.ToolCalls, ToolCall{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: json.RawMessage(variant.Input),
			})
		}
	}

	resp.Content = strings.Join(textParts, "")
	resp.AssistantMessage = ChatMessage{
		Role:      RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	}
	return resp
}

func isAnthropicRetryable(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}
