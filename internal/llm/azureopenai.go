package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// AzureOpenAIProvider implements Provider over an Azure OpenAI deployment.
type AzureOpenAIProvider struct {
	BaseProvider
	client     *openai.Client
	deployment string
}

// AzureOpenAIConfig configures an AzureOpenAIProvider.
type AzureOpenAIConfig struct {
	APIKey     string
	Endpoint   string
	Deployment string
	APIVersion string
	MaxRetries int
	RetryDelay time.Duration
}

// NewAzureOpenAIProvider builds a Provider bound to an Azure OpenAI
// deployment, using the deployment name as the model identifier the way
// Azure's API requires.
func NewAzureOpenAIProvider(cfg AzureOpenAIConfig) (*AzureOpenAIProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm: azure openai API key is required")
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("llm: azure openai endpoint is required")
	}
	if strings.TrimSpace(cfg.Deployment) == "" {
		return nil, errors.New("llm: azure openai deployment is required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-06-01"
	}

	clientConfig := openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
	clientConfig.APIVersion = cfg.APIVersion
	clientConfig.AzureModelMapperFunc = func(model string) string {
		return cfg.Deployment
	}

	return &AzureOpenAIProvider{
		BaseProvider: NewBaseProvider("azure-openai", cfg.MaxRetries, cfg.RetryDelay),
		client:       openai.NewClientWithConfig(clientConfig),
		deployment:   cfg.Deployment,
	}, nil
}

// ModelName returns the Azure deployment name this provider targets.
func (p *AzureOpenAIProvider) ModelName() string { return p.deployment }

// Chat sends the message list and tool definitions to the Azure deployment
// and returns a single uniform turn.
func (p *AzureOpenAIProvider) Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (*ChatResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:     p.deployment,
		Messages:  convertMessagesToOpenAI(messages),
		MaxTokens: defaultInt(opts.MaxTokens, 4096),
	}
	if len(opts.Tools) > 0 {
		tools, err := convertToolsToOpenAI(opts.Tools)
		if err != nil {
			return nil, WrapError("azure-openai", fmt.Errorf("convert tools: %w", err))
		}
		req.Tools = tools
	}

	var resp openai.ChatCompletionResponse
	retryErr := p.Retry(ctx, isOpenAIRetryable, func() error {
		result, callErr := p.client.CreateChatCompletion(ctx, req)
		if callErr != nil {
			return callErr
		}
		resp = result
		return nil
	})
	if retryErr != nil {
		var apiErr *openai.APIError
		if errors.As(retryErr, &apiErr) {
			return nil, &Error{Provider: "azure-openai", StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message, Cause: apiErr}
		}
		return nil, WrapError("azure-openai", retryErr)
	}
	if len(resp.Choices) == 0 {
		return nil, WrapError("azure-openai", errors.New("response contained no choices"))
	}

	return openaiResponseToChat(resp), nil
}

func convertMessagesToOpenAI(messages []ChatMessage) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		out := openai.ChatCompletionMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		result = append(result, out)
	}
	return result
}

func convertToolsToOpenAI(tools []ToolDef) ([]openai.Tool, error) {
	result := make([]openai.Tool, 0, len(tools))
	for _, tool := range tools {
		var params any
		if len(tool.JSONSchema) > 0 {
			if err := json.Unmarshal(tool.JSONSchema, &params); err != nil {
				return nil, fmt.Errorf("tool %s: invalid schema: %w", tool.Name, err)
			}
		}
		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  params,
			},
		})
	}
	return result, nil
}

func openaiResponseToChat(resp openai.ChatCompletionResponse) *ChatResponse {
	choice := resp.Choices[0]
	result := &ChatResponse{
		Content: choice.Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	result.AssistantMessage = ChatMessage{
		Role:      RoleAssistant,
		Content:   result.Content,
		ToolCalls: result.ToolCalls,
	}
	return result
}

func isOpenAIRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	return false
}
