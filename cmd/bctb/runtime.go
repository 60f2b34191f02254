package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rodneyha/bctelemetrybuddy/internal/actions"
	"github.com/rodneyha/bctelemetrybuddy/internal/bcstate"
	"github.com/rodneyha/bctelemetrybuddy/internal/config"
	"github.com/rodneyha/bctelemetrybuddy/internal/llm"
	"github.com/rodneyha/bctelemetrybuddy/internal/runtime"
	"github.com/rodneyha/bctelemetrybuddy/internal/tools"
)

const defaultConfigName = ".bctb-config.json"

// resolveWorkspaceRoot returns BCTB_WORKSPACE_PATH when set, else the
// current working directory.
func resolveWorkspaceRoot() string {
	if root := strings.TrimSpace(os.Getenv(config.EnvWorkspacePath)); root != "" {
		return root
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// defaultConfigPath is the config file path every subcommand's -c/--config
// flag defaults to: the workspace root's .bctb-config.json.
func defaultConfigPath() string {
	return filepath.Join(resolveWorkspaceRoot(), defaultConfigName)
}

// buildRuntime wires a Runtime from a config file and profile override:
// the tool handlers, LLM provider, action dispatcher, and state manager
// every agent subcommand shares.
func buildRuntime(configPath, profileOverride string) (*runtime.Runtime, error) {
	cfg, err := config.Load(configPath, profileOverride)
	if err != nil {
		return nil, err
	}

	workspaceRoot := resolveWorkspaceRoot()
	manager := bcstate.NewManager(workspaceRoot)
	handlers := tools.NewToolHandlers(workspaceRoot, cfg, nil)
	dispatcher := actions.NewDispatcher(cfg.Agents.Actions)

	provider, err := buildProvider(cfg.Agents.LLM)
	if err != nil {
		return nil, err
	}

	return runtime.New(manager, handlers, provider, dispatcher, cfg.Agents.Defaults), nil
}

// buildProvider resolves the configured LLM vendor binding, letting the
// reserved credential env vars override the config file's values.
func buildProvider(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "", "anthropic":
		model := firstNonEmpty(os.Getenv("ANTHROPIC_MODEL"), cfg.Model)
		return llm.NewAnthropicProvider(llm.AnthropicConfig{
			APIKey:       os.Getenv("ANTHROPIC_API_KEY"),
			DefaultModel: model,
			MaxRetries:   3,
			RetryDelay:   time.Second,
		})

	case "azure-openai":
		endpoint := firstNonEmpty(os.Getenv("AZURE_OPENAI_ENDPOINT"), cfg.Endpoint)
		deployment := firstNonEmpty(os.Getenv("AZURE_OPENAI_DEPLOYMENT"), cfg.Deployment)
		return llm.NewAzureOpenAIProvider(llm.AzureOpenAIConfig{
			APIKey:     os.Getenv("AZURE_OPENAI_KEY"),
			Endpoint:   endpoint,
			Deployment: deployment,
			APIVersion: cfg.APIVersion,
			MaxRetries: 3,
			RetryDelay: time.Second,
		})

	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
