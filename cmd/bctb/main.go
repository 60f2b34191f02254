// Command bctb runs and manages Business Central Telemetry Buddy agents:
// persistent, LLM-driven monitors over Business Central application
// telemetry stored in a cloud log-analytics cluster.
//
// # Basic usage
//
//	bctb agent start "watch for recurring posting errors" --name posting-errors
//	bctb agent run posting-errors
//	bctb agent run-all
//	bctb agent list
//	bctb agent history posting-errors -l 5
//	bctb agent pause posting-errors
//	bctb agent resume posting-errors
//
// # Environment variables
//
//   - BCTB_WORKSPACE_PATH: workspace root (config file and agents/
//     directory); defaults to the current directory.
//   - BCTB_PROFILE: active profile override, takes priority over the
//     config file's defaultProfile.
//   - BCTB_CLIENT_SECRET: the telemetry cluster's AAD client secret.
//   - BCTB_ACCESS_TOKEN: a pre-acquired access token, bypassing AAD.
//   - ANTHROPIC_API_KEY, ANTHROPIC_MODEL: Anthropic provider credentials.
//   - AZURE_OPENAI_KEY, AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_DEPLOYMENT:
//     Azure OpenAI provider credentials.
//   - SMTP_PASSWORD, GRAPH_CLIENT_SECRET, DEVOPS_PAT: action-effector
//     secrets, read at dispatch time.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// version is populated by ldflags during release builds.
var version = "dev"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "✗ %s\n", err)
		os.Exit(1)
	}
}

// buildRootCmd assembles the command tree. Kept separate from main so
// tests can exercise it without touching process exit codes.
func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "bctb",
		Short:        "Business Central Telemetry Buddy",
		Long:         "bctb runs autonomous monitoring agents over Business Central telemetry, each a persistent instruction plus state that an LLM consults through a constrained tool interface on every invocation.",
		Version:      version,
		SilenceUsage: true,
	}
	root.AddCommand(buildAgentCmd())
	return root
}
