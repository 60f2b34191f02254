package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rodneyha/bctelemetrybuddy/internal/bcstate"
	"github.com/spf13/cobra"
)

// buildAgentCmd creates the "agent" command group: every operation this
// CLI exposes is a subcommand of it.
func buildAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage and run telemetry-monitoring agents",
	}
	cmd.AddCommand(
		buildAgentStartCmd(),
		buildAgentRunCmd(),
		buildAgentRunAllCmd(),
		buildAgentListCmd(),
		buildAgentHistoryCmd(),
		buildAgentPauseCmd(),
		buildAgentResumeCmd(),
	)
	return cmd
}

func buildAgentStartCmd() *cobra.Command {
	var (
		configPath string
		name       string
	)
	cmd := &cobra.Command{
		Use:   "start <instruction>",
		Short: "Create a new agent with a natural-language instruction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(configPath, "")
			if err != nil {
				return err
			}
			if err := rt.Manager.CreateAgent(name, args[0], time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created agent %q\n", name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to the workspace config file")
	cmd.Flags().StringVarP(&name, "name", "n", "", "agent name (required)")
	cobra.CheckErr(cmd.MarkFlagRequired("name"))
	return cmd
}

func buildAgentRunCmd() *cobra.Command {
	var (
		configPath string
		profile    string
		once       bool
	)
	cmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Run one agent's ReAct loop to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The core never schedules its own runs; each invocation is
			// already a single bounded loop, so --once only documents
			// that an external scheduler owns recurrence.
			_ = once
			rt, err := buildRuntime(configPath, profile)
			if err != nil {
				return err
			}
			log, err := rt.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRunResult(cmd.OutOrStdout(), log)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to the workspace config file")
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "profile override")
	cmd.Flags().BoolVar(&once, "once", false, "accepted for CLI-surface compatibility; every run is already single-shot")
	return cmd
}

func buildAgentRunAllCmd() *cobra.Command {
	var (
		configPath string
		profile    string
		once       bool
	)
	cmd := &cobra.Command{
		Use:   "run-all",
		Short: "Run every active (non-paused) agent once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = once
			rt, err := buildRuntime(configPath, profile)
			if err != nil {
				return err
			}
			summaries, err := rt.Manager.ListAgents()
			if err != nil {
				return err
			}

			var anyFailed bool
			for _, s := range summaries {
				if s.Status == bcstate.StatusPaused {
					continue
				}
				log, err := rt.Run(cmd.Context(), s.Name)
				if err != nil {
					anyFailed = true
					fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: %s\n", s.Name, err)
					continue
				}
				printRunResult(cmd.OutOrStdout(), log)
			}
			if anyFailed {
				return fmt.Errorf("one or more agents failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to the workspace config file")
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "profile override")
	cmd.Flags().BoolVar(&once, "once", false, "accepted for CLI-surface compatibility; every run is already single-shot")
	return cmd
}

func buildAgentListCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every agent and its status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(configPath, "")
			if err != nil {
				return err
			}
			summaries, err := rt.Manager.ListAgents()
			if err != nil {
				return err
			}
			for _, s := range summaries {
				last := "never"
				if s.LastRun != nil {
					last = s.LastRun.Format(time.RFC3339)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-8s runs=%-4d issues=%-3d lastRun=%s\n",
					s.Name, s.Status, s.RunCount, s.ActiveIssueCount, last)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to the workspace config file")
	return cmd
}

func buildAgentHistoryCmd() *cobra.Command {
	var (
		configPath string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "history <name>",
		Short: "Show an agent's recent run history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(configPath, "")
			if err != nil {
				return err
			}
			basenames, err := rt.Manager.GetRunHistory(args[0], limit)
			if err != nil {
				return err
			}
			for _, base := range basenames {
				log, err := rt.Manager.LoadRunLog(args[0], base)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "run %-4d %s  tools=%d  %s\n",
					log.RunID, log.Timestamp.Format(time.RFC3339), log.LLM.ToolCallCount, log.Assessment)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to the workspace config file")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "limit the number of runs shown (0 = all)")
	return cmd
}

func buildAgentPauseCmd() *cobra.Command {
	return buildAgentStatusCmd("pause", "Pause an agent so runs fail until resumed", bcstate.StatusPaused)
}

func buildAgentResumeCmd() *cobra.Command {
	return buildAgentStatusCmd("resume", "Resume a paused agent", bcstate.StatusActive)
}

func buildAgentStatusCmd(use, short string, status bcstate.Status) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(configPath, "")
			if err != nil {
				return err
			}
			if err := rt.Manager.SetAgentStatus(args[0], status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %q: %s\n", use, args[0], status)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to the workspace config file")
	return cmd
}

func printRunResult(w io.Writer, log *bcstate.AgentRunLog) {
	fmt.Fprintf(w, "%s run %d: %s (tools=%d, %dms)\n",
		log.AgentName, log.RunID, log.Assessment, log.LLM.ToolCallCount, log.DurationMs)
}
