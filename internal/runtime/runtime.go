// Package runtime implements the Agent Runtime: a bounded ReAct loop
// that interleaves LLM turns with tool calls until the agent produces
// its final structured output or exhausts its tool-call budget.
package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rodneyha/bctelemetrybuddy/internal/actions"
	"github.com/rodneyha/bctelemetrybuddy/internal/bcerrors"
	"github.com/rodneyha/bctelemetrybuddy/internal/bcstate"
	"github.com/rodneyha/bctelemetrybuddy/internal/config"
	"github.com/rodneyha/bctelemetrybuddy/internal/llm"
	"github.com/rodneyha/bctelemetrybuddy/internal/prompt"
	"github.com/rodneyha/bctelemetrybuddy/internal/tools"
)

// resultSummaryLimit truncates a tool's result in the run log. The
// Markdown report shortens that summary again, to its own smaller limit
// (maxResultSummaryLen in bcstate).
const resultSummaryLimit = 500

// Runtime owns one run(name) invocation's collaborators: state, tools,
// the LLM provider, and the action dispatcher.
type Runtime struct {
	Manager    *bcstate.Manager
	Tools      *tools.ToolHandlers
	Provider   llm.Provider
	Dispatcher *actions.Dispatcher
	Defaults   config.AgentDefaults
	now        func() time.Time
}

// New builds a Runtime from its collaborators, resolving agent defaults
// once so every run shares the same bounds.
func New(manager *bcstate.Manager, handlers *tools.ToolHandlers, provider llm.Provider, dispatcher *actions.Dispatcher, defaults config.AgentDefaults) *Runtime {
	return &Runtime{
		Manager:    manager,
		Tools:      handlers,
		Provider:   provider,
		Dispatcher: dispatcher,
		Defaults:   defaults.Resolved(),
		now:        time.Now,
	}
}

// Run executes one bounded ReAct loop for the named agent and persists
// its state and run log on success. A cancelled context or an exceeded
// tool-call budget leaves state and the run log untouched.
func (rt *Runtime) Run(ctx context.Context, name string) (*bcstate.AgentRunLog, error) {
	startedAt := rt.now()

	instruction, err := rt.Manager.LoadInstruction(name)
	if err != nil {
		return nil, err
	}
	state, err := rt.Manager.LoadState(name)
	if err != nil {
		return nil, err
	}
	if state.Status == bcstate.StatusPaused {
		return nil, bcerrors.New(bcerrors.KindState, fmt.Sprintf("Agent '%s' is paused", name))
	}

	toolDefs := tools.ToLLMToolDefs(tools.Definitions())
	toolDefs = prompt.FilterToolsByScope(toolDefs, rt.Defaults.ToolScope)

	messages := []llm.ChatMessage{
		{Role: llm.RoleSystem, Content: prompt.SystemPrompt},
		{Role: llm.RoleUser, Content: prompt.BuildAgentPrompt(instruction, state, startedAt)},
	}

	var (
		toolCallLog   []bcstate.ToolCallLogEntry
		toolCallNames []string
		promptTokens  int
		completionT   int
		sequence      int
	)

	for len(toolCallLog) < rt.Defaults.MaxToolCalls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := rt.Provider.Chat(ctx, messages, llm.ChatOptions{Tools: toolDefs, MaxTokens: rt.Defaults.MaxTokens})
		if err != nil {
			return nil, bcerrors.Wrap(bcerrors.KindLLM, "LLM chat call failed", err)
		}
		promptTokens += resp.Usage.PromptTokens
		completionT += resp.Usage.CompletionTokens

		if len(resp.ToolCalls) == 0 {
			return rt.finish(ctx, name, instruction, state, startedAt, resp, promptTokens, completionT, toolCallLog, toolCallNames)
		}

		messages = append(messages, resp.AssistantMessage)

		for _, call := range resp.ToolCalls {
			if len(toolCallLog) >= rt.Defaults.MaxToolCalls {
				break
			}
			sequence++
			entry, resultContent := rt.executeToolCall(ctx, sequence, call)
			toolCallLog = append(toolCallLog, entry)
			toolCallNames = append(toolCallNames, entry.Tool)
			messages = append(messages, llm.ChatMessage{
				Role:       llm.RoleTool,
				Content:    resultContent,
				ToolCallID: call.ID,
			})
		}
	}

	return nil, bcerrors.New(bcerrors.KindRuntimeSafety, fmt.Sprintf("Agent '%s' exceeded max tool calls (%d)", name, rt.Defaults.MaxToolCalls))
}

// executeToolCall decodes one tool call's arguments (substituting {} on
// decode failure, the runtime's own leniency rule distinct from the tool
// surface's stricter argument validation), executes it, and renders both
// the run-log entry and the tool-result message content.
func (rt *Runtime) executeToolCall(ctx context.Context, sequence int, call llm.ToolCall) (bcstate.ToolCallLogEntry, string) {
	started := rt.now()

	args := call.Arguments
	if !json.Valid(args) {
		args = json.RawMessage(`{}`)
	}

	result, err := rt.Tools.Execute(ctx, call.Name, args)
	elapsed := rt.now().Sub(started).Milliseconds()

	var resultContent string
	var summary string
	if err != nil {
		errBody, _ := json.Marshal(map[string]string{"error": err.Error()})
		resultContent = string(errBody)
		summary = err.Error()
	} else {
		body, marshalErr := json.Marshal(result)
		if marshalErr != nil {
			resultContent = fmt.Sprintf(`{"error":%q}`, marshalErr.Error())
			summary = marshalErr.Error()
		} else {
			resultContent = string(body)
			summary = resultContent
		}
	}

	entry := bcstate.ToolCallLogEntry{
		Sequence:      sequence,
		Tool:          call.Name,
		Args:          string(args),
		ResultSummary: truncate(summary, resultSummaryLimit),
		DurationMs:    elapsed,
	}
	return entry, resultContent
}

// finish parses the final turn's content, dispatches requested actions,
// advances state, assembles and persists the run log.
func (rt *Runtime) finish(
	ctx context.Context,
	name, instruction string,
	stateAtStart bcstate.AgentState,
	startedAt time.Time,
	resp *llm.ChatResponse,
	promptTokens, completionTokens int,
	toolCallLog []bcstate.ToolCallLogEntry,
	toolCallNames []string,
) (*bcstate.AgentRunLog, error) {
	output, err := prompt.ParseAgentOutput(resp.Content)
	if err != nil {
		return nil, err
	}

	executedActions := rt.Dispatcher.Dispatch(output.Actions, name)

	durationMs := rt.now().Sub(startedAt).Milliseconds()

	nextState := bcstate.UpdateState(
		stateAtStart,
		bcstate.RunOutput{
			Summary:        output.Summary,
			Findings:       output.Findings,
			Assessment:     output.Assessment,
			ActiveIssues:   output.ActiveIssues,
			ResolvedIssues: output.ResolvedIssues,
			StateChanges:   output.StateChanges,
		},
		executedActions,
		durationMs,
		toolCallNames,
		rt.now(),
		time.Duration(rt.Defaults.ResolvedIssueTTLDays)*24*time.Hour,
	)
	nextState.RecentRuns = bcstate.SlidingWindow(nextState.RecentRuns, rt.Defaults.ContextWindowRuns)

	stampedActions := make([]bcstate.AgentAction, len(executedActions))
	for i, a := range executedActions {
		a.Run = nextState.RunCount
		stampedActions[i] = a
	}

	runLog := bcstate.AgentRunLog{
		RunID:       nextState.RunCount,
		AgentName:   name,
		Timestamp:   startedAt,
		DurationMs:  durationMs,
		Instruction: instruction,
		StateAtStart: bcstate.StateAtStart{
			Summary:          stateAtStart.Summary,
			ActiveIssueCount: len(stateAtStart.ActiveIssues),
			RunCount:         stateAtStart.RunCount,
		},
		LLM: bcstate.LLMUsageSummary{
			Model:            rt.Provider.ModelName(),
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
			ToolCallCount:    len(toolCallLog),
		},
		ToolCalls:    toolCallLog,
		Assessment:   output.Assessment,
		Findings:     output.Findings,
		Actions:      stampedActions,
		StateChanges: output.StateChanges,
	}

	if err := rt.Manager.SaveState(name, nextState); err != nil {
		return nil, err
	}
	if err := rt.Manager.SaveRunLog(name, runLog); err != nil {
		return nil, err
	}
	return &runLog, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
