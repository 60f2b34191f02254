package bcstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// NamePattern is the validation rule for agent names: lowercase
// alphanumeric, hyphen-separated, never starting or ending with a hyphen.
var NamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*[a-z0-9]$|^[a-z0-9]$`)

// ErrAgentExists is returned by CreateAgent when instruction.md already
// exists for the given name.
type ErrAgentExists struct{ Name string }

func (e *ErrAgentExists) Error() string {
	return fmt.Sprintf("agent %q already exists", e.Name)
}

// ErrAgentNotFound is returned when an agent directory has no
// instruction.md.
type ErrAgentNotFound struct{ Name string }

func (e *ErrAgentNotFound) Error() string {
	return fmt.Sprintf("agent %q not found", e.Name)
}

// ErrInvalidName is returned when a name fails NamePattern.
type ErrInvalidName struct{ Name string }

func (e *ErrInvalidName) Error() string {
	return fmt.Sprintf("invalid agent name %q: must match [a-z0-9][a-z0-9-]*[a-z0-9]", e.Name)
}

const (
	instructionFile = "instruction.md"
	stateFile       = "state.json"
	runsDir         = "runs"
)

// Manager is the Context Manager: the sole writer of agent state and run
// logs under a workspace directory.
type Manager struct {
	workspaceRoot string
}

// NewManager binds a Manager to the agents/ subtree of a workspace root.
func NewManager(workspaceRoot string) *Manager {
	return &Manager{workspaceRoot: workspaceRoot}
}

func (m *Manager) agentDir(name string) string {
	return filepath.Join(m.workspaceRoot, "agents", name)
}

func validateName(name string) error {
	if !NamePattern.MatchString(name) {
		return &ErrInvalidName{Name: name}
	}
	return nil
}

// CreateAgent writes instruction.md and an initial state.json for a new
// agent. Fails if instruction.md already exists.
func (m *Manager) CreateAgent(name, instruction string, now time.Time) error {
	if err := validateName(name); err != nil {
		return err
	}
	dir := m.agentDir(name)
	instrPath := filepath.Join(dir, instructionFile)

	if _, err := os.Stat(instrPath); err == nil {
		return &ErrAgentExists{Name: name}
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := os.MkdirAll(filepath.Join(dir, runsDir), 0700); err != nil {
		return fmt.Errorf("create agent directory: %w", err)
	}
	if err := os.WriteFile(instrPath, []byte(instruction), 0600); err != nil {
		return fmt.Errorf("write instruction: %w", err)
	}

	initial := InitialState(name, now)
	return m.saveState(name, initial)
}

// LoadInstruction returns the immutable instruction text for an agent.
func (m *Manager) LoadInstruction(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(m.agentDir(name), instructionFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", &ErrAgentNotFound{Name: name}
		}
		return "", err
	}
	return string(data), nil
}

// LoadState returns the current state for an agent. If state.json is
// missing (the directory was created outside this package), a fresh
// initial state is returned rather than an error.
func (m *Manager) LoadState(name string) (AgentState, error) {
	path := filepath.Join(m.agentDir(name), stateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return InitialState(name, time.Time{}), nil
		}
		return AgentState{}, err
	}
	var state AgentState
	if err := json.Unmarshal(data, &state); err != nil {
		return AgentState{}, fmt.Errorf("parse state.json for %q: %w", name, err)
	}
	return state, nil
}

// saveState rewrites state.json atomically (write-temp, then rename) so a
// crash mid-write never leaves a torn file in place.
func (m *Manager) saveState(name string, state AgentState) error {
	dir := m.agentDir(name)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	path := filepath.Join(dir, stateFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write temp state: %w", err)
	}
	return os.Rename(tmp, path)
}

// SaveState exposes the atomic state write to the runtime after a
// successful run.
func (m *Manager) SaveState(name string, state AgentState) error {
	return m.saveState(name, state)
}

// SetAgentStatus reads the current state, mutates only its status field,
// and writes it back. All other fields are preserved verbatim.
func (m *Manager) SetAgentStatus(name string, status Status) error {
	state, err := m.LoadState(name)
	if err != nil {
		return err
	}
	state.Status = status
	return m.saveState(name, state)
}

// ListAgents enumerates immediate subdirectories of agents/ that contain
// an instruction.md.
func (m *Manager) ListAgents() ([]AgentSummary, error) {
	root := filepath.Join(m.workspaceRoot, "agents")
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var summaries []AgentSummary
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, err := os.Stat(filepath.Join(root, name, instructionFile)); err != nil {
			continue
		}
		state, err := m.LoadState(name)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, AgentSummary{
			Name:             name,
			Status:           state.Status,
			RunCount:         state.RunCount,
			LastRun:          state.LastRun,
			ActiveIssueCount: len(state.ActiveIssues),
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries, nil
}

// GetRunHistory lists run-log filenames (without extension) for an agent,
// newest first, limited to limit entries when limit > 0.
func (m *Manager) GetRunHistory(name string, limit int) ([]string, error) {
	dir := filepath.Join(m.agentDir(name), runsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runIDs []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		runIDs = append(runIDs, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(runIDs)))

	if limit > 0 && len(runIDs) > limit {
		runIDs = runIDs[:limit]
	}
	return runIDs, nil
}

// LoadRunLog reads one run log by the basename GetRunHistory returned.
func (m *Manager) LoadRunLog(name, runBasename string) (AgentRunLog, error) {
	path := filepath.Join(m.agentDir(name), runsDir, runBasename+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return AgentRunLog{}, err
	}
	var log AgentRunLog
	if err := json.Unmarshal(data, &log); err != nil {
		return AgentRunLog{}, fmt.Errorf("parse run log %s: %w", runBasename, err)
	}
	return log, nil
}

// RunLogFilename derives the deterministic, lexicographically-sortable
// basename for a run-log pair: the UTC timestamp with ':' replaced by
// '-' and fractional seconds collapsed to a trailing 'Z', followed by
// the zero-padded run id.
func RunLogFilename(timestamp time.Time, runID int) string {
	ts := timestamp.UTC().Format("2006-01-02T15-04-05Z")
	return fmt.Sprintf("%s-run%04d", ts, runID)
}

// SaveRunLog writes both the JSON audit record and its Markdown report
// for a completed run. Run-log writes are additive: each run creates new
// files only.
func (m *Manager) SaveRunLog(name string, log AgentRunLog) error {
	dir := filepath.Join(m.agentDir(name), runsDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	base := RunLogFilename(log.Timestamp, log.RunID)

	jsonData, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run log: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, base+".json"), jsonData, 0600); err != nil {
		return fmt.Errorf("write run log json: %w", err)
	}

	md := RenderMarkdownReport(log)
	if err := os.WriteFile(filepath.Join(dir, base+".md"), []byte(md), 0600); err != nil {
		return fmt.Errorf("write run log markdown: %w", err)
	}
	return nil
}
