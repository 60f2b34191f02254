package bcstate

import (
	"path/filepath"
	"testing"
	"time"
)

func TestManager_CreateAgent(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := m.CreateAgent("perf", "watch for regressions", now); err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}

	instr, err := m.LoadInstruction("perf")
	if err != nil {
		t.Fatalf("LoadInstruction: %v", err)
	}
	if instr != "watch for regressions" {
		t.Errorf("instruction = %q", instr)
	}

	state, err := m.LoadState("perf")
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if state.RunCount != 0 || state.Status != StatusActive {
		t.Errorf("initial state = %+v", state)
	}
}

func TestManager_CreateAgent_AlreadyExists(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	now := time.Now()

	if err := m.CreateAgent("perf", "x", now); err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	err := m.CreateAgent("perf", "y", now)
	if _, ok := err.(*ErrAgentExists); !ok {
		t.Fatalf("expected ErrAgentExists, got %v", err)
	}
}

func TestManager_CreateAgent_InvalidName(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)

	err := m.CreateAgent("-bad", "x", time.Now())
	if _, ok := err.(*ErrInvalidName); !ok {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestManager_LoadState_MissingReturnsInitial(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)

	state, err := m.LoadState("ghost")
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if state.RunCount != 0 || state.AgentName != "ghost" {
		t.Errorf("state = %+v", state)
	}
}

func TestManager_SetAgentStatus_PreservesOtherFields(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	now := time.Now()

	if err := m.CreateAgent("perf", "x", now); err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	state, _ := m.LoadState("perf")
	state.Summary = "keep me"
	state.RunCount = 3
	if err := m.SaveState("perf", state); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	if err := m.SetAgentStatus("perf", StatusPaused); err != nil {
		t.Fatalf("SetAgentStatus: %v", err)
	}

	got, _ := m.LoadState("perf")
	if got.Status != StatusPaused {
		t.Errorf("Status = %s, want paused", got.Status)
	}
	if got.Summary != "keep me" || got.RunCount != 3 {
		t.Errorf("fields not preserved: %+v", got)
	}
}

func TestManager_ListAgents(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	now := time.Now()

	if err := m.CreateAgent("beta", "x", now); err != nil {
		t.Fatal(err)
	}
	if err := m.CreateAgent("alpha", "y", now); err != nil {
		t.Fatal(err)
	}

	agents, err := m.ListAgents()
	if err != nil {
		t.Fatalf("ListAgents: %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("len(agents) = %d, want 2", len(agents))
	}
	if agents[0].Name != "alpha" || agents[1].Name != "beta" {
		t.Errorf("expected lexicographic order, got %+v", agents)
	}
}

func TestManager_SaveRunLog_And_GetRunHistory(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	now := time.Now()
	if err := m.CreateAgent("perf", "x", now); err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 3; i++ {
		log := AgentRunLog{
			RunID:     i,
			AgentName: "perf",
			Timestamp: now.Add(time.Duration(i) * time.Minute),
		}
		if err := m.SaveRunLog("perf", log); err != nil {
			t.Fatalf("SaveRunLog: %v", err)
		}
	}

	history, err := m.GetRunHistory("perf", 0)
	if err != nil {
		t.Fatalf("GetRunHistory: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("len(history) = %d, want 3", len(history))
	}
	// entries are basenames, with the .json extension stripped
	if filepath.Ext(history[0]) != "" {
		t.Errorf("history entries should have no extension, got %q", history[0])
	}

	limited, err := m.GetRunHistory("perf", 2)
	if err != nil {
		t.Fatalf("GetRunHistory(limit=2): %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("len(limited) = %d, want 2", len(limited))
	}
}

func TestRunLogFilename_Sortable(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Second)

	f1 := RunLogFilename(t1, 1)
	f2 := RunLogFilename(t2, 2)

	if f1 >= f2 {
		t.Errorf("expected %q < %q lexicographically", f1, f2)
	}
}
