package bcstate

import (
	"testing"
	"time"
)

func TestUpdateState_FirstRunHealthy(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := InitialState("perf", now.Add(-time.Hour))

	output := RunOutput{
		Summary:    "All clear",
		Findings:   "No issues.",
		Assessment: "Healthy.",
	}

	next := UpdateState(prev, output, nil, 120, []string{"get_event_catalog"}, now, 30*24*time.Hour)

	if next.RunCount != 1 {
		t.Fatalf("RunCount = %d, want 1", next.RunCount)
	}
	if len(next.ActiveIssues) != 0 {
		t.Fatalf("ActiveIssues = %d, want 0", len(next.ActiveIssues))
	}
	if len(next.RecentRuns) != 1 {
		t.Fatalf("RecentRuns = %d, want 1", len(next.RecentRuns))
	}
	if next.Summary != "All clear" {
		t.Errorf("Summary = %q, want %q", next.Summary, "All clear")
	}
}

func TestUpdateState_IssueLifecycle(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(time.Hour)
	ttl := 30 * 24 * time.Hour

	prev := InitialState("perf", t1.Add(-time.Hour))

	run1 := UpdateState(prev, RunOutput{
		Summary: "s1", Findings: "f1", Assessment: "a1",
		ActiveIssues: []AgentIssue{{ID: "i1", Fingerprint: "fp1", ConsecutiveDetections: 1, Counts: []float64{10}}},
	}, nil, 10, nil, t1, ttl)

	if len(run1.ActiveIssues) != 1 || run1.ActiveIssues[0].FirstSeen != t1 {
		t.Fatalf("run1 active issues = %+v", run1.ActiveIssues)
	}

	run2 := UpdateState(run1, RunOutput{
		Summary: "s2", Findings: "f2", Assessment: "a2",
		ActiveIssues: []AgentIssue{{ID: "i1", Fingerprint: "fp1", ConsecutiveDetections: 2, Counts: []float64{10, 6}}},
	}, nil, 10, nil, t2, ttl)

	if got := run2.ActiveIssues[0].FirstSeen; got != t1 {
		t.Errorf("run2 FirstSeen = %v, want %v (preserved)", got, t1)
	}
	if got := run2.ActiveIssues[0].ConsecutiveDetections; got != 2 {
		t.Errorf("run2 ConsecutiveDetections = %d, want 2", got)
	}

	run3 := UpdateState(run2, RunOutput{
		Summary: "s3", Findings: "f3", Assessment: "a3",
		ResolvedIssues: []string{"i1"},
	}, nil, 10, nil, t3, ttl)

	if len(run3.ActiveIssues) != 0 {
		t.Fatalf("run3 ActiveIssues = %d, want 0", len(run3.ActiveIssues))
	}
	if len(run3.ResolvedIssues) != 1 || run3.ResolvedIssues[0].ID != "i1" {
		t.Fatalf("run3 ResolvedIssues = %+v", run3.ResolvedIssues)
	}
}

func TestUpdateState_SlidingWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	state := InitialState("perf", now.Add(-5*time.Hour))

	for i := 0; i < 5; i++ {
		runTime := now.Add(time.Duration(i) * time.Hour)
		state = UpdateState(state, RunOutput{
			Summary: "s", Findings: "distinct findings", Assessment: "a",
		}, nil, 5, nil, runTime, 30*24*time.Hour)
		state.RecentRuns = SlidingWindow(state.RecentRuns, 3)
	}

	if len(state.RecentRuns) != 3 {
		t.Fatalf("RecentRuns length = %d, want 3", len(state.RecentRuns))
	}
	want := []int{3, 4, 5}
	for i, r := range state.RecentRuns {
		if r.RunID != want[i] {
			t.Errorf("RecentRuns[%d].RunID = %d, want %d", i, r.RunID, want[i])
		}
	}
}

func TestUpdateState_FingerprintDedup(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := t0.Add(time.Hour)

	prev := InitialState("perf", t0.Add(-time.Hour))
	prev.ActiveIssues = []AgentIssue{{ID: "old", Fingerprint: "fp1", FirstSeen: t0, LastSeen: t0}}
	prev.RunCount = 1

	next := UpdateState(prev, RunOutput{
		Summary: "s", Findings: "f", Assessment: "a",
		ActiveIssues: []AgentIssue{{ID: "new", Fingerprint: "fp1"}},
	}, nil, 5, nil, now, 30*24*time.Hour)

	if len(next.ActiveIssues) != 1 {
		t.Fatalf("ActiveIssues = %d, want 1", len(next.ActiveIssues))
	}
	if next.ActiveIssues[0].FirstSeen != t0 {
		t.Errorf("FirstSeen = %v, want %v", next.ActiveIssues[0].FirstSeen, t0)
	}
}

func TestUpdateState_ResolvedIssueTTLPrune(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ttl := 30 * 24 * time.Hour

	prev := InitialState("perf", now.Add(-time.Hour))
	prev.ResolvedIssues = []AgentIssue{
		{ID: "stale", Fingerprint: "fp-stale", LastSeen: now.Add(-40 * 24 * time.Hour)},
		{ID: "fresh", Fingerprint: "fp-fresh", LastSeen: now.Add(-time.Hour)},
	}

	next := UpdateState(prev, RunOutput{Summary: "s", Findings: "f", Assessment: "a"}, nil, 5, nil, now, ttl)

	if len(next.ResolvedIssues) != 1 || next.ResolvedIssues[0].ID != "fresh" {
		t.Fatalf("ResolvedIssues = %+v, want only fresh", next.ResolvedIssues)
	}
}

func TestUpdateState_ActionStamping(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := InitialState("perf", now.Add(-time.Hour))
	prev.RunCount = 4

	actions := []AgentAction{{Type: ActionTeamsWebhook, Status: ActionSent}}
	next := UpdateState(prev, RunOutput{Summary: "s", Findings: "f", Assessment: "a"}, actions, 5, nil, now, 0)

	if len(next.RecentRuns) != 1 {
		t.Fatalf("expected one run summary")
	}
	for _, a := range next.RecentRuns[0].Actions {
		if a.Run != 5 {
			t.Errorf("action.Run = %d, want 5", a.Run)
		}
	}
}
