package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/rodneyha/bctelemetrybuddy/internal/bcstate"
)

func TestBuildAgentPrompt_FirstRun(t *testing.T) {
	state := bcstate.InitialState("perf", time.Now())
	got := BuildAgentPrompt("watch for regressions", state, time.Now())

	if !strings.Contains(got, "FIRST RUN") {
		t.Errorf("expected FIRST RUN marker, got: %s", got)
	}
	if !strings.Contains(got, "watch for regressions") {
		t.Error("expected instruction to be included verbatim")
	}
	if !strings.Contains(got, "Run #1") {
		t.Error("expected Run #1")
	}
}

func TestBuildAgentPrompt_SubsequentRun(t *testing.T) {
	state := bcstate.InitialState("perf", time.Now())
	state.RunCount = 2
	state.Summary = "prior summary"
	state.ActiveIssues = []bcstate.AgentIssue{{ID: "i1", Fingerprint: "fp1"}}
	state.RecentRuns = []bcstate.AgentRunSummary{{RunID: 2, Findings: "found something"}}

	got := BuildAgentPrompt("watch for regressions", state, time.Now())

	if strings.Contains(got, "FIRST RUN") {
		t.Error("did not expect FIRST RUN marker on a later run")
	}
	if !strings.Contains(got, "prior summary") {
		t.Error("expected prior summary to be included")
	}
	if !strings.Contains(got, "fp1") {
		t.Error("expected active issues JSON to include fingerprint")
	}
	if !strings.Contains(got, "found something") {
		t.Error("expected recent run findings to be included")
	}
	if !strings.Contains(got, "Run #3") {
		t.Error("expected Run #3")
	}
}
