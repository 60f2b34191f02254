package prompt

import (
	"encoding/json"
	"testing"
)

func TestParseAgentOutput_FencedJSON(t *testing.T) {
	input := "```json\n{\"summary\":\"s\",\"findings\":\"f\",\"assessment\":\"a\"}\n```"
	out, err := ParseAgentOutput(input)
	if err != nil {
		t.Fatalf("ParseAgentOutput: %v", err)
	}
	if out.Summary != "s" || out.Findings != "f" || out.Assessment != "a" {
		t.Errorf("out = %+v", out)
	}
	if len(out.ActiveIssues) != 0 || len(out.ResolvedIssues) != 0 || len(out.Actions) != 0 {
		t.Errorf("expected defaulted empty arrays, got %+v", out)
	}
	if !out.StateChanges.SummaryUpdated {
		t.Error("expected default StateChanges.SummaryUpdated=true")
	}
}

func TestParseAgentOutput_BareJSON(t *testing.T) {
	input := `some preamble text {"summary":"s","findings":"f","assessment":"a"} trailing`
	out, err := ParseAgentOutput(input)
	if err != nil {
		t.Fatalf("ParseAgentOutput: %v", err)
	}
	if out.Summary != "s" {
		t.Errorf("Summary = %q", out.Summary)
	}
}

func TestParseAgentOutput_InvalidJSON(t *testing.T) {
	_, err := ParseAgentOutput("{invalid json}")
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseAgentOutput_EmptyInput(t *testing.T) {
	_, err := ParseAgentOutput("   ")
	if err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestParseAgentOutput_MissingRequiredField(t *testing.T) {
	_, err := ParseAgentOutput(`{"summary":"s","findings":"f"}`)
	if err == nil {
		t.Fatal("expected error for missing assessment field")
	}
}

func TestParseAgentOutput_Idempotent(t *testing.T) {
	input := `{"summary":"s","findings":"f","assessment":"a","activeIssues":[{"id":"i1","fingerprint":"fp1"}]}`
	first, err := ParseAgentOutput(input)
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}

	serialized, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := ParseAgentOutput(string(serialized))
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}

	if first.Summary != second.Summary || first.Findings != second.Findings || first.Assessment != second.Assessment {
		t.Errorf("not idempotent: %+v vs %+v", first, second)
	}
	if len(first.ActiveIssues) != len(second.ActiveIssues) {
		t.Errorf("ActiveIssues length differs: %d vs %d", len(first.ActiveIssues), len(second.ActiveIssues))
	}
}
