package main

import "testing"

func TestBuildRootCmdIncludesAgentCommand(t *testing.T) {
	cmd := buildRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	if !names["agent"] {
		t.Fatal("expected the agent subcommand to be registered")
	}
}

func TestBuildAgentCmdIncludesEveryOperation(t *testing.T) {
	cmd := buildAgentCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"start", "run", "run-all", "list", "history", "pause", "resume"} {
		if !names[want] {
			t.Fatalf("expected agent subcommand %q to be registered", want)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	cases := []struct {
		values []string
		want   string
	}{
		{[]string{"", "a", "b"}, "a"},
		{[]string{"", ""}, ""},
		{[]string{"x"}, "x"},
	}
	for _, c := range cases {
		if got := firstNonEmpty(c.values...); got != c.want {
			t.Errorf("firstNonEmpty(%v) = %q, want %q", c.values, got, c.want)
		}
	}
}
