package kusto

import (
	"testing"
	"time"
)

func TestFingerprint_NormalizesWhitespace(t *testing.T) {
	a := Fingerprint("Events | where x == 1")
	b := Fingerprint("Events\n  |   where   x == 1  ")
	if a != b {
		t.Errorf("fingerprints differ: %q vs %q", a, b)
	}
}

func TestCache_GetSetRoundTrip(t *testing.T) {
	c := NewCache(time.Minute)
	kql := "Events | take 10"

	if _, ok := c.Get(kql); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(kql, QueryResult{Columns: []string{"a"}, Rows: [][]any{{1}}, Summary: "1 row"})

	got, ok := c.Get(kql)
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if !got.Cached {
		t.Error("expected Cached=true on hit")
	}
	if got.Summary != "1 row" {
		t.Errorf("Summary = %q", got.Summary)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := NewCache(time.Millisecond)
	c.Set("Events | take 1", QueryResult{Summary: "x"})
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("Events | take 1"); ok {
		t.Error("expected expired entry to be a miss")
	}
}

func TestCache_Cleanup(t *testing.T) {
	c := NewCache(time.Millisecond)
	c.Set("a", QueryResult{})
	c.Set("b", QueryResult{})
	time.Sleep(5 * time.Millisecond)

	removed := c.Cleanup()
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if c.Stats().Entries != 0 {
		t.Errorf("entries after cleanup = %d, want 0", c.Stats().Entries)
	}
}

func TestIsTimespan(t *testing.T) {
	cases := []struct {
		field, value string
		want         bool
	}{
		{"anything", "00:01:30", true},
		{"anything", "1.02:03:04.567", true},
		{"requestDuration", "42", true},
		{"responseTime", "42", true},
		{"latencyMs", "42", true},
		{"eventId", "42", false},
		{"name", "hello", false},
	}
	for _, tc := range cases {
		if got := IsTimespan(tc.field, tc.value); got != tc.want {
			t.Errorf("IsTimespan(%q, %q) = %v, want %v", tc.field, tc.value, got, tc.want)
		}
	}
}

func TestRecommend(t *testing.T) {
	recs := Recommend("where x == 1", 5)
	if len(recs) == 0 {
		t.Fatal("expected a recommendation for unpiped where")
	}

	recs = Recommend("Events | where TimeGenerated > ago(1d) | project EventId", 5)
	if len(recs) != 0 {
		t.Errorf("expected no recommendations for a well-formed query, got %v", recs)
	}

	recs = Recommend("Events | where TimeGenerated > ago(1d)", 20000)
	found := false
	for _, r := range recs {
		if r != "" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a large-result-set recommendation")
	}
}
