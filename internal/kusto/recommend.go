package kusto

import (
	"strings"
)

// Recommend returns static heuristic recommendations for a KQL query,
// given its text and the number of rows the query returned.
func Recommend(kql string, rowCount int) []string {
	var recs []string

	if hasUnpipedWhere(kql) {
		recs = append(recs, "`where` appears without a preceding pipe; KQL operators must be chained with `|`.")
	}
	if strings.Contains(kql, "project *") || strings.Contains(kql, "project-away *") {
		recs = append(recs, "projecting `*` returns every column; consider projecting only the fields you need.")
	}
	if !strings.Contains(kql, "ago(") {
		recs = append(recs, "no `ago(...)` time filter found; unscoped queries can scan the full retention window.")
	}
	if rowCount > 10000 {
		recs = append(recs, "result set exceeds 10,000 rows; consider narrowing the time range or adding a filter.")
	}

	return recs
}

// hasUnpipedWhere reports whether "where" appears at the start of the
// query (or after something other than a pipe), which is invalid KQL.
func hasUnpipedWhere(kql string) bool {
	lines := strings.Split(kql, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToLower(trimmed), "where") {
			continue
		}
		if i == 0 {
			return true
		}
		prev := strings.TrimSpace(lines[i-1])
		if !strings.HasSuffix(prev, "|") {
			return true
		}
	}
	return false
}
