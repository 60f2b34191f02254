package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"sync"

	"github.com/rodneyha/bctelemetrybuddy/internal/config"
)

var fencedKQLBlock = regexp.MustCompile("(?s)```kql\\s*\\n(.*?)```")

// ExternalQueryResult is one configured reference source's fetch
// outcome: either a list of extracted KQL samples, or an error.
type ExternalQueryResult struct {
	Name  string   `json:"name"`
	URL   string   `json:"url"`
	KQL   []string `json:"kql,omitempty"`
	Error string   `json:"error,omitempty"`
}

// externalJSONPayload is the expected shape of a "json" format
// reference: an object whose "queries" field is an array of KQL strings.
type externalJSONPayload struct {
	Queries []string `json:"queries"`
}

// GetExternalQueries fetches KQL samples from every configured external
// reference concurrently, bounded by the reference count, mirroring the
// fan-out-then-gather shape of other concurrent HTTP lookups in this
// codebase. One reference's failure never prevents the others from
// being reported.
func (h *ToolHandlers) GetExternalQueries(ctx context.Context) ([]ExternalQueryResult, error) {
	h.mu.RLock()
	refs := h.cfg.Profile.References
	client := h.httpClient
	h.mu.RUnlock()

	results := make([]ExternalQueryResult, len(refs))
	var wg sync.WaitGroup
	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref config.ReferenceConfig) {
			defer wg.Done()
			results[i] = fetchExternalReference(ctx, client, ref)
		}(i, ref)
	}
	wg.Wait()

	return results, nil
}

func fetchExternalReference(ctx context.Context, client *http.Client, ref config.ReferenceConfig) ExternalQueryResult {
	out := ExternalQueryResult{Name: ref.Name, URL: ref.URL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		out.Error = err.Error()
		return out
	}

	resp, err := client.Do(req)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		out.Error = http.StatusText(resp.StatusCode)
		return out
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		out.Error = err.Error()
		return out
	}

	if ref.Format == "json" {
		var payload externalJSONPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			out.Error = err.Error()
			return out
		}
		out.KQL = payload.Queries
		return out
	}

	// Markdown (or unspecified format): scan for fenced ```kql blocks.
	matches := fencedKQLBlock.FindAllStringSubmatch(string(body), -1)
	for _, m := range matches {
		out.KQL = append(out.KQL, m[1])
	}
	return out
}
