package tools

import (
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/rodneyha/bctelemetrybuddy/internal/bcerrors"
	"github.com/rodneyha/bctelemetrybuddy/internal/kusto"
)

// piiPatterns are scrubbed from result cells when sanitize.removePII is
// enabled for the active profile: email addresses and GUID-shaped
// identifiers, the two leakage vectors Business Central telemetry most
// commonly carries in free-text fields.
var piiPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
	regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`),
}

const emptyKQLMessage = "query_telemetry requires a non-empty kql argument"

// QueryTelemetry checks the cache, validates the query is non-empty,
// obtains an access token, executes against the cluster, and caches the
// parsed result. Cache hits skip token acquisition and execution.
func (h *ToolHandlers) QueryTelemetry(ctx context.Context, kqlText, timespan string) (*kusto.QueryResult, error) {
	if strings.TrimSpace(kqlText) == "" {
		return nil, bcerrors.New(bcerrors.KindTelemetry, emptyKQLMessage)
	}

	h.mu.RLock()
	client := h.client
	cache := h.cache
	sanitize := h.cfg.Profile.Sanitize.RemovePII
	h.mu.RUnlock()

	if cache != nil {
		if cached, ok := cache.Get(kqlText); ok {
			return &cached, nil
		}
	}

	if client == nil {
		return nil, bcerrors.New(bcerrors.KindConfig, "active profile has no usable telemetry client configured")
	}

	result, err := client.Execute(ctx, kqlText, timespan, os.Getenv("BCTB_ACCESS_TOKEN"))
	if err != nil {
		return nil, err
	}

	if sanitize {
		sanitizeRows(result)
	}

	if cache != nil {
		cache.Set(kqlText, *result)
	}
	return result, nil
}

func sanitizeRows(result *kusto.QueryResult) {
	for _, row := range result.Rows {
		for i, cell := range row {
			s, ok := cell.(string)
			if !ok {
				continue
			}
			for _, pattern := range piiPatterns {
				s = pattern.ReplaceAllString(s, "[redacted]")
			}
			row[i] = s
		}
	}
}
