package tools

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rodneyha/bctelemetrybuddy/internal/bcerrors"
	"github.com/rodneyha/bctelemetrybuddy/internal/kusto"
)

const catalogRowCap = 200

// EventCatalogEntry is one row of get_event_catalog's output: an event
// id, its occurrence count, and a heuristically assigned status bucket.
type EventCatalogEntry struct {
	EventID string `json:"eventId"`
	Count   int64  `json:"count"`
	Status  string `json:"status"`
}

// FieldPrevalence buckets how common a field is across the sampled
// top events, bucketed into universal/common/occasional/rare thresholds.
type FieldPrevalence struct {
	Field      string  `json:"field"`
	Prevalence float64 `json:"prevalence"`
	Bucket     string  `json:"bucket"`
}

// EventCatalogResult is get_event_catalog's return shape.
type EventCatalogResult struct {
	Events        []EventCatalogEntry `json:"events"`
	CommonFields  []FieldPrevalence   `json:"commonFields,omitempty"`
	Query         string              `json:"query"`
	Truncated     bool                `json:"truncated"`
}

// categorizeEventStatus is the built-in lookup+heuristic: eventId names
// following common BC telemetry conventions ("...Failed", "...Error")
// bucket as error; names suggesting a duration threshold as too-slow;
// explicit success/completion names as success; everything else unknown.
func categorizeEventStatus(eventID string) string {
	lower := strings.ToLower(eventID)
	switch {
	case strings.Contains(lower, "fail") || strings.Contains(lower, "error") || strings.Contains(lower, "exception"):
		return "error"
	case strings.Contains(lower, "slow") || strings.Contains(lower, "timeout") || strings.Contains(lower, "longrunning"):
		return "too slow"
	case strings.Contains(lower, "success") || strings.Contains(lower, "completed") || strings.Contains(lower, "succeeded"):
		return "success"
	default:
		return "unknown"
	}
}

func prevalenceBucket(ratio float64) string {
	switch {
	case ratio >= 0.8:
		return "universal"
	case ratio >= 0.5:
		return "common"
	case ratio >= 0.2:
		return "occasional"
	default:
		return "rare"
	}
}

// GetEventCatalog discovers the distinct event ids emitted over the last
// `days` days (default 10), grouped with occurrence counts and a
// heuristic status bucket, optionally filtered to one status and
// optionally followed by a second pass computing field prevalence across
// the top events.
func (h *ToolHandlers) GetEventCatalog(ctx context.Context, days int, status string, includeCommonFields bool) (*EventCatalogResult, error) {
	if days <= 0 {
		days = 10
	}

	query := fmt.Sprintf(
		"traces\n| where timestamp > ago(%dd)\n| extend eventId = tostring(customDimensions.eventId)\n| where isnotempty(eventId)\n| summarize count=count() by eventId\n| order by count desc\n| take %d",
		days, catalogRowCap)

	result, err := h.executeKQL(ctx, query)
	if err != nil {
		return nil, err
	}

	eventIDIdx, countIdx := columnIndex(result.Columns, "eventId"), columnIndex(result.Columns, "count")
	var entries []EventCatalogEntry
	for _, row := range result.Rows {
		id := toString(row, eventIDIdx)
		count := toInt64(row, countIdx)
		bucket := categorizeEventStatus(id)
		if status != "" && status != "all" && status != bucket {
			continue
		}
		entries = append(entries, EventCatalogEntry{EventID: id, Count: count, Status: bucket})
	}

	out := &EventCatalogResult{Events: entries, Query: query, Truncated: len(result.Rows) >= catalogRowCap}

	if includeCommonFields {
		fields, err := h.computeCommonFields(ctx, entries)
		if err != nil {
			return nil, err
		}
		out.CommonFields = fields
	}

	return out, nil
}

// computeCommonFields analyzes field prevalence across the top ≤50
// events by count.
func (h *ToolHandlers) computeCommonFields(ctx context.Context, entries []EventCatalogEntry) ([]FieldPrevalence, error) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Count > entries[j].Count })
	if len(entries) > 50 {
		entries = entries[:50]
	}

	fieldCounts := map[string]int{}
	for _, e := range entries {
		samples, err := h.sampleEvent(ctx, e.EventID, 20)
		if err != nil {
			continue
		}
		seen := map[string]bool{}
		for _, sample := range samples {
			for field := range sample {
				if !seen[field] {
					fieldCounts[field]++
					seen[field] = true
				}
			}
		}
	}

	total := len(entries)
	var out []FieldPrevalence
	for field, count := range fieldCounts {
		ratio := float64(count) / float64(maxInt(total, 1))
		out = append(out, FieldPrevalence{Field: field, Prevalence: ratio, Bucket: prevalenceBucket(ratio)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prevalence > out[j].Prevalence })
	return out, nil
}

// FieldSample describes one field discovered while sampling an event,
// including its detected type and, for timespans, a conversion hint.
type FieldSample struct {
	Field            string   `json:"field"`
	Type             string   `json:"type"`
	ExampleValues    []string `json:"exampleValues"`
	ConversionHint   string   `json:"conversionHint,omitempty"`
}

// EventFieldSamplesResult is get_event_field_samples' return shape.
type EventFieldSamplesResult struct {
	EventID     string        `json:"eventId"`
	SampleCount int           `json:"sampleCount"`
	Fields      []FieldSample `json:"fields"`
	ExampleKQL  string        `json:"exampleKql"`
}

// GetEventFieldSamples samples recent events for one eventId and infers
// a type (including timespan recognition) per field from the sampled
// values. Fails when zero samples are returned.
func (h *ToolHandlers) GetEventFieldSamples(ctx context.Context, eventID string, sampleSize int) (*EventFieldSamplesResult, error) {
	if sampleSize <= 0 {
		sampleSize = 20
	}
	samples, err := h.sampleEvent(ctx, eventID, sampleSize)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, bcerrors.New(bcerrors.KindTelemetry, fmt.Sprintf("no samples found for event %q", eventID))
	}

	fields := fieldsFromSamples(samples, 5)
	example := fmt.Sprintf("traces\n| where customDimensions.eventId == '%s'\n| take %d", eventID, sampleSize)
	return &EventFieldSamplesResult{EventID: eventID, SampleCount: len(samples), Fields: fields, ExampleKQL: example}, nil
}

// SchemaField is get_event_schema's simplified per-field output.
type SchemaField struct {
	Field         string   `json:"field"`
	ExampleValues []string `json:"exampleValues"`
}

// EventSchemaResult is get_event_schema's return shape.
type EventSchemaResult struct {
	EventID string        `json:"eventId"`
	Fields  []SchemaField `json:"fields"`
}

// GetEventSchema is a simpler relative of GetEventFieldSamples: just the
// field names and up to 5 example values each, no type detection.
func (h *ToolHandlers) GetEventSchema(ctx context.Context, eventID string) (*EventSchemaResult, error) {
	samples, err := h.sampleEvent(ctx, eventID, 20)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, bcerrors.New(bcerrors.KindTelemetry, fmt.Sprintf("no samples found for event %q", eventID))
	}

	detailed := fieldsFromSamples(samples, 5)
	fields := make([]SchemaField, len(detailed))
	for i, f := range detailed {
		fields[i] = SchemaField{Field: f.Field, ExampleValues: f.ExampleValues}
	}
	return &EventSchemaResult{EventID: eventID, Fields: fields}, nil
}

// fieldsFromSamples collects, per field, up to maxExamples distinct
// string values, then applies timespan detection to assign a type.
func fieldsFromSamples(samples []map[string]string, maxExamples int) []FieldSample {
	values := map[string][]string{}
	order := []string{}
	for _, sample := range samples {
		for field, v := range sample {
			if _, ok := values[field]; !ok {
				order = append(order, field)
			}
			if len(values[field]) < maxExamples && !containsString(values[field], v) {
				values[field] = append(values[field], v)
			}
		}
	}
	sort.Strings(order)

	fields := make([]FieldSample, 0, len(order))
	for _, field := range order {
		examples := values[field]
		fieldType := "string"
		var hint string
		if len(examples) > 0 && kusto.IsTimespan(field, examples[0]) {
			fieldType = "timespan"
			hint = kusto.TimespanConversionHint
		} else if len(examples) > 0 {
			if _, err := strconv.ParseFloat(examples[0], 64); err == nil {
				fieldType = "number"
			}
		}
		fields = append(fields, FieldSample{Field: field, Type: fieldType, ExampleValues: examples, ConversionHint: hint})
	}
	return fields
}

// sampleEvent queries up to n recent raw rows for an eventId and
// converts them into field->stringValue maps.
func (h *ToolHandlers) sampleEvent(ctx context.Context, eventID string, n int) ([]map[string]string, error) {
	query := fmt.Sprintf("traces\n| where customDimensions.eventId == '%s'\n| take %d", escapeKQLString(eventID), n)
	result, err := h.executeKQL(ctx, query)
	if err != nil {
		return nil, err
	}

	samples := make([]map[string]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		sample := map[string]string{}
		for i, col := range result.Columns {
			if i < len(row) {
				sample[col] = fmt.Sprintf("%v", row[i])
			}
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

// TenantMappingEntry maps one companyName to its AAD tenant, with the
// number of telemetry rows observed for that pairing.
type TenantMappingEntry struct {
	CompanyName string `json:"companyName"`
	AADTenantID string `json:"aadTenantId"`
	Count       int64  `json:"count"`
}

// GetTenantMapping returns company-to-tenant pairings observed in
// telemetry, optionally filtered by a companyName substring.
func (h *ToolHandlers) GetTenantMapping(ctx context.Context, filter string) ([]TenantMappingEntry, error) {
	query := "traces\n" +
		"| extend companyName = tostring(customDimensions.companyName), aadTenantId = tostring(customDimensions.aadTenantId)\n" +
		"| where isnotempty(companyName)\n" +
		"| summarize count=count() by companyName, aadTenantId\n" +
		"| order by count desc"

	result, err := h.executeKQL(ctx, query)
	if err != nil {
		return nil, err
	}

	companyIdx := columnIndex(result.Columns, "companyName")
	tenantIdx := columnIndex(result.Columns, "aadTenantId")
	countIdx := columnIndex(result.Columns, "count")

	var entries []TenantMappingEntry
	for _, row := range result.Rows {
		company := toString(row, companyIdx)
		if filter != "" && !strings.Contains(strings.ToLower(company), strings.ToLower(filter)) {
			continue
		}
		entries = append(entries, TenantMappingEntry{
			CompanyName: company,
			AADTenantID: toString(row, tenantIdx),
			Count:       toInt64(row, countIdx),
		})
	}
	return entries, nil
}

func columnIndex(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}

func toString(row []any, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return fmt.Sprintf("%v", row[idx])
}

func toInt64(row []any, idx int) int64 {
	if idx < 0 || idx >= len(row) {
		return 0
	}
	switch v := row[idx].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		n, _ := strconv.ParseInt(fmt.Sprintf("%v", v), 10, 64)
		return n
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// escapeKQLString escapes single quotes for safe interpolation into a
// KQL string literal.
func escapeKQLString(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
