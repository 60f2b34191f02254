// Package tools is the single dispatch surface over telemetry queries,
// schema discovery, saved-query storage, multi-profile configuration,
// and caching — invoked identically from LLM tool-calls and the MCP
// protocol server.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rodneyha/bctelemetrybuddy/internal/bcerrors"
	"github.com/rodneyha/bctelemetrybuddy/internal/config"
	"github.com/rodneyha/bctelemetrybuddy/internal/kusto"
	"github.com/rodneyha/bctelemetrybuddy/internal/telemetrysink"
)

// EnvClientSecret holds the AAD application's client secret used for the
// telemetry cluster's client-credentials grant. Unlike the action
// effectors' per-vendor secrets, the cluster credential is shared across
// every tool call for the active profile, so it is read once per profile
// activation rather than per call.
const EnvClientSecret = "BCTB_CLIENT_SECRET"

// ToolHandlers is the single dispatch surface for every tool an agent's
// LLM turn can invoke. It owns the services that switch_profile
// replaces wholesale: the query client, cache, and saved-query store.
type ToolHandlers struct {
	mu sync.RWMutex

	workspaceRoot string
	cfg           *config.ResolvedConfig

	client        *kusto.Client
	cache         *kusto.Cache
	savedQueries  *SavedQueryStore
	configIssues  []string

	httpClient *http.Client
	telemetry  *telemetrysink.Facade
	now        func() time.Time
}

// NewToolHandlers builds the handler surface for the given workspace and
// resolved configuration, constructing the active profile's owned
// services. A misconfigured profile (missing credentials, missing
// cluster URI) never fails construction — get_auth_status surfaces the
// problem instead, never throwing.
func NewToolHandlers(workspaceRoot string, cfg *config.ResolvedConfig, telemetry *telemetrysink.Facade) *ToolHandlers {
	if telemetry == nil {
		telemetry = telemetrysink.NewFacade(nil, 0, 0)
	}
	h := &ToolHandlers{
		workspaceRoot: workspaceRoot,
		cfg:           cfg,
		httpClient:    &http.Client{Timeout: 60 * time.Second},
		telemetry:     telemetry,
		now:           time.Now,
	}
	h.client, h.cache, h.savedQueries, h.configIssues = buildServices(workspaceRoot, cfg.Profile)
	return h
}

// buildServices constructs the profile-owned services, collecting
// human-readable configuration issues instead of failing outright.
func buildServices(workspaceRoot string, profile config.ProfileConfig) (*kusto.Client, *kusto.Cache, *SavedQueryStore, []string) {
	var issues []string

	if profile.TenantID == "" {
		issues = append(issues, "tenantId is not configured")
	}
	if profile.ClientID == "" {
		issues = append(issues, "clientId is not configured")
	}
	if profile.ClusterURI == "" {
		issues = append(issues, "clusterUri is not configured")
	}
	if profile.WorkspaceID == "" {
		issues = append(issues, "workspaceId is not configured")
	}
	secret := os.Getenv(EnvClientSecret)
	if secret == "" {
		issues = append(issues, fmt.Sprintf("%s is not set", EnvClientSecret))
	}

	var client *kusto.Client
	if len(issues) == 0 {
		c, err := kusto.NewClient(kusto.ClientConfig{
			TenantID:     profile.TenantID,
			ClientID:     profile.ClientID,
			ClientSecret: secret,
			ClusterURI:   profile.ClusterURI,
			WorkspaceID:  profile.WorkspaceID,
		})
		if err != nil {
			issues = append(issues, err.Error())
		} else {
			client = c
		}
	}

	cacheCfg := profile.Cache.Resolved()
	ttl := time.Duration(cacheCfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	cache := kusto.NewCache(ttl)

	store := NewSavedQueryStore(workspaceRoot, profile.QueriesFolder)

	return client, cache, store, issues
}

// executeKQL is the shared entry point every schema-discovery tool uses
// to run a query against the active profile's client, surfacing a
// KindConfig error when the profile has no usable client instead of a
// nil-pointer panic.
func (h *ToolHandlers) executeKQL(ctx context.Context, kql string) (*kusto.QueryResult, error) {
	h.mu.RLock()
	client := h.client
	h.mu.RUnlock()

	if client == nil {
		return nil, bcerrors.New(bcerrors.KindConfig, "active profile has no usable telemetry client configured")
	}
	return client.Execute(ctx, kql, "", os.Getenv("BCTB_ACCESS_TOKEN"))
}

// Execute is the single dispatch surface: it decodes args, runs the
// named tool, and emits exactly one ToolCompleted or ToolFailed telemetry
// event for the attempt (a failure also emits the facade's companion Error
// event).
func (h *ToolHandlers) Execute(ctx context.Context, name string, args json.RawMessage) (any, error) {
	start := h.now()
	result, err := h.dispatch(ctx, name, args)
	duration := h.now().Sub(start).Milliseconds()

	profileName := h.activeProfileName()
	if err != nil {
		h.telemetry.ToolFailed(name, profileName, duration, err)
		return nil, err
	}
	h.telemetry.ToolCompleted(name, profileName, duration)
	return result, nil
}

func (h *ToolHandlers) activeProfileName() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg.ActiveProfileName
}

func (h *ToolHandlers) dispatch(ctx context.Context, name string, args json.RawMessage) (any, error) {
	switch name {
	case "get_event_catalog":
		var a struct {
			Days                int    `json:"days"`
			Status              string `json:"status"`
			IncludeCommonFields bool   `json:"includeCommonFields"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return h.GetEventCatalog(ctx, a.Days, a.Status, a.IncludeCommonFields)

	case "get_event_field_samples":
		var a struct {
			EventID    string `json:"eventId"`
			SampleSize int    `json:"sampleSize"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return h.GetEventFieldSamples(ctx, a.EventID, a.SampleSize)

	case "get_event_schema":
		var a struct {
			EventID string `json:"eventId"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return h.GetEventSchema(ctx, a.EventID)

	case "get_tenant_mapping":
		var a struct {
			Filter string `json:"filter"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return h.GetTenantMapping(ctx, a.Filter)

	case "query_telemetry":
		var a struct {
			KQL      string `json:"kql"`
			Timespan string `json:"timespan"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return h.QueryTelemetry(ctx, a.KQL, a.Timespan)

	case "get_saved_queries":
		h.mu.RLock()
		store := h.savedQueries
		h.mu.RUnlock()
		return store.List()

	case "search_queries":
		var a struct {
			Query string `json:"query"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		h.mu.RLock()
		store := h.savedQueries
		h.mu.RUnlock()
		return store.Search(a.Query)

	case "save_query":
		var a SavedQuery
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		h.mu.RLock()
		store := h.savedQueries
		h.mu.RUnlock()
		return store.Save(a, h.now())

	case "get_categories":
		h.mu.RLock()
		store := h.savedQueries
		h.mu.RUnlock()
		return store.Categories()

	case "get_recommendations":
		var a struct {
			KQL      string `json:"kql"`
			RowCount int    `json:"rowCount"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return kusto.Recommend(a.KQL, a.RowCount), nil

	case "get_external_queries":
		return h.GetExternalQueries(ctx)

	case "get_cache_stats":
		h.mu.RLock()
		cache := h.cache
		h.mu.RUnlock()
		return cache.Stats(), nil

	case "clear_cache":
		h.mu.RLock()
		cache := h.cache
		h.mu.RUnlock()
		cache.Clear()
		return map[string]string{"status": "cleared"}, nil

	case "cleanup_cache":
		h.mu.RLock()
		cache := h.cache
		h.mu.RUnlock()
		removed := cache.Cleanup()
		return map[string]int{"removed": removed}, nil

	case "get_auth_status":
		return h.GetAuthStatus(), nil

	case "list_profiles":
		return h.ListProfiles(), nil

	case "switch_profile":
		var a struct {
			Name string `json:"name"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return h.SwitchProfile(a.Name)

	default:
		return nil, bcerrors.New(bcerrors.KindConfig, fmt.Sprintf("unknown tool %q", name))
	}
}

// decodeArgs parses a tool call's JSON arguments, defaulting to an empty
// object when none were supplied.
func decodeArgs(args json.RawMessage, out any) error {
	if len(args) == 0 {
		args = []byte("{}")
	}
	if err := json.Unmarshal(args, out); err != nil {
		return bcerrors.Wrap(bcerrors.KindOutput, "decode tool arguments", err)
	}
	return nil
}
