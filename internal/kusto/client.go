// Package kusto talks to the remote log-analytics cluster: it acquires
// an AAD access token via the client-credentials grant and executes KQL
// against the cluster's query endpoint.
package kusto

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/rodneyha/bctelemetrybuddy/internal/bcerrors"
)

const (
	aadTokenURLTemplate = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
	// DefaultScope is the Log Analytics / Azure Monitor data-plane scope.
	DefaultScope = "https://api.loganalytics.io/.default"

	defaultHTTPTimeout = 60 * time.Second
)

// ClientConfig binds a Client to one tenant/cluster.
type ClientConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	ClusterURI   string
	WorkspaceID  string
	Scope        string
}

// Client executes KQL queries against a Log Analytics-style HTTP
// endpoint, acquiring tokens on demand via AAD client-credentials.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	tokenSrc   func(ctx context.Context) (string, error)
}

// NewClient builds a Client. Secrets are read by the caller at the
// moment of construction and never cached beyond the token source's own
// in-memory refresh cache.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, bcerrors.New(bcerrors.KindAuth, "tenantId, clientId, and client secret are required")
	}
	if cfg.ClusterURI == "" {
		return nil, bcerrors.New(bcerrors.KindConfig, "clusterUri is required")
	}
	if cfg.Scope == "" {
		cfg.Scope = DefaultScope
	}

	ccConfig := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf(aadTokenURLTemplate, cfg.TenantID),
		Scopes:       []string{cfg.Scope},
	}

	httpClient := &http.Client{Timeout: defaultHTTPTimeout}

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		tokenSrc: func(ctx context.Context) (string, error) {
			token, err := ccConfig.Token(ctx)
			if err != nil {
				return "", bcerrors.Wrap(bcerrors.KindAuth, "acquire access token", err)
			}
			return token.AccessToken, nil
		},
	}, nil
}

// AccessToken returns a valid bearer token for the configured tenant,
// honoring the BCTB_ACCESS_TOKEN override env var some test harnesses
// and local setups use in place of a real AAD app registration.
func (c *Client) AccessToken(ctx context.Context, overrideToken string) (string, error) {
	if overrideToken != "" {
		return overrideToken, nil
	}
	return c.tokenSrc(ctx)
}

// QueryResult is the parsed shape of a successful KQL execution.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Summary string   `json:"summary"`
	Cached  bool     `json:"cached,omitempty"`
}

// queryRequestBody mirrors the Log Analytics /query POST body shape.
type queryRequestBody struct {
	Query     string `json:"query"`
	Timespan  string `json:"timespan,omitempty"`
	Workspace string `json:"workspace,omitempty"`
}

type rawTable struct {
	Columns []struct {
		Name string `json:"name"`
	} `json:"columns"`
	Rows [][]any `json:"rows"`
}

type rawQueryResponse struct {
	Tables []rawTable `json:"tables"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Execute runs kql against the cluster's /query endpoint and returns the
// parsed result. A non-2xx response is a TelemetryError; a populated
// error envelope in an otherwise-200 body is also surfaced as an error
// (the cluster reports some query failures this way).
func (c *Client) Execute(ctx context.Context, kql, timespan, accessTokenOverride string) (*QueryResult, error) {
	token, err := c.AccessToken(ctx, accessTokenOverride)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(queryRequestBody{Query: kql, Timespan: timespan, Workspace: c.cfg.WorkspaceID})
	if err != nil {
		return nil, bcerrors.Wrap(bcerrors.KindTelemetry, "encode query request", err)
	}

	url := fmt.Sprintf("%s/v1/workspaces/%s/query", c.cfg.ClusterURI, c.cfg.WorkspaceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, bcerrors.Wrap(bcerrors.KindTelemetry, "build query request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, bcerrors.Wrap(bcerrors.KindTelemetry, "execute query", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, bcerrors.Wrap(bcerrors.KindTelemetry, "read query response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, bcerrors.New(bcerrors.KindTelemetry,
			fmt.Sprintf("cluster query failed with status %d: %s", resp.StatusCode, truncate(string(respBody), 2048)))
	}

	var parsed rawQueryResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, bcerrors.Wrap(bcerrors.KindTelemetry, "parse query response", err)
	}
	if parsed.Error != nil {
		return nil, bcerrors.New(bcerrors.KindTelemetry, parsed.Error.Message)
	}
	if len(parsed.Tables) == 0 {
		return &QueryResult{Summary: "0 rows"}, nil
	}

	table := parsed.Tables[0]
	columns := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		columns[i] = col.Name
	}

	return &QueryResult{
		Columns: columns,
		Rows:    table.Rows,
		Summary: fmt.Sprintf("%d rows, %d columns", len(table.Rows), len(columns)),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
