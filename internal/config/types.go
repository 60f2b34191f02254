package config

// ProfileConfig is a named bundle of connection credentials targeting one
// tenant/environment, plus the services that are wholesale replaced when
// the active profile changes: cache, saved-query storage, and external
// KQL references.
type ProfileConfig struct {
	Extends string `yaml:"extends,omitempty"`

	TenantID       string `yaml:"tenantId,omitempty"`
	ClientID       string `yaml:"clientId,omitempty"`
	SubscriptionID string `yaml:"subscriptionId,omitempty"`
	WorkspaceID    string `yaml:"workspaceId,omitempty"`
	ClusterURI     string `yaml:"clusterUri,omitempty"`

	Cache         CacheConfig       `yaml:"cache,omitempty"`
	Sanitize      SanitizeConfig    `yaml:"sanitize,omitempty"`
	QueriesFolder string            `yaml:"queriesFolder,omitempty"`
	References    []ReferenceConfig `yaml:"references,omitempty"`
}

// CacheConfig controls the in-memory query-result cache.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled,omitempty"`
	TTLSeconds int  `yaml:"ttlSeconds,omitempty"`
}

// SanitizeConfig controls post-query scrubbing.
type SanitizeConfig struct {
	RemovePII bool `yaml:"removePII,omitempty"`
}

// ReferenceConfig is one configured external KQL reference source.
type ReferenceConfig struct {
	Name   string `yaml:"name,omitempty"`
	URL    string `yaml:"url,omitempty"`
	Format string `yaml:"format,omitempty"` // "json" or "markdown"
}

// LLMConfig selects and configures the LLM vendor binding.
type LLMConfig struct {
	Provider   string `yaml:"provider,omitempty"` // "anthropic" | "azure-openai"
	Endpoint   string `yaml:"endpoint,omitempty"`
	Deployment string `yaml:"deployment,omitempty"`
	Model      string `yaml:"model,omitempty"`
	APIVersion string `yaml:"apiVersion,omitempty"`
}

// AgentDefaults are the ReAct loop's tunable bounds.
type AgentDefaults struct {
	MaxToolCalls         int    `yaml:"maxToolCalls,omitempty"`
	MaxTokens            int    `yaml:"maxTokens,omitempty"`
	ContextWindowRuns    int    `yaml:"contextWindowRuns,omitempty"`
	ResolvedIssueTTLDays int    `yaml:"resolvedIssueTTLDays,omitempty"`
	ToolScope            string `yaml:"toolScope,omitempty"`
}

// WebhookAuthConfig describes how a generic-webhook action authenticates.
type WebhookAuthConfig struct {
	Type       string `yaml:"type,omitempty"` // "bearer" | "basic" | "api_key"
	Token      string `yaml:"token,omitempty"`
	Username   string `yaml:"username,omitempty"`
	Password   string `yaml:"password,omitempty"`
	HeaderName string `yaml:"headerName,omitempty"`
	APIKey     string `yaml:"apiKey,omitempty"`
}

// ActionConfig is the union of fields any of the five action types may
// use; each effector reads only the fields relevant to its type.
type ActionConfig struct {
	// teams-webhook
	URL string `yaml:"url,omitempty"`

	// email-smtp
	Host              string   `yaml:"host,omitempty"`
	Port              int      `yaml:"port,omitempty"`
	Secure            bool     `yaml:"secure,omitempty"`
	User              string   `yaml:"user,omitempty"`
	DefaultRecipients []string `yaml:"defaultRecipients,omitempty"`

	// email-graph
	TenantID string `yaml:"tenantId,omitempty"`
	ClientID string `yaml:"clientId,omitempty"`
	From     string `yaml:"from,omitempty"`

	// generic-webhook
	Method  string            `yaml:"method,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Auth    WebhookAuthConfig `yaml:"auth,omitempty"`

	// pipeline-trigger
	OrgURL     string `yaml:"orgUrl,omitempty"`
	Project    string `yaml:"project,omitempty"`
	PipelineID int    `yaml:"pipelineId,omitempty"`
}

// AgentsConfig is the global (not per-profile) agent configuration.
type AgentsConfig struct {
	LLM      LLMConfig               `yaml:"llm,omitempty"`
	Defaults AgentDefaults           `yaml:"defaults,omitempty"`
	Actions  map[string]ActionConfig `yaml:"actions,omitempty"`
}

// RawConfig is the as-decoded shape of a config file, before profile
// resolution: either a flat single profile (embedded fields) or a
// defaultProfile/profiles map.
type RawConfig struct {
	ProfileConfig `yaml:",inline"`

	DefaultProfile string                   `yaml:"defaultProfile,omitempty"`
	Profiles       map[string]ProfileConfig `yaml:"profiles,omitempty"`

	Agents AgentsConfig `yaml:"agents,omitempty"`
}

// ResolvedConfig is the fully resolved, ready-to-use configuration: one
// active profile (extends-inheritance already flattened) plus the
// global agents configuration.
type ResolvedConfig struct {
	ActiveProfileName string
	Profile           ProfileConfig
	Agents            AgentsConfig

	// rawProfiles retains every named, visible profile (hidden "_"
	// profiles excluded) so switch_profile can re-resolve against a
	// different one without reloading the file from disk.
	rawProfiles map[string]ProfileConfig
	multiMode   bool
}

// VisibleProfileNames lists profile names available to switch_profile,
// in sorted order, excluding "_"-prefixed bases.
func (c *ResolvedConfig) VisibleProfileNames() []string {
	return sortedKeys(c.rawProfiles)
}

// IsMultiProfile reports whether the source file used the
// defaultProfile/profiles map form.
func (c *ResolvedConfig) IsMultiProfile() bool { return c.multiMode }
