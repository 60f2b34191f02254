package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rodneyha/bctelemetrybuddy/internal/bcerrors"
)

const (
	// EnvWorkspacePath overrides the workspace root the config file and
	// agents/ directory are resolved against.
	EnvWorkspacePath = "BCTB_WORKSPACE_PATH"
	// EnvProfile selects the active profile at startup, taking priority
	// over defaultProfile.
	EnvProfile = "BCTB_PROFILE"
	// DefaultProfileName is used when neither BCTB_PROFILE nor
	// defaultProfile is set.
	DefaultProfileName = "default"

	hiddenProfilePrefix = "_"
	maxExtendsDepth     = 32
)

// resolveProfile flattens extends-inheritance for every profile and
// selects the active one. profileOverride, when non-empty, takes
// priority over BCTB_PROFILE and defaultProfile (used by `-p`/`--profile`
// CLI flags).
func resolveProfile(raw *RawConfig, profileOverride string) (*ResolvedConfig, error) {
	if len(raw.Profiles) == 0 {
		// Flat single-profile mode: the top-level fields are the one
		// and only profile.
		return &ResolvedConfig{
			ActiveProfileName: DefaultProfileName,
			Profile:           raw.ProfileConfig,
			Agents:            raw.Agents,
			rawProfiles:       map[string]ProfileConfig{DefaultProfileName: raw.ProfileConfig},
			multiMode:         false,
		}, nil
	}

	flattened := make(map[string]ProfileConfig, len(raw.Profiles))
	for name := range raw.Profiles {
		resolved, err := flattenProfile(raw.Profiles, name, nil)
		if err != nil {
			return nil, bcerrors.Wrap(bcerrors.KindConfig, fmt.Sprintf("resolve profile %q", name), err)
		}
		flattened[name] = resolved
	}

	visible := map[string]ProfileConfig{}
	for name, p := range flattened {
		if !strings.HasPrefix(name, hiddenProfilePrefix) {
			visible[name] = p
		}
	}

	active := activeProfileName(raw.DefaultProfile, profileOverride)
	profile, ok := flattened[active]
	if !ok {
		return nil, bcerrors.New(bcerrors.KindConfig,
			fmt.Sprintf("unknown profile %q (available: %s)", active, strings.Join(sortedKeys(visible), ", ")))
	}

	return &ResolvedConfig{
		ActiveProfileName: active,
		Profile:           profile,
		Agents:            raw.Agents,
		rawProfiles:       visible,
		multiMode:         true,
	}, nil
}

// activeProfileName implements the precedence: explicit override (CLI
// flag), then BCTB_PROFILE, then defaultProfile, then the literal
// "default".
func activeProfileName(defaultProfile, override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	if env := os.Getenv(EnvProfile); strings.TrimSpace(env) != "" {
		return env
	}
	if strings.TrimSpace(defaultProfile) != "" {
		return defaultProfile
	}
	return DefaultProfileName
}

// flattenProfile resolves a profile's extends chain depth-first: the
// base is resolved first, then the child's own fields override it.
func flattenProfile(profiles map[string]ProfileConfig, name string, chain []string) (ProfileConfig, error) {
	for _, seen := range chain {
		if seen == name {
			return ProfileConfig{}, fmt.Errorf("profile extends cycle: %s -> %s", strings.Join(chain, " -> "), name)
		}
	}
	if len(chain) > maxExtendsDepth {
		return ProfileConfig{}, fmt.Errorf("profile extends chain too deep at %q", name)
	}

	profile, ok := profiles[name]
	if !ok {
		return ProfileConfig{}, fmt.Errorf("profile %q extends unknown profile", name)
	}
	if profile.Extends == "" {
		return profile, nil
	}

	base, err := flattenProfile(profiles, profile.Extends, append(chain, name))
	if err != nil {
		return ProfileConfig{}, err
	}
	return mergeProfile(base, profile), nil
}

// mergeProfile overlays child's set fields onto base; the child wins for
// every field it sets.
func mergeProfile(base, child ProfileConfig) ProfileConfig {
	result := base
	result.Extends = ""

	if child.TenantID != "" {
		result.TenantID = child.TenantID
	}
	if child.ClientID != "" {
		result.ClientID = child.ClientID
	}
	if child.SubscriptionID != "" {
		result.SubscriptionID = child.SubscriptionID
	}
	if child.WorkspaceID != "" {
		result.WorkspaceID = child.WorkspaceID
	}
	if child.ClusterURI != "" {
		result.ClusterURI = child.ClusterURI
	}
	if child.QueriesFolder != "" {
		result.QueriesFolder = child.QueriesFolder
	}
	if child.References != nil {
		result.References = child.References
	}
	if child.Cache != (CacheConfig{}) {
		result.Cache = child.Cache
	}
	if child.Sanitize != (SanitizeConfig{}) {
		result.Sanitize = child.Sanitize
	}
	return result
}

func sortedKeys(m map[string]ProfileConfig) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Switch re-resolves the config against a different profile name,
// preserving everything switch_profile must not disturb (the Agents
// section and the set of visible profile names) and reporting the
// previously-active one.
func (c *ResolvedConfig) Switch(name string) (previous string, err error) {
	if len(c.rawProfiles) == 0 {
		return "", bcerrors.New(bcerrors.KindConfig, "no profiles are defined")
	}
	profile, ok := c.rawProfiles[name]
	if !ok {
		return "", bcerrors.New(bcerrors.KindConfig,
			fmt.Sprintf("unknown profile %q (available: %s)", name, strings.Join(sortedKeys(c.rawProfiles), ", ")))
	}
	previous = c.ActiveProfileName
	c.ActiveProfileName = name
	c.Profile = profile
	return previous, nil
}
