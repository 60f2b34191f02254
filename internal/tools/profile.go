package tools

import "github.com/rodneyha/bctelemetrybuddy/internal/bcerrors"

// ProfileList is list_profiles' return shape.
type ProfileList struct {
	Active string   `json:"active"`
	Names  []string `json:"names"`
}

// ListProfiles reports the active profile and every visible profile
// name available to switch to.
func (h *ToolHandlers) ListProfiles() ProfileList {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return ProfileList{Active: h.cfg.ActiveProfileName, Names: h.cfg.VisibleProfileNames()}
}

// SwitchProfileResult is switch_profile's return shape.
type SwitchProfileResult struct {
	Previous string `json:"previous"`
	Active   string `json:"active"`
}

// SwitchProfile re-resolves the configuration against a different
// profile and replaces every service that profile owns: the query
// client, the cache, and the saved-query store. The transport (the
// process serving tool calls) is untouched.
func (h *ToolHandlers) SwitchProfile(name string) (*SwitchProfileResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.cfg.VisibleProfileNames()) == 0 {
		return nil, bcerrors.New(bcerrors.KindConfig, "no profiles are defined")
	}

	previous, err := h.cfg.Switch(name)
	if err != nil {
		return nil, err
	}

	h.client, h.cache, h.savedQueries, h.configIssues = buildServices(h.workspaceRoot, h.cfg.Profile)

	return &SwitchProfileResult{Previous: previous, Active: h.cfg.ActiveProfileName}, nil
}
