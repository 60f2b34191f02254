package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SavedQuery is one workspace-local KQL snippet a user or agent stored
// for reuse.
type SavedQuery struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	KQL         string    `json:"kql"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SavedQueryStore is a workspace-local JSON file of saved queries, owned
// by the active profile. It is replaced wholesale when the profile
// switches, just like the query cache.
type SavedQueryStore struct {
	path string
	mu   sync.Mutex
}

// NewSavedQueryStore binds a store to <queriesFolder>/saved-queries.json,
// defaulting queriesFolder to "queries" under the workspace root.
func NewSavedQueryStore(workspaceRoot, queriesFolder string) *SavedQueryStore {
	if strings.TrimSpace(queriesFolder) == "" {
		queriesFolder = "queries"
	}
	folder := queriesFolder
	if !filepath.IsAbs(folder) {
		folder = filepath.Join(workspaceRoot, folder)
	}
	return &SavedQueryStore{path: filepath.Join(folder, "saved-queries.json")}
}

func (s *SavedQueryStore) load() ([]SavedQuery, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read saved queries: %w", err)
	}
	var queries []SavedQuery
	if err := json.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("parse saved queries: %w", err)
	}
	return queries, nil
}

// save writes the full query list atomically (write-temp, then rename),
// mirroring the Context Manager's state-write pattern.
func (s *SavedQueryStore) save(queries []SavedQuery) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create queries folder: %w", err)
	}
	data, err := json.MarshalIndent(queries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal saved queries: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write temp saved queries: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// List returns every saved query, sorted by name.
func (s *SavedQueryStore) List() ([]SavedQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	queries, err := s.load()
	if err != nil {
		return nil, err
	}
	sort.Slice(queries, func(i, j int) bool { return queries[i].Name < queries[j].Name })
	return queries, nil
}

// Search returns queries whose name, description, or KQL contains term
// (case-insensitive).
func (s *SavedQueryStore) Search(term string) ([]SavedQuery, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(term)
	var matches []SavedQuery
	for _, q := range all {
		if strings.Contains(strings.ToLower(q.Name), term) ||
			strings.Contains(strings.ToLower(q.Description), term) ||
			strings.Contains(strings.ToLower(q.KQL), term) {
			matches = append(matches, q)
		}
	}
	return matches, nil
}

// Categories lists every distinct, non-empty category in use, sorted.
func (s *SavedQueryStore) Categories() ([]string, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, q := range all {
		if q.Category != "" {
			seen[q.Category] = true
		}
	}
	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats, nil
}

// Save appends (or, if id is reused, replaces) a saved query and
// persists the full list.
func (s *SavedQueryStore) Save(q SavedQuery, now time.Time) (SavedQuery, error) {
	if strings.TrimSpace(q.Name) == "" || strings.TrimSpace(q.KQL) == "" {
		return SavedQuery{}, fmt.Errorf("save_query requires both name and kql")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return SavedQuery{}, err
	}

	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.CreatedAt = now

	replaced := false
	for i, existing := range all {
		if existing.ID == q.ID {
			all[i] = q
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, q)
	}

	if err := s.save(all); err != nil {
		return SavedQuery{}, err
	}
	return q, nil
}
