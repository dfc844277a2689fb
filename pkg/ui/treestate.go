package ui

import (
	"log"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
)

// TreeState is the persisted expand state of the browser tree, saved to the
// XDG state directory so expansion survives restarts. Only node keys the
// user explicitly expanded are stored.
//
// File format (JSON):
//
//	{
//	  "version": 1,
//	  "expanded": {
//	    "conn:prod-redis": true,
//	    "conn:prod-redis/ctr:0": true
//	  }
//	}
//
// Corrupted or missing file means defaults (everything collapsed).
type TreeState struct {
	Version  int             `json:"version"`
	Expanded map[string]bool `json:"expanded"`
}

// TreeStateVersion is the current schema version for tree persistence.
const TreeStateVersion = 1

const treeStateFileName = "tree-state.json"

// DefaultTreeState returns a new TreeState with sensible defaults.
func DefaultTreeState() *TreeState {
	return &TreeState{
		Version:  TreeStateVersion,
		Expanded: make(map[string]bool),
	}
}

// TreeStatePath returns the path to the tree state file under stateDir.
func TreeStatePath(stateDir string) string {
	if stateDir == "" {
		return ""
	}
	return filepath.Join(stateDir, treeStateFileName)
}

// LoadTreeState restores expand state from disk. A missing or invalid file
// yields defaults silently.
func LoadTreeState(stateDir string) *TreeState {
	state := DefaultTreeState()
	path := TreeStatePath(stateDir)
	if path == "" {
		return state
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return state
	}
	if err := json.Unmarshal(data, state); err != nil {
		log.Printf("warning: invalid tree state file, using defaults: %v", err)
		return DefaultTreeState()
	}
	if state.Expanded == nil {
		state.Expanded = make(map[string]bool)
	}
	return state
}

// Save persists the state. Errors are logged, never surfaced: losing
// expansion memory must not interrupt browsing.
func (s *TreeState) Save(stateDir string) {
	path := TreeStatePath(stateDir)
	if path == "" {
		return
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		log.Printf("warning: failed to marshal tree state: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("warning: failed to create state directory: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("warning: failed to write tree state: %v", err)
	}
}

// SetExpanded records a node's expand state. Collapsed nodes are removed
// rather than stored false, keeping the file small.
func (s *TreeState) SetExpanded(key string, expanded bool) {
	if expanded {
		s.Expanded[key] = true
		return
	}
	delete(s.Expanded, key)
}

// ExpandedUnder returns the saved expanded keys that fall inside the given
// connection subtree, parent keys before children so re-expansion can run
// top down.
func (s *TreeState) ExpandedUnder(connKey string) []string {
	var out []string
	for key, on := range s.Expanded {
		if !on {
			continue
		}
		if key == connKey || (len(key) > len(connKey) && key[:len(connKey)+1] == connKey+"/") {
			out = append(out, key)
		}
	}
	// Shorter keys are ancestors in the slash scheme.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len(out[j]) < len(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
