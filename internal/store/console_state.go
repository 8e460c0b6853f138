// Package store persists the console's small, best-effort UI state in the
// workspace directory, so relaunching the console restores the last query
// location and scope.
package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const consoleStateFileName = "console_state.json"

// Store is a workspace directory holding regdesk's local files (UI state,
// query cache).
type Store struct {
	Dir string
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

// CachePath is where the sqlite query cache lives inside the workspace dir.
func (s Store) CachePath() string {
	return filepath.Join(s.Dir, "cache.sqlite")
}

// ConsoleState is the persisted representation of QueryState + Scope. It is
// intentionally "best effort": callers must tolerate missing or stale data.
type ConsoleState struct {
	Version int `json:"version"`

	// Location is the encoded query string (page/q/field/paid/sort/selection),
	// the console's analog of the page URL.
	Location string `json:"location,omitempty"`

	// ScopeEventIDs restores the resolved event scope; the location itself
	// only carries the one-shot selection hint.
	ScopeEventIDs []string `json:"scopeEventIds,omitempty"`
}

func (s Store) consoleStatePath() string {
	return filepath.Join(s.Dir, consoleStateFileName)
}

func (s Store) LoadConsoleState() (*ConsoleState, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return &ConsoleState{Version: 1}, nil
	}
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.consoleStatePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ConsoleState{Version: 1}, nil
		}
		return nil, err
	}
	var st ConsoleState
	if err := json.Unmarshal(b, &st); err != nil {
		// Best-effort; if corrupted, treat as missing.
		return &ConsoleState{Version: 1}, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	return &st, nil
}

func (s Store) SaveConsoleState(st *ConsoleState) error {
	if st == nil {
		return nil
	}
	if strings.TrimSpace(s.Dir) == "" {
		return nil
	}
	if err := s.Ensure(); err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	path := s.consoleStatePath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
