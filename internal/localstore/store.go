// Package localstore is the durable client-local key-value state: the
// bearer token, the onboarding-completed flag, and the per-(match,user)
// rating-dismissal flags. Entries survive restarts; there is no schema
// versioning, matching the backend contract for this state.
package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	KeyAccessToken         = "access_token"
	KeyOnboardingCompleted = "onboarding_completed"
)

// RatingDismissedKey builds the per-(match,user) dismissal flag key.
func RatingDismissedKey(matchID, userID string) string {
	return fmt.Sprintf("rating_dismissed_%s_%s", matchID, userID)
}

// Store persists a flat string map as one JSON file under the state dir.
// All access happens on the UI goroutine plus the realtime callback
// goroutine, so writes take a mutex but need no cross-process locking.
type Store struct {
	path string

	mu      sync.Mutex
	entries map[string]string
}

func Open(stateDir string) (*Store, error) {
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	s := &Store{
		path:    filepath.Join(stateDir, "state.json"),
		entries: make(map[string]string),
	}
	b, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	// a corrupt state file is treated as empty, never as a hard failure
	_ = json.Unmarshal(b, &s.entries)
	if s.entries == nil {
		s.entries = make(map[string]string)
	}
	return s, nil
}

func (s *Store) Get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[key]
}

func (s *Store) GetBool(key string) bool {
	return s.Get(key) == "true"
}

func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return s.flushLocked()
}

func (s *Store) SetBool(key string, value bool) error {
	if value {
		return s.Set(key, "true")
	}
	return s.Set(key, "false")
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	b, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
