// Package config is the persisted settings surface. It stores primitive
// values under fixed keys and performs no validation; policy (key formats,
// URL shapes) belongs to the callers.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oukeidos/pressask/internal/files"
	"github.com/oukeidos/pressask/internal/logger"
)

// Settings keys. SettingsVersion is the only one Reset leaves untouched.
const (
	KeyFirstTimeSetupDone = "FirstTimeSetupDone"
	KeyAPIBaseURL         = "ApiBaseUrl"
	KeyAPIKeyEncoded      = "ApiKeyEncoded"
	KeyDefaultModel       = "DefaultModel"
	KeySettingsVersion    = "SettingsVersion"
)

// CurrentSettingsVersion stamps newly created settings files.
const CurrentSettingsVersion = "1"

// Store is a read-through/write-through key/value settings store backed by a
// JSON file. All accessors are synchronous; every mutation is persisted
// atomically before it returns, so callers never observe torn state.
type Store struct {
	mu     sync.Mutex
	path   string
	values map[string]any
}

// Open loads the settings file at path, creating the document lazily on
// first access. A missing file is not an error.
func Open(path string) (*Store, error) {
	if err := files.RejectSymlinkPath(path); err != nil {
		return nil, err
	}
	s := &Store{path: path, values: make(map[string]any)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.values[KeySettingsVersion] = CurrentSettingsVersion
			return s, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		// A corrupt settings file is recoverable: start fresh rather than
		// wedging every launch.
		logger.Warn("Settings file unreadable; starting with defaults", "path", path, "error", err)
		s.values = map[string]any{KeySettingsVersion: CurrentSettingsVersion}
	}
	if _, ok := s.values[KeySettingsVersion].(string); !ok {
		s.values[KeySettingsVersion] = CurrentSettingsVersion
	}
	return s, nil
}

// DefaultPath returns the per-user settings file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".pressask", "settings.json"), nil
}

// StringWithFallback returns the string stored under key, or fallback when
// the key is absent or holds a different type.
func (s *Store) StringWithFallback(key, fallback string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key].(string); ok {
		return v
	}
	return fallback
}

// String returns the string stored under key, or "".
func (s *Store) String(key string) string {
	return s.StringWithFallback(key, "")
}

// BoolWithFallback returns the bool stored under key, or fallback.
func (s *Store) BoolWithFallback(key string, fallback bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key].(bool); ok {
		return v
	}
	return fallback
}

// Bool returns the bool stored under key, or false.
func (s *Store) Bool(key string) bool {
	return s.BoolWithFallback(key, false)
}

// SetString stores value under key and persists.
func (s *Store) SetString(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.persistLocked()
}

// SetBool stores value under key and persists.
func (s *Store) SetBool(key string, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.persistLocked()
}

// Remove deletes key and persists. Removing an absent key is a no-op.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.persistLocked()
}

// Reset clears the four mutable settings, leaving the version stamp.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, KeyFirstTimeSetupDone)
	delete(s.values, KeyAPIBaseURL)
	delete(s.values, KeyAPIKeyEncoded)
	delete(s.values, KeyDefaultModel)
	s.persistLocked()
}

// Keys returns the currently stored key names, for the settings display.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

func (s *Store) persistLocked() {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		logger.Error("Failed to encode settings", "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		logger.Error("Failed to create settings directory", "path", filepath.Dir(s.path), "error", err)
		return
	}
	if err := files.AtomicWrite(s.path, data, 0600); err != nil {
		logger.Error("Failed to persist settings", "path", s.path, "error", err)
	}
}
