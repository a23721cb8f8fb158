// Package credential resolves the API key and base URL from layered
// sources: a process-wide override (trusted host channel), the persisted
// settings store, and a transient session value. The persisted key is kept
// reversibly encoded at rest; that is obfuscation, not protection, and is a
// declared property of the design.
package credential

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/oukeidos/pressask/internal/apperrors"
	"github.com/oukeidos/pressask/internal/config"
	"github.com/oukeidos/pressask/internal/logger"
)

const (
	// Placeholder is the "unconfigured" sentinel. It is a syntactically
	// valid value but never a usable credential.
	Placeholder = "YOUR_GEMINI_API_KEY"

	// DefaultBaseURL is the built-in API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// Source identifies which layer produced a resolved key.
type Source string

const (
	SourceOverride    Source = "override"
	SourcePersisted   Source = "persisted"
	SourceSessionTemp Source = "sessionTemp"
	SourcePlaceholder Source = "placeholder"
)

// Resolved is a derived credential; it is never stored.
type Resolved struct {
	APIKey string
	Source Source
}

// Configured reports whether the key is usable for a request.
func (r Resolved) Configured() bool {
	return r.APIKey != "" && r.APIKey != Placeholder
}

// Known provider shapes, plus a deliberately permissive generic fallback.
// False negatives are worse than false positives for a single-user tool,
// but blank and whitespace-only input must still fail.
var keyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^AIza[0-9A-Za-z\-_]{35}$`),
	regexp.MustCompile(`^sk-[A-Za-z0-9]{48}$`),
	regexp.MustCompile(`^sk-ant-[A-Za-z0-9\-_]{93}$`),
	regexp.MustCompile(`^[A-Za-z0-9_-]{20,}$`),
}

// ValidateKeyFormat reports whether candidate looks like an API key.
func ValidateKeyFormat(candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false
	}
	for _, re := range keyPatterns {
		if re.MatchString(candidate) {
			return true
		}
	}
	return false
}

// SanitizeBaseURL trims whitespace, strips trailing path separators, and
// verifies the result parses as an absolute URL with a host. The second
// return value is false when the candidate is unusable.
func SanitizeBaseURL(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	for strings.HasSuffix(s, "/") {
		s = strings.TrimSuffix(s, "/")
	}
	if s == "" {
		return "", false
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", false
	}
	return s, true
}

// Resolver owns credential resolution state for one process.
type Resolver struct {
	mu    sync.Mutex
	store *config.Store

	// Process-wide overrides, injected by the host (env, keychain, managed
	// deployment). Trusted unconditionally; never format-checked.
	overrideKey     string
	overrideBaseURL string

	// Transient session key; lives only as long as this process.
	sessionKey string

	// Decoded persisted key, refreshed by SetAPIKey so a fresh save is
	// visible without a storage round trip.
	cachedPersisted *string
}

// NewResolver wires a resolver over the settings store.
func NewResolver(store *config.Store) *Resolver {
	return &Resolver{store: store}
}

// SetOverrideKey installs the process-wide key override.
func (r *Resolver) SetOverrideKey(key string) {
	r.mu.Lock()
	r.overrideKey = strings.TrimSpace(key)
	r.mu.Unlock()
}

// SetOverrideBaseURL installs the process-wide base URL override.
func (r *Resolver) SetOverrideBaseURL(baseURL string) {
	r.mu.Lock()
	r.overrideBaseURL = baseURL
	r.mu.Unlock()
}

// SetSessionKey installs a transient key for this process only.
func (r *Resolver) SetSessionKey(key string) {
	r.mu.Lock()
	r.sessionKey = strings.TrimSpace(key)
	r.mu.Unlock()
}

// ResolveAPIKey picks the key by priority: override, persisted, session,
// placeholder. Recomputed on every call; malformed persisted or session
// entries are dropped as a side effect so they never resurface.
func (r *Resolver) ResolveAPIKey() Resolved {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.overrideKey != "" {
		return Resolved{APIKey: r.overrideKey, Source: SourceOverride}
	}

	if key, ok := r.persistedKeyLocked(); ok {
		return Resolved{APIKey: key, Source: SourcePersisted}
	}

	if r.sessionKey != "" {
		if ValidateKeyFormat(r.sessionKey) {
			return Resolved{APIKey: r.sessionKey, Source: SourceSessionTemp}
		}
		logger.Warn("Discarding malformed session key")
		r.sessionKey = ""
	}

	return Resolved{APIKey: Placeholder, Source: SourcePlaceholder}
}

func (r *Resolver) persistedKeyLocked() (string, bool) {
	if r.cachedPersisted != nil {
		if *r.cachedPersisted == "" {
			return "", false
		}
		return *r.cachedPersisted, true
	}

	enc := r.store.String(config.KeyAPIKeyEncoded)
	if enc == "" {
		return "", false
	}
	plain, err := decodeKey(enc)
	if err != nil || plain == "" {
		// Self-healing: a corrupt entry would fail on every resolution,
		// so delete it once and move on.
		logger.Warn("Stored API key is corrupt; removing it", "error", err)
		r.store.Remove(config.KeyAPIKeyEncoded)
		empty := ""
		r.cachedPersisted = &empty
		return "", false
	}
	r.cachedPersisted = &plain
	return plain, true
}

// ResolveBaseURL picks the endpoint: persisted, override, built-in default.
// Candidates that fail sanitization fall through to the next source.
func (r *Resolver) ResolveBaseURL() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if persisted := r.store.String(config.KeyAPIBaseURL); persisted != "" {
		if clean, ok := SanitizeBaseURL(persisted); ok {
			return clean
		}
		logger.Warn("Stored base URL is malformed; ignoring it")
	}
	if r.overrideBaseURL != "" {
		if clean, ok := SanitizeBaseURL(r.overrideBaseURL); ok {
			return clean
		}
	}
	return DefaultBaseURL
}

// SetAPIKey validates, encodes, and persists the key, then refreshes the
// in-memory value so the next ResolveAPIKey reflects it immediately.
func (r *Resolver) SetAPIKey(candidate string) error {
	candidate = strings.TrimSpace(candidate)
	if !ValidateKeyFormat(candidate) {
		return apperrors.New(apperrors.KindInvalidFormat,
			"API key does not match any known provider format.", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.SetString(config.KeyAPIKeyEncoded, encodeKey(candidate))
	r.cachedPersisted = &candidate
	return nil
}

// SetBaseURL sanitizes and persists the endpoint.
func (r *Resolver) SetBaseURL(candidate string) error {
	clean, ok := SanitizeBaseURL(candidate)
	if !ok {
		return apperrors.New(apperrors.KindInvalidFormat,
			"Base URL must be a well-formed absolute URL.", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.SetString(config.KeyAPIBaseURL, clean)
	return nil
}

// ClearAPIKey removes the persisted key.
func (r *Resolver) ClearAPIKey() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.Remove(config.KeyAPIKeyEncoded)
	empty := ""
	r.cachedPersisted = &empty
}

// Reset clears all mutable settings and every in-memory credential layer
// except the host-injected overrides.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.Reset()
	r.cachedPersisted = nil
	r.sessionKey = ""
}

func encodeKey(plain string) string {
	return base64.StdEncoding.EncodeToString([]byte(plain))
}

func decodeKey(enc string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", fmt.Errorf("failed to decode stored key: %w", err)
	}
	return string(data), nil
}
