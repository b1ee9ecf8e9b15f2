// Package config holds the configuration key registry used to document,
// default and validate provider options.
package config

import (
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

// KeyInfo contains metadata about a known configuration key.
type KeyInfo struct {
	Key         string      // The full config key path (e.g., "client_options.site")
	Description string      // Human-readable description of what this config does
	Type        string      // Type hint: "string", "duration", etc.
	Default     interface{} // Optional default value
}

// Registry holds the known configuration keys for a provider.
type Registry struct {
	mu   sync.RWMutex
	keys map[string]KeyInfo
}

// NewRegistry returns a registry populated with the given keys.
func NewRegistry(infos ...KeyInfo) *Registry {
	r := &Registry{keys: make(map[string]KeyInfo, len(infos))}
	r.Register(infos...)
	return r
}

// Register adds keys to the registry, replacing existing entries.
func (r *Registry) Register(infos ...KeyInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, info := range infos {
		r.keys[info.Key] = info
	}
}

// Lookup returns metadata for a registered key.
func (r *Registry) Lookup(key string) (KeyInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, exists := r.keys[key]
	return info, exists
}

// Keys returns all registered keys sorted alphabetically.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.keys))
	for k := range r.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Defaults returns the registered keys that carry a default value, keyed by
// their dotted path.
func (r *Registry) Defaults() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defaults := make(map[string]interface{})
	for key, info := range r.keys {
		if info.Default != nil {
			defaults[key] = info.Default
		}
	}
	return defaults
}

// FindSimilar finds registered keys that are similar to the given key.
// Returns up to maxResults keys sorted by similarity (most similar first).
//
// Keys within an edit distance of 3 qualify; keys sharing the same dotted
// prefix get a one point bonus.
func (r *Registry) FindSimilar(key string, maxResults int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		key   string
		score int
	}

	var candidates []scored
	keyPrefix := prefixOf(key)

	for registered := range r.keys {
		if score := similarity(key, registered, keyPrefix); score <= 3 {
			candidates = append(candidates, scored{registered, score})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score == candidates[j].score {
			return candidates[i].key < candidates[j].key
		}
		return candidates[i].score < candidates[j].score
	})

	result := make([]string, 0, maxResults)
	for i := 0; i < len(candidates) && i < maxResults; i++ {
		result = append(result, candidates[i].key)
	}
	return result
}

func similarity(key1, key2, key1Prefix string) int {
	distance := levenshtein.ComputeDistance(key1, key2)
	if key1Prefix != "" && key1Prefix == prefixOf(key2) && distance > 0 {
		distance--
	}
	return distance
}

// prefixOf returns "client_options" for "client_options.site".
func prefixOf(key string) string {
	lastDot := strings.LastIndex(key, ".")
	if lastDot == -1 {
		return ""
	}
	return key[:lastDot]
}
