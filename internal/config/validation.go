package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/v2"
)

// ValidationWarning represents an unknown or potentially misspelled key.
type ValidationWarning struct {
	Key         string
	Suggestions []string
}

func (w ValidationWarning) String() string {
	msg := fmt.Sprintf("'%s' is not a known config key", w.Key)
	switch len(w.Suggestions) {
	case 0:
	case 1:
		msg += fmt.Sprintf(". Did you mean '%s'?", w.Suggestions[0])
	default:
		msg += fmt.Sprintf(". Did you mean one of: %s?", strings.Join(w.Suggestions, ", "))
	}
	return msg
}

// Validate checks every loaded key against the registry and returns warnings
// for unknown keys, with suggestions for similar registered keys.
func Validate(k *koanf.Koanf, r *Registry) []ValidationWarning {
	var warnings []ValidationWarning
	for _, key := range k.Keys() {
		if _, exists := r.Lookup(key); exists {
			continue
		}
		warnings = append(warnings, ValidationWarning{
			Key:         key,
			Suggestions: r.FindSimilar(key, 3),
		})
	}
	return warnings
}
