package config

import (
	"os"
	"path/filepath"
	"strings"
)

// SearchForConfig recursively searches for a config file starting from startDir
// and walking up the directory tree until found or reaching the root.
func SearchForConfig(filename string, startDir string) string {
	d, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}

	p := filepath.Join(d, filename)
	if _, err = os.Stat(p); err == nil {
		return p
	}

	parentDir := filepath.Dir(d)
	if parentDir == d {
		return ""
	}
	return SearchForConfig(filename, parentDir)
}

// EnvTransformer returns a koanf env callback which maps
// COVERSTAR__CLIENT_OPTIONS__SITE to client_options.site for prefix
// "COVERSTAR__". Double underscores separate segments, single underscores are
// kept since option keys are snake_case.
func EnvTransformer(prefix string) func(string) string {
	return func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, prefix))
		return strings.ReplaceAll(s, "__", ".")
	}
}
