package config

import (
	"testing"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	k := koanf.New(".")
	require.NoError(t, k.Load(confmap.Provider(map[string]interface{}{
		"name":                    "coverstar",
		"client_options.site":     "https://auth-dev.coverstar.app",
		"client_options.tokn_url": "/token",
		"scopes":                  "openid",
	}, "."), nil))

	warnings := Validate(k, testRegistry())
	require.Len(t, warnings, 2)

	byKey := map[string]ValidationWarning{}
	for _, w := range warnings {
		byKey[w.Key] = w
	}

	assert.Contains(t, byKey["client_options.tokn_url"].Suggestions, "client_options.token_url")
	assert.Contains(t, byKey["scopes"].Suggestions, "scope")
}

func TestValidationWarning_String(t *testing.T) {
	tests := []struct {
		name string
		w    ValidationWarning
		want string
	}{
		{
			name: "no suggestions",
			w:    ValidationWarning{Key: "foo"},
			want: "'foo' is not a known config key",
		},
		{
			name: "one suggestion",
			w:    ValidationWarning{Key: "scopes", Suggestions: []string{"scope"}},
			want: "'scopes' is not a known config key. Did you mean 'scope'?",
		},
		{
			name: "many suggestions",
			w:    ValidationWarning{Key: "x", Suggestions: []string{"a", "b"}},
			want: "'x' is not a known config key. Did you mean one of: a, b?",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.w.String())
		})
	}
}

func TestEnvTransformer(t *testing.T) {
	transform := EnvTransformer("COVERSTAR__")

	assert.Equal(t, "client_options.site", transform("COVERSTAR__CLIENT_OPTIONS__SITE"))
	assert.Equal(t, "api_base_url", transform("COVERSTAR__API_BASE_URL"))
	assert.Equal(t, "scope", transform("COVERSTAR__SCOPE"))
}

func TestSearchForConfig(t *testing.T) {
	assert.Empty(t, SearchForConfig("definitely-not-a-real-config-file.yaml", t.TempDir()))
}
