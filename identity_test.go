package coverstar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialsFromToken(t *testing.T) {
	expiry := time.Unix(1700000000, 0)

	tests := []struct {
		name  string
		token TokenSet
		want  map[string]interface{}
	}{
		{
			name:  "access token only",
			token: TokenSet{AccessToken: "access"},
			want:  map[string]interface{}{"token": "access", "expires": false},
		},
		{
			name: "all fields",
			token: TokenSet{
				AccessToken:  "access",
				IDToken:      "a.b.c",
				RefreshToken: "refresh",
				ExpiresAt:    expiry,
			},
			want: map[string]interface{}{
				"token":         "access",
				"id_token":      "a.b.c",
				"refresh_token": "refresh",
				"expires_at":    int64(1700000000),
				"expires":       true,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CredentialsFromToken(tt.token).Map())
		})
	}
}

func TestIdentity_Map(t *testing.T) {
	ident := &Identity{
		Provider:    "coverstar",
		UID:         "abc-123",
		Info:        Info{Email: "user@example.com"},
		Credentials: Credentials{Token: "access"},
		Extra:       Extra{RawInfo: map[string]interface{}{"sub": "abc-123"}},
	}

	m := ident.Map()
	assert.Equal(t, "coverstar", m["provider"])
	assert.Equal(t, "abc-123", m["uid"])
	assert.Equal(t, map[string]interface{}{"email": "user@example.com"}, m["info"])
	assert.Equal(t, map[string]interface{}{"token": "access", "expires": false}, m["credentials"])
	assert.Equal(t, map[string]interface{}{"raw_info": map[string]interface{}{"sub": "abc-123"}}, m["extra"])
}

func TestIdentity_JSON(t *testing.T) {
	ident := &Identity{
		Provider:    "coverstar",
		UID:         "abc-123",
		Info:        Info{Name: "janedoe"},
		Credentials: Credentials{Token: "access"},
	}
	b, err := json.Marshal(ident)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"provider": "coverstar",
		"uid": "abc-123",
		"info": {"name": "janedoe"},
		"credentials": {"token": "access", "expires": false},
		"extra": {"raw_info": null}
	}`, string(b))
}
