package coverstar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"
)

func TestTokenSetFromOAuth2(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	tok := (&oauth2.Token{
		AccessToken:  "access",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       expiry,
	}).WithExtra(map[string]interface{}{"id_token": "a.b.c"})

	ts := TokenSetFromOAuth2(tok)
	assert.Equal(t, "access", ts.AccessToken)
	assert.Equal(t, "a.b.c", ts.IDToken)
	assert.Equal(t, "refresh", ts.RefreshToken)
	assert.Equal(t, "Bearer", ts.TokenType)
	assert.Equal(t, expiry, ts.ExpiresAt)
	assert.True(t, ts.Expires())
	assert.True(t, ts.HasRefreshToken())
}

func TestTokenSetFromOAuth2_NoIDToken(t *testing.T) {
	ts := TokenSetFromOAuth2(&oauth2.Token{AccessToken: "access"})
	assert.Empty(t, ts.IDToken)
	assert.False(t, ts.Expires())
	assert.False(t, ts.HasRefreshToken())
}

func TestTokenSet_IsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{name: "no expiry", want: false},
		{name: "future", expiresAt: time.Now().Add(time.Hour), want: false},
		{name: "past", expiresAt: time.Now().Add(-time.Hour), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := TokenSet{AccessToken: "access", ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, ts.IsExpired())
			assert.Equal(t, !tt.expiresAt.IsZero(), ts.Expires())
		})
	}
}
