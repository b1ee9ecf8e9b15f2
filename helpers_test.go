package coverstar

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/spotlight-social/coverstar/idtoken"
	"github.com/stretchr/testify/require"
)

// buildIDToken returns an unsigned identity token shaped like the provider's.
func buildIDToken(t *testing.T, sub, email, username string) string {
	t.Helper()
	claims := map[string]interface{}{"sub": sub, "iss": "cognito"}
	if email != "" {
		claims["email"] = email
	}
	if username != "" {
		claims["cognito:username"] = username
	}
	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	enc := base64.RawURLEncoding.EncodeToString
	return enc([]byte(`{"alg":"RS256","typ":"JWT"}`)) + "." + enc(payload) + "." + enc([]byte("fakesig"))
}

func testTokenSet(idToken, refreshToken string) TokenSet {
	return TokenSet{
		AccessToken:  "mock_access_token",
		IDToken:      idToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func newTestStrategy(t *testing.T, opts ...Option) *Strategy {
	t.Helper()
	s, err := New("client_id", "client_secret", opts...)
	require.NoError(t, err)
	return s
}

// countingDecoder counts calls to the wrapped decoder.
type countingDecoder struct {
	calls int
}

func (d *countingDecoder) Decode(token string) (idtoken.Claims, error) {
	d.calls++
	return idtoken.Decode(token)
}
