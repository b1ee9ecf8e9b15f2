package coverstar

import (
	"context"

	"github.com/spotlight-social/coverstar/idtoken"
)

// Profile fields read in profile mode.
const (
	profileEmailPath       = "data.email"
	profileNamePath        = "data.preferredName"
	profileDescriptionPath = "data.description"
)

// Identity is the normalized sign-in result.
type Identity struct {
	Provider    string      `json:"provider"`
	UID         string      `json:"uid"`
	Info        Info        `json:"info"`
	Credentials Credentials `json:"credentials"`
	Extra       Extra       `json:"extra"`
}

// Map returns the identity keyed the way sign-in consumers expect:
// provider, uid, info, credentials and extra.raw_info.
func (i *Identity) Map() map[string]interface{} {
	return map[string]interface{}{
		"provider":    i.Provider,
		"uid":         i.UID,
		"info":        i.Info.Map(),
		"credentials": i.Credentials.Map(),
		"extra":       map[string]interface{}{"raw_info": i.Extra.RawInfo},
	}
}

// Info holds the display fields of an identity. An empty field means the
// source did not provide it.
type Info struct {
	Email       string `json:"email,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Map returns only the fields that are present.
func (i Info) Map() map[string]interface{} {
	m := map[string]interface{}{}
	if i.Email != "" {
		m["email"] = i.Email
	}
	if i.Name != "" {
		m["name"] = i.Name
	}
	if i.Description != "" {
		m["description"] = i.Description
	}
	return m
}

// Credentials exposes the exchanged tokens. Expires is always reported, even
// when false.
type Credentials struct {
	Token        string `json:"token"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	Expires      bool   `json:"expires"`
}

// CredentialsFromToken builds credentials from a token set. ExpiresAt is set,
// in unix seconds, only when the token expires.
func CredentialsFromToken(t TokenSet) Credentials {
	c := Credentials{
		Token:        t.AccessToken,
		IDToken:      t.IDToken,
		RefreshToken: t.RefreshToken,
		Expires:      t.Expires(),
	}
	if c.Expires {
		c.ExpiresAt = t.ExpiresAt.Unix()
	}
	return c
}

// Map returns the credentials with optional entries omitted when absent.
func (c Credentials) Map() map[string]interface{} {
	m := map[string]interface{}{
		"token":   c.Token,
		"expires": c.Expires,
	}
	if c.IDToken != "" {
		m["id_token"] = c.IDToken
	}
	if c.RefreshToken != "" {
		m["refresh_token"] = c.RefreshToken
	}
	if c.Expires {
		m["expires_at"] = c.ExpiresAt
	}
	return m
}

// Extra carries the untyped source the info was mapped from: the decoded
// claims in claims mode, the profile response in profile mode.
type Extra struct {
	RawInfo map[string]interface{} `json:"raw_info"`
}

// infoMapper maps a callback's sources to info and raw info. Implementations
// only read memoized callback state.
type infoMapper interface {
	info(ctx context.Context, c *Callback) (Info, error)
	rawInfo(ctx context.Context, c *Callback) (map[string]interface{}, error)
}

func newInfoMapper(cfg ProviderConfig) infoMapper {
	if cfg.ProfileEnabled() {
		return profileMapper{}
	}
	return claimsMapper{usernameClaim: cfg.UsernameClaim}
}

// claimsMapper reads info from the identity token.
type claimsMapper struct {
	usernameClaim string
}

func (m claimsMapper) info(ctx context.Context, c *Callback) (Info, error) {
	claims, err := c.Claims(ctx)
	if err != nil {
		return Info{}, err
	}
	var info Info
	info.Email, _ = idtoken.String(claims, "email")
	info.Name, _ = idtoken.String(claims, m.usernameClaim)
	return info, nil
}

func (m claimsMapper) rawInfo(ctx context.Context, c *Callback) (map[string]interface{}, error) {
	return c.Claims(ctx)
}

// profileMapper reads info from the profile API response.
type profileMapper struct{}

func (profileMapper) info(ctx context.Context, c *Callback) (Info, error) {
	rec, err := c.Profile(ctx)
	if err != nil {
		return Info{}, err
	}
	var info Info
	info.Email, _ = rec.String(profileEmailPath)
	info.Name, _ = rec.String(profileNamePath)
	info.Description, _ = rec.String(profileDescriptionPath)
	return info, nil
}

func (profileMapper) rawInfo(ctx context.Context, c *Callback) (map[string]interface{}, error) {
	rec, err := c.Profile(ctx)
	if err != nil {
		return nil, err
	}
	return rec.Map(), nil
}
