package coverstar

import (
	"context"

	"github.com/google/uuid"
	"github.com/spotlight-social/coverstar/idtoken"
	"github.com/spotlight-social/coverstar/logging"
	"github.com/spotlight-social/coverstar/profile"
)

// Callback resolves the identity for one OAuth2 callback. The decoded claims
// and the profile response are computed on first use and reused for the
// lifetime of the Callback, failures included.
//
// A Callback is not safe for concurrent use and must not be shared between
// callbacks; create one per token exchange.
type Callback struct {
	id       string
	strategy *Strategy
	token    TokenSet

	decoded   bool
	claims    idtoken.Claims
	claimsErr error

	fetched    bool
	profile    *profile.Record
	profileErr error
}

// ID identifies the callback in logs.
func (c *Callback) ID() string {
	return c.id
}

// Token returns the exchanged token set.
func (c *Callback) Token() TokenSet {
	return c.token
}

// Claims decodes the identity token. Decoding happens at most once.
func (c *Callback) Claims(ctx context.Context) (idtoken.Claims, error) {
	if !c.decoded {
		c.decoded = true
		c.claims, c.claimsErr = c.decodeClaims(ctx)
	}
	return c.claims, c.claimsErr
}

func (c *Callback) decodeClaims(ctx context.Context) (idtoken.Claims, error) {
	if c.token.IDToken == "" {
		return nil, idtoken.Malformed("token response has no id_token", nil)
	}
	claims, err := c.strategy.decoder.Decode(c.token.IDToken)
	if err != nil {
		c.logger(ctx).Errorw("coverstar: failed to decode id token", "error", err)
		return nil, err
	}
	return claims, nil
}

// Profile fetches the profile using the identity token as the bearer
// credential. The request is made at most once. Returns nil when the strategy
// has no profile API configured.
func (c *Callback) Profile(ctx context.Context) (*profile.Record, error) {
	if !c.strategy.cfg.ProfileEnabled() {
		return nil, nil
	}
	if !c.fetched {
		c.fetched = true
		c.profile, c.profileErr = c.fetchProfile(ctx)
	}
	return c.profile, c.profileErr
}

func (c *Callback) fetchProfile(ctx context.Context) (*profile.Record, error) {
	if c.token.IDToken == "" {
		return nil, idtoken.Malformed("token response has no id_token", nil)
	}
	ctx = logging.With(ctx, c.logger(ctx))
	rec, err := c.strategy.fetcher.Fetch(ctx, c.strategy.cfg.ProfileBaseURL, c.token.IDToken)
	if err != nil {
		logging.Errorw(ctx, "coverstar: profile fetch failed", "error", err)
		return nil, err
	}
	return rec, nil
}

// UID returns the sub claim of the identity token. The profile API is never
// consulted for the uid.
func (c *Callback) UID(ctx context.Context) (string, error) {
	claims, err := c.Claims(ctx)
	if err != nil {
		return "", err
	}
	return idtoken.Subject(claims)
}

// Info maps the display fields from the configured source.
func (c *Callback) Info(ctx context.Context) (Info, error) {
	return c.strategy.mapper.info(ctx, c)
}

// Credentials reports the exchanged tokens.
func (c *Callback) Credentials() Credentials {
	return CredentialsFromToken(c.token)
}

// Extra returns the raw source data behind Info.
func (c *Callback) Extra(ctx context.Context) (Extra, error) {
	raw, err := c.strategy.mapper.rawInfo(ctx, c)
	if err != nil {
		return Extra{}, err
	}
	return Extra{RawInfo: raw}, nil
}

// Identity assembles the normalized identity. Any failure aborts the
// callback; a failed profile fetch never falls back to claims.
func (c *Callback) Identity(ctx context.Context) (*Identity, error) {
	uid, err := c.UID(ctx)
	if err != nil {
		return nil, err
	}
	info, err := c.Info(ctx)
	if err != nil {
		return nil, err
	}
	extra, err := c.Extra(ctx)
	if err != nil {
		return nil, err
	}

	c.logger(ctx).Infow("coverstar: identity resolved", "uid", uid, "profile", c.strategy.cfg.ProfileEnabled())
	return &Identity{
		Provider:    c.strategy.cfg.Name,
		UID:         uid,
		Info:        info,
		Credentials: c.Credentials(),
		Extra:       extra,
	}, nil
}

func (c *Callback) logger(ctx context.Context) logging.Logger {
	return logging.FromContext(ctx).With("callback_id", c.id)
}

func newCallback(s *Strategy, token TokenSet) *Callback {
	return &Callback{
		id:       uuid.NewString(),
		strategy: s,
		token:    token,
	}
}
