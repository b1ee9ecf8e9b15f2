package coverstar

import (
	"time"

	"golang.org/x/oauth2"
)

// TokenSet is the result of the authorization code exchange. It is read-only
// for the strategy.
type TokenSet struct {
	// AccessToken authenticates requests to the provider's APIs.
	AccessToken string

	// IDToken is the compact JWT identifying the user. The profile API also
	// accepts it as a bearer credential.
	IDToken string

	// RefreshToken is empty unless the provider issued one.
	RefreshToken string

	// TokenType is the type of token, typically "Bearer".
	TokenType string

	// ExpiresAt is the time at which the access token expires.
	// A zero value means the token does not expire.
	ExpiresAt time.Time
}

// TokenSetFromOAuth2 converts the token returned by an oauth2.Config exchange.
// The identity token is read from the token response's id_token field.
func TokenSetFromOAuth2(tok *oauth2.Token) TokenSet {
	ts := TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		ExpiresAt:    tok.Expiry,
	}
	if idt, ok := tok.Extra("id_token").(string); ok {
		ts.IDToken = idt
	}
	return ts
}

// Expires reports whether the access token carries an expiry.
func (t TokenSet) Expires() bool {
	return !t.ExpiresAt.IsZero()
}

// HasRefreshToken returns true if the token includes a refresh token.
func (t TokenSet) HasRefreshToken() bool {
	return t.RefreshToken != ""
}

// IsExpired returns true if the access token has expired.
// Returns false if the token has no expiry time set.
func (t TokenSet) IsExpired() bool {
	if !t.Expires() {
		return false
	}
	return time.Now().After(t.ExpiresAt)
}
