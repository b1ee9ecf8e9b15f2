// Package coverstar signs users in with the Coverstar identity provider.
//
// The OAuth2 authorization code flow is delegated to golang.org/x/oauth2.
// After the exchange, a Callback decodes the identity token returned with the
// access token and maps it into a provider agnostic Identity. When a profile
// API is configured, the display fields come from the profile instead of the
// token claims; the uid always comes from the token's sub claim.
//
// Identity tokens are decoded without verifying their signature. They must be
// obtained directly from the token endpoint over TLS, which Exchange does.
//
// Typical use in a callback handler:
//
//	cb, err := strategy.Exchange(ctx, r, r.URL.Query().Get("code"))
//	if err != nil {
//	    http.Error(w, errors.PublicMessage(err), errors.HTTPStatusCode(err))
//	    return
//	}
//	ident, err := cb.Identity(ctx)
//
// A Callback memoizes the decoded claims and the profile response, and must
// only be used for the callback that created it.
package coverstar
