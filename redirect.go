package coverstar

import (
	"net/http"
	"net/url"
	"strings"
)

// CallbackURL returns the redirect URI sent to the provider. A configured
// redirect_uri wins; otherwise it is built from the request's scheme and host
// (or full_host) and the callback path.
func (s *Strategy) CallbackURL(r *http.Request) string {
	host := s.cfg.FullHost
	if host == "" {
		host = requestHost(r)
	}
	return ResolveCallbackURL(s.cfg.RedirectURI, strings.TrimSuffix(host, "/")+s.cfg.CallbackPath())
}

// ResolveCallbackURL returns redirectURI when set, else callbackURL without
// its query string or fragment. Providers compare redirect URIs exactly, and
// the callback request's code and state parameters must not be echoed back.
func ResolveCallbackURL(redirectURI, callbackURL string) string {
	if redirectURI != "" {
		return redirectURI
	}
	u, err := url.Parse(callbackURL)
	if err != nil {
		if i := strings.IndexAny(callbackURL, "?#"); i >= 0 {
			return callbackURL[:i]
		}
		return callbackURL
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// requestHost returns scheme://host for r, honouring X-Forwarded-Proto and
// X-Forwarded-Host set by a proxy.
func requestHost(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := firstHeaderValue(r, "X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	host := r.Host
	if fwd := firstHeaderValue(r, "X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host
}

func firstHeaderValue(r *http.Request, name string) string {
	v, _, _ := strings.Cut(r.Header.Get(name), ",")
	return strings.TrimSpace(v)
}
