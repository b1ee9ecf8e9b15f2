package coverstar

import (
	"context"
	"net/http"

	"github.com/spotlight-social/coverstar/errors"
	"github.com/spotlight-social/coverstar/idtoken"
	"github.com/spotlight-social/coverstar/logging"
	"github.com/spotlight-social/coverstar/profile"
	"golang.org/x/oauth2"
	"google.golang.org/grpc/codes"
)

// TokenDecoder decodes an identity token into its claims.
type TokenDecoder interface {
	Decode(token string) (idtoken.Claims, error)
}

// ProfileFetcher fetches the profile record from the API at baseURL.
type ProfileFetcher interface {
	Fetch(ctx context.Context, baseURL, bearerToken string) (*profile.Record, error)
}

// Option configures a Strategy.
type Option func(*Strategy)

// WithConfig sets the provider configuration. Defaults to DefaultConfig().
func WithConfig(cfg ProviderConfig) Option {
	return func(s *Strategy) {
		s.cfg = cfg
	}
}

// WithHTTPClient sets the client used for the token exchange and, unless
// WithProfileFetcher is given, the profile request.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Strategy) {
		s.httpClient = c
	}
}

// WithDecoder replaces the identity token decoder.
func WithDecoder(d TokenDecoder) Option {
	return func(s *Strategy) {
		s.decoder = d
	}
}

// WithProfileFetcher replaces the profile fetcher.
func WithProfileFetcher(f ProfileFetcher) Option {
	return func(s *Strategy) {
		s.fetcher = f
	}
}

// Strategy drives the authorization code flow against the Coverstar identity
// provider. A Strategy is immutable once built and may be shared; the
// per-callback state lives in Callback.
type Strategy struct {
	cfg          ProviderConfig
	clientID     string
	clientSecret string
	httpClient   *http.Client
	decoder      TokenDecoder
	fetcher      ProfileFetcher
	mapper       infoMapper
}

// New returns a Strategy for the given OAuth2 client.
func New(clientID, clientSecret string, opts ...Option) (*Strategy, error) {
	if clientID == "" {
		return nil, errors.NewC("coverstar: config missing client id", codes.InvalidArgument)
	}
	if clientSecret == "" {
		return nil, errors.NewC("coverstar: config missing client secret", codes.InvalidArgument)
	}

	s := &Strategy{
		cfg:          DefaultConfig(),
		clientID:     clientID,
		clientSecret: clientSecret,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.decoder == nil {
		s.decoder = idtoken.NewDecoder()
	}
	if s.fetcher == nil {
		fopts := []profile.FetcherOption{profile.WithTimeout(s.cfg.ProfileTimeout)}
		if s.httpClient != nil {
			fopts = append(fopts, profile.WithHTTPClient(s.httpClient))
		}
		s.fetcher = profile.NewFetcher(fopts...)
	}
	s.mapper = newInfoMapper(s.cfg)
	return s, nil
}

// Name returns the strategy name.
func (s *Strategy) Name() string {
	return s.cfg.Name
}

// Config returns the provider configuration.
func (s *Strategy) Config() ProviderConfig {
	return s.cfg
}

// OAuth2Config returns the client configuration for the given redirect URL.
func (s *Strategy) OAuth2Config(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  s.cfg.AuthorizeURL(),
			TokenURL: s.cfg.TokenURL(),
		},
		RedirectURL: redirectURL,
		Scopes:      s.cfg.Scopes(),
	}
}

// AuthCodeURL returns the provider URL to redirect the user to. The redirect
// URI is resolved from r with CallbackURL.
func (s *Strategy) AuthCodeURL(r *http.Request, state string, opts ...oauth2.AuthCodeOption) string {
	return s.OAuth2Config(s.CallbackURL(r)).AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code received on the callback request r
// for tokens and returns the Callback that resolves the identity.
func (s *Strategy) Exchange(ctx context.Context, r *http.Request, code string, opts ...oauth2.AuthCodeOption) (*Callback, error) {
	if code == "" {
		return nil, errors.NewC("coverstar: callback is missing the authorization code", codes.InvalidArgument)
	}
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	conf := s.OAuth2Config(s.CallbackURL(r))
	logging.Infow(ctx, "coverstar: starting token exchange", "redirect_url", conf.RedirectURL)
	tok, err := conf.Exchange(ctx, code, opts...)
	if err != nil {
		logging.Errorw(ctx, "coverstar: token exchange failed", "error", err)
		return nil, errors.WrapPrefix(err, "coverstar: token exchange failed", 0).
			WithCode(codes.Unauthenticated).
			WithPublicMessage("authorization code exchange failed")
	}

	cb := s.NewCallback(TokenSetFromOAuth2(tok))
	logging.Infow(ctx, "coverstar: token exchange completed", "callback_id", cb.ID(), "refresh_token", cb.token.HasRefreshToken())
	return cb, nil
}

// NewCallback returns a Callback for a token set obtained elsewhere.
func (s *Strategy) NewCallback(token TokenSet) *Callback {
	return newCallback(s, token)
}
