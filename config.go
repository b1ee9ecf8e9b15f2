package coverstar

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spotlight-social/coverstar/errors"
	"github.com/spotlight-social/coverstar/internal/config"
	"github.com/spotlight-social/coverstar/logging"
	"google.golang.org/grpc/codes"
)

// Filename searched for by WithConfigSearch.
const ConfigFile = "coverstar.yaml"

// Provider defaults.
const (
	DefaultName           = "coverstar"
	DefaultSite           = "https://auth.coverstar.app"
	DefaultAuthorizeURL   = "/login"
	DefaultTokenURL       = "/oauth2/token"
	DefaultScope          = "openid email profile"
	DefaultPathPrefix     = "/auth"
	DefaultUsernameClaim  = "cognito:username"
	DefaultProfileTimeout = 10 * time.Second

	// DefaultProfileBaseURL is the production Spotlight external API. It is
	// not enabled unless selected with WithProfileAPI or api_base_url.
	DefaultProfileBaseURL = "https://api.spotlight.social/external-v1/"
)

var configKeys = config.NewRegistry(
	config.KeyInfo{
		Key:         "name",
		Description: "Strategy name, used in the request and callback paths",
		Type:        "string",
		Default:     DefaultName,
	},
	config.KeyInfo{
		Key:         "client_options.site",
		Description: "Base URL of the authorization server",
		Type:        "string",
		Default:     DefaultSite,
	},
	config.KeyInfo{
		Key:         "client_options.authorize_url",
		Description: "Authorization endpoint, absolute or relative to the site",
		Type:        "string",
		Default:     DefaultAuthorizeURL,
	},
	config.KeyInfo{
		Key:         "client_options.token_url",
		Description: "Token endpoint, absolute or relative to the site",
		Type:        "string",
		Default:     DefaultTokenURL,
	},
	config.KeyInfo{
		Key:         "scope",
		Description: "Space delimited OAuth2 scopes",
		Type:        "string",
		Default:     DefaultScope,
	},
	config.KeyInfo{
		Key:         "api_base_url",
		Description: "Profile API base URL; enables profile based identity info when set",
		Type:        "string",
	},
	config.KeyInfo{
		Key:         "redirect_uri",
		Description: "Redirect URI registered with the provider; computed from the request when empty",
		Type:        "string",
	},
	config.KeyInfo{
		Key:         "full_host",
		Description: "Scheme and host used for computed callback URLs instead of the request's",
		Type:        "string",
	},
	config.KeyInfo{
		Key:         "path_prefix",
		Description: "Path prefix of the request and callback paths",
		Type:        "string",
		Default:     DefaultPathPrefix,
	},
	config.KeyInfo{
		Key:         "username_claim",
		Description: "Identity token claim mapped to info.name",
		Type:        "string",
		Default:     DefaultUsernameClaim,
	},
	config.KeyInfo{
		Key:         "profile_timeout",
		Description: "Upper bound for a profile API request",
		Type:        "duration",
		Default:     DefaultProfileTimeout.String(),
	},
)

// ClientOptions locate the authorization server endpoints.
type ClientOptions struct {
	Site         string `koanf:"site"`
	AuthorizeURL string `koanf:"authorize_url"`
	TokenURL     string `koanf:"token_url"`
}

// ProviderConfig is the resolved provider configuration. It is a value type
// and is not modified once loaded.
type ProviderConfig struct {
	Name           string        `koanf:"name"`
	ClientOptions  ClientOptions `koanf:"client_options"`
	Scope          string        `koanf:"scope"`
	ProfileBaseURL string        `koanf:"api_base_url"`
	RedirectURI    string        `koanf:"redirect_uri"`
	FullHost       string        `koanf:"full_host"`
	PathPrefix     string        `koanf:"path_prefix"`
	UsernameClaim  string        `koanf:"username_claim"`
	ProfileTimeout time.Duration `koanf:"profile_timeout"`
}

// DefaultConfig returns the provider defaults.
func DefaultConfig() ProviderConfig {
	return ProviderConfig{
		Name: DefaultName,
		ClientOptions: ClientOptions{
			Site:         DefaultSite,
			AuthorizeURL: DefaultAuthorizeURL,
			TokenURL:     DefaultTokenURL,
		},
		Scope:          DefaultScope,
		PathPrefix:     DefaultPathPrefix,
		UsernameClaim:  DefaultUsernameClaim,
		ProfileTimeout: DefaultProfileTimeout,
	}
}

// AuthorizeURL returns the authorization endpoint resolved against the site.
func (c ProviderConfig) AuthorizeURL() string {
	return resolveAgainst(c.ClientOptions.Site, c.ClientOptions.AuthorizeURL)
}

// TokenURL returns the token endpoint resolved against the site.
func (c ProviderConfig) TokenURL() string {
	return resolveAgainst(c.ClientOptions.Site, c.ClientOptions.TokenURL)
}

// Scopes splits the scope string.
func (c ProviderConfig) Scopes() []string {
	return strings.Fields(c.Scope)
}

// RequestPath is the path that starts the flow, e.g. /auth/coverstar.
func (c ProviderConfig) RequestPath() string {
	return strings.TrimSuffix(c.PathPrefix, "/") + "/" + c.Name
}

// CallbackPath is the path the provider redirects back to, e.g.
// /auth/coverstar/callback.
func (c ProviderConfig) CallbackPath() string {
	return c.RequestPath() + "/callback"
}

// ProfileEnabled reports whether identity info comes from the profile API.
func (c ProviderConfig) ProfileEnabled() bool {
	return c.ProfileBaseURL != ""
}

func resolveAgainst(site, ref string) string {
	base, err := url.Parse(site)
	if err != nil {
		return site + ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return site + ref
	}
	return base.ResolveReference(r).String()
}

// ConfigOption configures LoadConfig.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	sources []func(*koanf.Koanf) error
	fields  []func(*ProviderConfig)
}

// WithConfigFile layers a YAML file over the defaults.
func WithConfigFile(path string) ConfigOption {
	return func(b *configBuilder) {
		b.sources = append(b.sources, func(k *koanf.Koanf) error {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return errors.WrapPrefix(err, "coverstar: loading config file '"+path+"'", 0).
					WithCode(codes.FailedPrecondition)
			}
			return nil
		})
	}
}

// WithConfigSearch looks for coverstar.yaml in dir or any parent and layers it
// over the defaults when found.
func WithConfigSearch(dir string) ConfigOption {
	return func(b *configBuilder) {
		if path := config.SearchForConfig(ConfigFile, dir); path != "" {
			WithConfigFile(path)(b)
		}
	}
}

// WithEnv layers environment variables with the given prefix, for example
// COVERSTAR__CLIENT_OPTIONS__SITE for prefix "COVERSTAR__".
func WithEnv(prefix string) ConfigOption {
	return func(b *configBuilder) {
		b.sources = append(b.sources, func(k *koanf.Koanf) error {
			if err := k.Load(env.Provider(prefix, ".", config.EnvTransformer(prefix)), nil); err != nil {
				return errors.WrapPrefix(err, "coverstar: loading env config", 0).
					WithCode(codes.FailedPrecondition)
			}
			return nil
		})
	}
}

// WithOverrides layers caller supplied options. Keys may be nested maps or
// dotted paths; each leaf overrides only its own key, so
// {"client_options": {"site": "..."}} keeps the default endpoint paths.
func WithOverrides(overrides map[string]interface{}) ConfigOption {
	flat := map[string]interface{}{}
	flattenInto(flat, "", overrides)
	return func(b *configBuilder) {
		b.sources = append(b.sources, func(k *koanf.Koanf) error {
			return k.Load(confmap.Provider(flat, "."), nil)
		})
	}
}

func flattenInto(dst map[string]interface{}, prefix string, src map[string]interface{}) {
	for key, v := range src {
		if prefix != "" {
			key = prefix + "." + key
		}
		switch v := v.(type) {
		case map[string]interface{}:
			flattenInto(dst, key, v)
		case map[string]string:
			for sk, sv := range v {
				dst[key+"."+sk] = sv
			}
		default:
			dst[key] = v
		}
	}
}

// WithName overrides the strategy name.
func WithName(name string) ConfigOption {
	return withField(func(c *ProviderConfig) { c.Name = name })
}

// WithSite overrides the authorization server base URL.
func WithSite(site string) ConfigOption {
	return withField(func(c *ProviderConfig) { c.ClientOptions.Site = site })
}

// WithAuthorizeURL overrides the authorization endpoint.
func WithAuthorizeURL(u string) ConfigOption {
	return withField(func(c *ProviderConfig) { c.ClientOptions.AuthorizeURL = u })
}

// WithTokenURL overrides the token endpoint.
func WithTokenURL(u string) ConfigOption {
	return withField(func(c *ProviderConfig) { c.ClientOptions.TokenURL = u })
}

// WithScope overrides the space delimited scope string.
func WithScope(scope string) ConfigOption {
	return withField(func(c *ProviderConfig) { c.Scope = scope })
}

// WithProfileAPI enables profile based identity info using the given API
// base URL, or DefaultProfileBaseURL when empty.
func WithProfileAPI(baseURL string) ConfigOption {
	if baseURL == "" {
		baseURL = DefaultProfileBaseURL
	}
	return withField(func(c *ProviderConfig) { c.ProfileBaseURL = baseURL })
}

// WithRedirectURI pins the redirect URI sent to the provider.
func WithRedirectURI(uri string) ConfigOption {
	return withField(func(c *ProviderConfig) { c.RedirectURI = uri })
}

func withField(f func(*ProviderConfig)) ConfigOption {
	return func(b *configBuilder) {
		b.fields = append(b.fields, f)
	}
}

// LoadConfig resolves the provider configuration. Sources apply in order of
// increasing precedence:
//
//  1. provider defaults
//  2. files, environment and overrides, in the order their options are given
//  3. field options such as WithSite, in the order given
//
// Unknown keys are logged as warnings with suggestions for similar keys.
func LoadConfig(ctx context.Context, opts ...ConfigOption) (ProviderConfig, error) {
	b := &configBuilder{}
	for _, opt := range opts {
		opt(b)
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(configKeys.Defaults(), "."), nil); err != nil {
		return ProviderConfig{}, errors.WrapPrefix(err, "coverstar: loading defaults", 0)
	}
	for _, load := range b.sources {
		if err := load(k); err != nil {
			return ProviderConfig{}, err
		}
	}

	for _, w := range config.Validate(k, configKeys) {
		logging.Warnw(ctx, "coverstar: config warning", "key", w.Key, "warning", w.String())
	}

	var cfg ProviderConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return ProviderConfig{}, errors.WrapPrefix(err, "coverstar: invalid config", 0).
			WithCode(codes.InvalidArgument)
	}
	for _, f := range b.fields {
		f(&cfg)
	}
	return cfg, nil
}
