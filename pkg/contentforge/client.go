// Package contentforge is a Go client for the ContentForge content-generation
// API: articles, recurring campaigns, the credit ledger, API keys and webhook
// integrations, with a transparent access-token refresh cycle underneath.
package contentforge

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kashif-saeed1122/contentforge-go/internal/auth"
	"github.com/kashif-saeed1122/contentforge-go/internal/session"
	"github.com/kashif-saeed1122/contentforge-go/internal/transport"
	internalTypes "github.com/kashif-saeed1122/contentforge-go/internal/types"
)

const (
	// DefaultBaseURL is the local-development API base URL
	DefaultBaseURL = internalTypes.DefaultBaseURL

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = internalTypes.DefaultTimeout

	// DefaultStaleTime is how long a cached list/detail value is served
	// without refetching
	DefaultStaleTime = time.Minute

	// DefaultArticlePollInterval is the poll cadence for a single
	// in-flight article
	DefaultArticlePollInterval = 3 * time.Second

	// DefaultListPollInterval is the poll cadence for dashboard lists
	DefaultListPollInterval = 15 * time.Second
)

// Client is the ContentForge API client
type Client struct {
	// Service interfaces
	Auth         AuthService
	Articles     ArticleService
	Campaigns    CampaignService
	Credits      CreditService
	APIKeys      APIKeyService
	Integrations IntegrationService

	// Internal fields
	baseURL    string
	httpClient *http.Client
	transport  Transport
	store      *session.Store
	cache      *queryCache
	staleTime  time.Duration
	options    *ClientOptions
}

// ClientOptions configures the client
type ClientOptions struct {
	// BaseURL overrides the default API base URL
	BaseURL string

	// HTTPClient allows using a custom HTTP client. It must carry a cookie
	// jar, or one is installed, so the refresh cookie survives between
	// calls.
	HTTPClient *http.Client

	// Timeout sets the HTTP client timeout
	Timeout time.Duration

	// StaleTime is how long cached query results are served without
	// refetching. Zero means DefaultStaleTime; negative disables caching.
	StaleTime time.Duration

	// Logger for debug logging
	Logger Logger

	// RetryConfig configures transient-failure retry behavior. Nil means
	// one retry; a config with MaxRetries zero disables retries.
	RetryConfig *internalTypes.RetryConfig

	// RateLimiter for rate limiting
	RateLimiter RateLimiter

	// Hooks for observability
	Hooks *internalTypes.Hooks

	// OnSessionExpired fires after a terminal refresh failure has cleared
	// the session: the application's cue to route to its login entry point.
	OnSessionExpired func()

	// SentryDSN enables Sentry error tracking when set
	SentryDSN string

	// SentryOptions allows custom Sentry configuration
	SentryOptions *sentry.ClientOptions
}

// Logger interface for logging
type Logger = internalTypes.Logger

// RateLimiter interface for rate limiting
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// Transport executes authenticated API calls. The 401 refresh-and-retry
// cycle lives behind this interface and nowhere else.
type Transport interface {
	Do(ctx context.Context, method, path string, query url.Values, body, result interface{}) error
	RefreshSession(ctx context.Context) (string, error)
}

// Config is the environment-driven client configuration.
type Config struct {
	APIURL    string        `env:"CONTENTFORGE_API_URL" envDefault:"http://localhost:8000"`
	Timeout   time.Duration `env:"CONTENTFORGE_TIMEOUT" envDefault:"30s"`
	SentryDSN string        `env:"CONTENTFORGE_SENTRY_DSN"`
}

// ConfigFromEnv reads configuration from the environment.
func ConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}
	return &cfg, nil
}

// NewClientFromEnv creates a client configured from the environment.
func NewClientFromEnv() (*Client, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewClient(&ClientOptions{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.Timeout,
		SentryDSN: cfg.SentryDSN,
	})
}

// NewClient creates a new ContentForge client
func NewClient(opts *ClientOptions) (*Client, error) {
	if opts == nil {
		opts = &ClientOptions{}
	}

	// Initialize Sentry if DSN is provided
	if opts.SentryDSN != "" || opts.SentryOptions != nil {
		sentryOpts := sentry.ClientOptions{}
		if opts.SentryOptions != nil {
			sentryOpts = *opts.SentryOptions
		}
		if opts.SentryDSN != "" {
			sentryOpts.Dsn = opts.SentryDSN
		}
		if sentryOpts.Environment == "" {
			sentryOpts.Environment = "production"
		}
		if err := sentry.Init(sentryOpts); err != nil {
			if opts.Logger != nil {
				opts.Logger.Error("Failed to initialize Sentry", "error", err)
			}
		}
	}

	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: DefaultTimeout,
		}
	}
	if opts.Timeout > 0 {
		opts.HTTPClient.Timeout = opts.Timeout
	}

	// The refresh credential arrives as an HttpOnly cookie on login and is
	// presented back on /auth/refresh. A jar is mandatory.
	if opts.HTTPClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create cookie jar")
		}
		opts.HTTPClient.Jar = jar
	}

	// Transient failures are retried once out of the box. Callers that want
	// different behavior pass their own RetryConfig; MaxRetries zero turns
	// retries off.
	if opts.RetryConfig == nil {
		opts.RetryConfig = internalTypes.DefaultRetryConfig()
	}

	staleTime := opts.StaleTime
	if staleTime == 0 {
		staleTime = DefaultStaleTime
	}

	store := session.New()
	authSvc := auth.NewService(opts.BaseURL, opts.HTTPClient, opts.Logger)

	c := &Client{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		store:      store,
		cache:      newQueryCache(),
		staleTime:  staleTime,
		options:    opts,
	}

	c.transport = transport.NewREST(&transport.Options{
		BaseURL:    opts.BaseURL,
		HTTPClient: opts.HTTPClient,
		Headers: map[string]string{
			"X-Client-Instance": uuid.New().String(),
		},
		RetryConfig: opts.RetryConfig,
		Logger:      opts.Logger,
		Hooks:       opts.Hooks,
		Store:       store,
		Refresher:   authSvc,
		OnSessionExpired: func() {
			c.cache.invalidateAll()
			if opts.OnSessionExpired != nil {
				opts.OnSessionExpired()
			}
		},
	})

	c.initServices(authSvc)

	return c, nil
}

// initServices initializes all service implementations
func (c *Client) initServices(raw *auth.Service) {
	c.Auth = &authService{client: c, raw: raw}
	c.Articles = &articleService{client: c}
	c.Campaigns = &campaignService{client: c}
	c.Credits = &creditService{client: c}
	c.APIKeys = &apiKeyService{client: c}
	c.Integrations = &integrationService{client: c}
}

// do executes one API call through the transport, with rate limiting and
// Sentry capture around it.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result interface{}) error {
	if c.options.RateLimiter != nil {
		if err := c.options.RateLimiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "rate limiter")
		}
	}

	err := c.transport.Do(ctx, method, path, query, body, result)
	if err != nil && c.options.SentryDSN != "" {
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("api.method", method)
			scope.SetTag("api.path", path)
			sentry.CaptureException(err)
		})
	}
	return err
}

// Session returns the current session state.
func (c *Client) Session() *Session {
	return sessionFromSnapshot(c.store.Snapshot())
}

// Close flushes any pending Sentry events and performs cleanup
func (c *Client) Close() {
	if c.options.SentryDSN != "" || c.options.SentryOptions != nil {
		sentry.Flush(2 * time.Second)
	}
}

func sessionFromSnapshot(snap session.Snapshot) *Session {
	s := &Session{
		AccessToken:   snap.AccessToken,
		Authenticated: snap.Authenticated,
	}
	if snap.User != nil {
		s.User = &User{
			ID:       snap.User.ID,
			Email:    snap.User.Email,
			Username: snap.User.Username,
			Credits:  snap.User.Credits,
			Plan:     snap.User.Plan,
		}
	}
	return s
}
