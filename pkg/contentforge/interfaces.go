package contentforge

import (
	"context"
	"time"
)

// AuthService handles the session lifecycle.
type AuthService interface {
	// Login exchanges credentials for a session and stores it
	Login(ctx context.Context, email, password string) (*Session, error)

	// Signup registers a new account and stores its first session
	Signup(ctx context.Context, username, email, password string) (*Session, error)

	// RestoreSession silently re-establishes the session from the refresh
	// cookie at startup. A failure is not an error: it leaves the client
	// unauthenticated, and subsequent calls short-circuit without network
	// traffic until the next successful login.
	RestoreSession(ctx context.Context) error

	// Logout clears the session. Idempotent.
	Logout()

	// Session returns the current session state
	Session() *Session

	// Updates subscribes to session state changes. The cancel func must be
	// called when the consumer goes away.
	Updates() (<-chan *Session, func())
}

// ArticleService handles article operations.
type ArticleService interface {
	// List retrieves article summaries, newest first
	List(ctx context.Context, limit int) ([]*Article, error)

	// Get retrieves a full article including sources and brief
	Get(ctx context.Context, articleID string) (*Article, error)

	// UpdateContent replaces the article body
	UpdateContent(ctx context.Context, articleID, content string) (*Article, error)

	// Generate enqueues a one-off article generation
	Generate(ctx context.Context, params *GenerateParams) error

	// Watch polls the article at the given interval until it reaches a
	// terminal status or is stopped
	Watch(ctx context.Context, articleID string, interval time.Duration) (*ArticleWatch, error)

	// WaitForTerminal polls until the article reaches a terminal status
	WaitForTerminal(ctx context.Context, articleID string, timeout time.Duration) (*Article, error)

	// WatchList polls the article list at the given interval until stopped
	WatchList(ctx context.Context, limit int, interval time.Duration) (*ArticleListWatch, error)
}

// CampaignService handles recurring campaign operations.
type CampaignService interface {
	// List retrieves all campaigns
	List(ctx context.Context) ([]*Campaign, error)

	// Get retrieves a single campaign
	Get(ctx context.Context, campaignID string) (*Campaign, error)

	// Create creates a new campaign
	Create(ctx context.Context, params *CreateCampaignParams) (*Campaign, error)

	// Update applies a partial update
	Update(ctx context.Context, campaignID string, params *UpdateCampaignParams) (*Campaign, error)

	// Pause suspends scheduling for the campaign
	Pause(ctx context.Context, campaignID string) error

	// Resume re-enables scheduling for the campaign
	Resume(ctx context.Context, campaignID string) error

	// Cancel cancels the campaign permanently
	Cancel(ctx context.Context, campaignID string) error

	// Articles retrieves the articles a campaign has generated
	Articles(ctx context.Context, campaignID string) ([]*Article, error)

	// Watch polls the campaign while it is active
	Watch(ctx context.Context, campaignID string, interval time.Duration) (*CampaignWatch, error)
}

// CreditService handles the credit ledger.
type CreditService interface {
	// Balance retrieves the current credit balance
	Balance(ctx context.Context) (*CreditBalance, error)

	// Transactions retrieves recent ledger entries
	Transactions(ctx context.Context, limit int) ([]*CreditTransaction, error)

	// Purchase starts a credit purchase
	Purchase(ctx context.Context) error
}

// APIKeyService handles programmatic access keys.
type APIKeyService interface {
	// List retrieves all keys (prefixes only, never plaintext)
	List(ctx context.Context) ([]*APIKey, error)

	// Create creates a key and returns its one-time plaintext secret
	Create(ctx context.Context, name string) (*APIKeyWithSecret, error)

	// Revoke revokes a key
	Revoke(ctx context.Context, keyID string) error
}

// IntegrationService handles webhook delivery integrations.
type IntegrationService interface {
	// List retrieves all integrations
	List(ctx context.Context) ([]*WebhookIntegration, error)

	// Create creates an integration
	Create(ctx context.Context, params *CreateIntegrationParams) (*WebhookIntegration, error)

	// Update applies a partial update
	Update(ctx context.Context, integrationID string, params *UpdateIntegrationParams) (*WebhookIntegration, error)

	// Delete removes an integration
	Delete(ctx context.Context, integrationID string) error

	// Test performs a test delivery against a webhook URL
	Test(ctx context.Context, webhookURL, webhookSecret string) (*IntegrationTestResult, error)
}
