package contentforge

import (
	"time"
)

// ArticleStatus is the server-authoritative article lifecycle state.
type ArticleStatus string

const (
	ArticleStatusProcessing ArticleStatus = "processing"
	ArticleStatusCompleted  ArticleStatus = "completed"
	ArticleStatusFailed     ArticleStatus = "failed"
	ArticleStatusPosted     ArticleStatus = "posted"
)

// CampaignStatus is the campaign lifecycle state.
type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusCancelled CampaignStatus = "cancelled"
)

// User is the authenticated account identity.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Credits  int    `json:"credits,omitempty"`
	Plan     string `json:"plan,omitempty"`
}

// Session is the current authentication state as observed by callers.
type Session struct {
	User          *User  `json:"user"`
	AccessToken   string `json:"access_token"`
	Authenticated bool   `json:"authenticated"`
}

// Article is a generated (or in-progress) piece of content.
type Article struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id,omitempty"`
	Topic        string        `json:"topic"`
	RawQuery     string        `json:"raw_query,omitempty"`
	Category     string        `json:"category"`
	Status       ArticleStatus `json:"status"`
	ScheduledAt  *time.Time    `json:"scheduled_at"`
	PostedAt     *time.Time    `json:"posted_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	Timezone     string        `json:"timezone,omitempty"`
	TargetLength int           `json:"target_length,omitempty"`
	SourceCount  int           `json:"source_count,omitempty"`
	Content      string        `json:"content,omitempty"`
	Sources      []*Source     `json:"sources,omitempty"`
	Brief        *SEOBrief     `json:"brief,omitempty"`
	CampaignID   string        `json:"campaign_id,omitempty"`
	IsRecurring  bool          `json:"is_recurring,omitempty"`
	TokensUsed   int           `json:"tokens_used,omitempty"`
}

// IsTerminal reports whether the article can no longer transition on its own.
// Terminal articles must not be polled.
func (a *Article) IsTerminal() bool {
	switch a.Status {
	case ArticleStatusCompleted, ArticleStatusFailed, ArticleStatusPosted:
		return true
	}
	return false
}

// IsScheduled reports whether the article should display as scheduled. This
// is derived from wall-clock time on every call, never from the raw status
// field, and is deliberately not cached: it stops being true the moment now
// passes the scheduled timestamp.
func (a *Article) IsScheduled(now time.Time) bool {
	return a.ScheduledAt != nil && a.ScheduledAt.After(now)
}

// Source is a research source the article was generated from.
type Source struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	FullContent  string `json:"full_content,omitempty"`
	SourceOrigin string `json:"source_origin,omitempty"`
}

// SEOBrief is the research brief attached to an article.
type SEOBrief struct {
	ID        string   `json:"id,omitempty"`
	ArticleID string   `json:"article_id,omitempty"`
	Keywords  []string `json:"keywords"`
	Outline   []string `json:"outline"`
	Strategy  string   `json:"strategy,omitempty"`
}

// Campaign is a recurring content-generation job definition.
type Campaign struct {
	ID                string         `json:"id"`
	UserID            string         `json:"user_id"`
	Name              string         `json:"name"`
	Description       string         `json:"description,omitempty"`
	Topic             string         `json:"topic"`
	Category          string         `json:"category"`
	ArticlesPerDay    int            `json:"articles_per_day"`
	PostingTimes      []string       `json:"posting_times"`
	StartDate         string         `json:"start_date"`
	EndDate           *string        `json:"end_date"`
	TotalArticles     *int           `json:"total_articles"`
	TargetLength      int            `json:"target_length"`
	SourceCount       int            `json:"source_count"`
	Status            CampaignStatus `json:"status"`
	ArticlesGenerated int            `json:"articles_generated"`
	ArticlesPosted    int            `json:"articles_posted"`
	CreditsUsed       int            `json:"credits_used"`
	WebhookURL        string         `json:"webhook_url,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	LastRunAt         *time.Time     `json:"last_run_at"`
	NextRunAt         *time.Time     `json:"next_run_at"`
}

// IsActive reports whether the campaign still has pending runs.
func (c *Campaign) IsActive() bool {
	return c.Status == CampaignStatusActive
}

// CreateCampaignParams creates a new campaign.
type CreateCampaignParams struct {
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Topic          string   `json:"topic"`
	Category       string   `json:"category"`
	ArticlesPerDay int      `json:"articles_per_day"`
	PostingTimes   []string `json:"posting_times"`
	StartDate      string   `json:"start_date"`
	EndDate        *string  `json:"end_date,omitempty"`
	TotalArticles  *int     `json:"total_articles,omitempty"`
	TargetLength   int      `json:"target_length"`
	SourceCount    int      `json:"source_count"`
	WebhookURL     string   `json:"webhook_url,omitempty"`
}

// UpdateCampaignParams carries a partial campaign update. Nil fields are
// left untouched.
type UpdateCampaignParams struct {
	Name           *string   `json:"name,omitempty"`
	Description    *string   `json:"description,omitempty"`
	ArticlesPerDay *int      `json:"articles_per_day,omitempty"`
	PostingTimes   *[]string `json:"posting_times,omitempty"`
	EndDate        *string   `json:"end_date,omitempty"`
	TotalArticles  *int      `json:"total_articles,omitempty"`
	WebhookURL     *string   `json:"webhook_url,omitempty"`
}

// GenerateParams enqueues a one-off article generation.
type GenerateParams struct {
	Username         string `json:"username"`
	QueryExplanation string `json:"query_explanation"`
	Category         string `json:"category"`
	TargetLength     int    `json:"target_length"`
	SourceCount      int    `json:"source_count"`
	Timezone         string `json:"timezone"`
}

// CreditBalance is the account's current credit position.
type CreditBalance struct {
	Balance   int `json:"balance"`
	TotalUsed int `json:"total_used,omitempty"`
}

// CreditTransaction is one entry in the credit ledger.
type CreditTransaction struct {
	ID             string    `json:"id"`
	Amount         int       `json:"amount"`
	BalanceAfter   int       `json:"balance_after"`
	Type           string    `json:"type"`
	ReferenceType  string    `json:"reference_type,omitempty"`
	ReferenceID    string    `json:"reference_id,omitempty"`
	Description    string    `json:"description,omitempty"`
	TokensConsumed *int      `json:"tokens_consumed"`
	CreatedAt      time.Time `json:"created_at"`
}

// APIKey is a programmatic access credential. The plaintext key is only
// returned once, at creation, via APIKeyWithSecret.
type APIKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	RevokedAt  *time.Time `json:"revoked_at"`
}

// APIKeyWithSecret is returned by key creation and includes the one-time
// plaintext key.
type APIKeyWithSecret struct {
	APIKey
	Key string `json:"key"`
}

// WebhookIntegration is a configured webhook delivery target.
type WebhookIntegration struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	WebhookURL     string     `json:"webhook_url"`
	PlatformType   string     `json:"platform_type"`
	IsActive       bool       `json:"is_active"`
	LastTestAt     *time.Time `json:"last_test_at"`
	LastTestStatus string     `json:"last_test_status,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// CreateIntegrationParams creates a webhook integration.
type CreateIntegrationParams struct {
	Name          string `json:"name"`
	WebhookURL    string `json:"webhook_url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
	PlatformType  string `json:"platform_type"`
}

// UpdateIntegrationParams carries a partial integration update.
type UpdateIntegrationParams struct {
	Name          *string `json:"name,omitempty"`
	WebhookURL    *string `json:"webhook_url,omitempty"`
	WebhookSecret *string `json:"webhook_secret,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

// IntegrationTestResult reports the outcome of a webhook test delivery.
type IntegrationTestResult struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message,omitempty"`
}

// ArticleStats is the dashboard aggregation over an article list. Scheduled
// is derived per article from wall-clock time, not from the status field.
type ArticleStats struct {
	Total      int `json:"total"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Scheduled  int `json:"scheduled"`
}

// ComputeArticleStats aggregates dashboard counters from an article list.
func ComputeArticleStats(articles []*Article, now time.Time) ArticleStats {
	stats := ArticleStats{Total: len(articles)}
	for _, a := range articles {
		switch {
		case a.IsScheduled(now):
			stats.Scheduled++
		case a.Status == ArticleStatusProcessing:
			stats.Processing++
		case a.Status == ArticleStatusCompleted || a.Status == ArticleStatusPosted:
			stats.Completed++
		}
	}
	return stats
}
