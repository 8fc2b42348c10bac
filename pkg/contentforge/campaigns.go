package contentforge

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// campaignService implements the CampaignService interface
type campaignService struct {
	client *Client
}

const campaignListKey = "campaigns"

func campaignKey(id string) string {
	return "campaign/" + id
}

func campaignArticlesKey(id string) string {
	return "campaign-articles/" + id
}

// List retrieves all campaigns.
func (s *campaignService) List(ctx context.Context) ([]*Campaign, error) {
	return cachedFetch(ctx, s.client, campaignListKey, func(ctx context.Context) ([]*Campaign, error) {
		var campaigns []*Campaign
		if err := s.client.do(ctx, http.MethodGet, "/campaigns", nil, nil, &campaigns); err != nil {
			return nil, errors.Wrap(err, "failed to list campaigns")
		}
		return campaigns, nil
	})
}

// Get retrieves a single campaign.
func (s *campaignService) Get(ctx context.Context, campaignID string) (*Campaign, error) {
	return cachedFetch(ctx, s.client, campaignKey(campaignID), func(ctx context.Context) (*Campaign, error) {
		return s.fetch(ctx, campaignID)
	})
}

func (s *campaignService) fetch(ctx context.Context, campaignID string) (*Campaign, error) {
	var campaign Campaign
	if err := s.client.do(ctx, http.MethodGet, "/campaigns/"+campaignID, nil, nil, &campaign); err != nil {
		return nil, errors.Wrapf(err, "failed to get campaign %s", campaignID)
	}
	return &campaign, nil
}

// Create creates a new campaign.
func (s *campaignService) Create(ctx context.Context, params *CreateCampaignParams) (*Campaign, error) {
	if params == nil {
		return nil, errors.New("campaign params are required")
	}
	if params.Name == "" {
		return nil, errors.New("campaign name is required")
	}

	var campaign Campaign
	if err := s.client.do(ctx, http.MethodPost, "/campaigns", nil, params, &campaign); err != nil {
		return nil, errors.Wrap(err, "failed to create campaign")
	}

	s.client.cache.invalidate(campaignListKey)
	return &campaign, nil
}

// Update applies a partial update.
func (s *campaignService) Update(ctx context.Context, campaignID string, params *UpdateCampaignParams) (*Campaign, error) {
	if params == nil {
		return nil, errors.New("campaign params are required")
	}

	var campaign Campaign
	if err := s.client.do(ctx, http.MethodPatch, "/campaigns/"+campaignID, nil, params, &campaign); err != nil {
		return nil, errors.Wrapf(err, "failed to update campaign %s", campaignID)
	}

	s.client.cache.invalidate(campaignListKey, campaignKey(campaignID))
	return &campaign, nil
}

// Pause suspends scheduling for the campaign.
func (s *campaignService) Pause(ctx context.Context, campaignID string) error {
	if err := s.client.do(ctx, http.MethodPost, "/campaigns/"+campaignID+"/pause", nil, nil, nil); err != nil {
		return errors.Wrapf(err, "failed to pause campaign %s", campaignID)
	}

	s.client.cache.invalidate(campaignListKey, campaignKey(campaignID))
	return nil
}

// Resume re-enables scheduling for the campaign.
func (s *campaignService) Resume(ctx context.Context, campaignID string) error {
	if err := s.client.do(ctx, http.MethodPost, "/campaigns/"+campaignID+"/resume", nil, nil, nil); err != nil {
		return errors.Wrapf(err, "failed to resume campaign %s", campaignID)
	}

	s.client.cache.invalidate(campaignListKey, campaignKey(campaignID))
	return nil
}

// Cancel cancels the campaign permanently.
func (s *campaignService) Cancel(ctx context.Context, campaignID string) error {
	if err := s.client.do(ctx, http.MethodDelete, "/campaigns/"+campaignID, nil, nil, nil); err != nil {
		return errors.Wrapf(err, "failed to cancel campaign %s", campaignID)
	}

	s.client.cache.invalidate(campaignListKey, campaignKey(campaignID), campaignArticlesKey(campaignID))
	return nil
}

// Articles retrieves the articles a campaign has generated.
func (s *campaignService) Articles(ctx context.Context, campaignID string) ([]*Article, error) {
	return cachedFetch(ctx, s.client, campaignArticlesKey(campaignID), func(ctx context.Context) ([]*Article, error) {
		var articles []*Article
		if err := s.client.do(ctx, http.MethodGet, "/campaigns/"+campaignID+"/articles", nil, nil, &articles); err != nil {
			return nil, errors.Wrapf(err, "failed to list campaign %s articles", campaignID)
		}
		return articles, nil
	})
}

// Watch polls the campaign while it is active.
func (s *campaignService) Watch(ctx context.Context, campaignID string, interval time.Duration) (*CampaignWatch, error) {
	if campaignID == "" {
		return nil, errors.New("campaign id is required")
	}
	if interval <= 0 {
		interval = DefaultListPollInterval
	}
	return newCampaignWatch(ctx, s, campaignID, interval), nil
}
