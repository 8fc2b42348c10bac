package contentforge

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
)

// integrationService implements the IntegrationService interface
type integrationService struct {
	client *Client
}

const integrationListKey = "integrations"

// List retrieves all integrations.
func (s *integrationService) List(ctx context.Context) ([]*WebhookIntegration, error) {
	return cachedFetch(ctx, s.client, integrationListKey, func(ctx context.Context) ([]*WebhookIntegration, error) {
		var integrations []*WebhookIntegration
		if err := s.client.do(ctx, http.MethodGet, "/integrations", nil, nil, &integrations); err != nil {
			return nil, errors.Wrap(err, "failed to list integrations")
		}
		return integrations, nil
	})
}

// Create creates an integration.
func (s *integrationService) Create(ctx context.Context, params *CreateIntegrationParams) (*WebhookIntegration, error) {
	if params == nil {
		return nil, errors.New("integration params are required")
	}
	if params.WebhookURL == "" {
		return nil, errors.New("webhook URL is required")
	}
	if params.PlatformType == "" {
		params.PlatformType = "custom"
	}

	var integration WebhookIntegration
	if err := s.client.do(ctx, http.MethodPost, "/integrations", nil, params, &integration); err != nil {
		return nil, errors.Wrap(err, "failed to create integration")
	}

	s.client.cache.invalidate(integrationListKey)
	return &integration, nil
}

// Update applies a partial update.
func (s *integrationService) Update(ctx context.Context, integrationID string, params *UpdateIntegrationParams) (*WebhookIntegration, error) {
	if params == nil {
		return nil, errors.New("integration params are required")
	}

	var integration WebhookIntegration
	if err := s.client.do(ctx, http.MethodPatch, "/integrations/"+integrationID, nil, params, &integration); err != nil {
		return nil, errors.Wrapf(err, "failed to update integration %s", integrationID)
	}

	s.client.cache.invalidate(integrationListKey)
	return &integration, nil
}

// Delete removes an integration.
func (s *integrationService) Delete(ctx context.Context, integrationID string) error {
	if err := s.client.do(ctx, http.MethodDelete, "/integrations/"+integrationID, nil, nil, nil); err != nil {
		return errors.Wrapf(err, "failed to delete integration %s", integrationID)
	}

	s.client.cache.invalidate(integrationListKey)
	return nil
}

// Test performs a test delivery against a webhook URL. The URL does not have
// to belong to a saved integration.
func (s *integrationService) Test(ctx context.Context, webhookURL, webhookSecret string) (*IntegrationTestResult, error) {
	if webhookURL == "" {
		return nil, errors.New("webhook URL is required")
	}

	body := map[string]string{"webhook_url": webhookURL}
	if webhookSecret != "" {
		body["webhook_secret"] = webhookSecret
	}

	var result IntegrationTestResult
	if err := s.client.do(ctx, http.MethodPost, "/integrations/test", nil, body, &result); err != nil {
		return nil, errors.Wrap(err, "failed to test webhook")
	}

	s.client.cache.invalidate(integrationListKey)
	return &result, nil
}
