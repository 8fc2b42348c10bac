package contentforge

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
)

// apiKeyService implements the APIKeyService interface
type apiKeyService struct {
	client *Client
}

const apiKeyListKey = "api-keys"

// List retrieves all keys. Plaintext secrets are never returned here.
func (s *apiKeyService) List(ctx context.Context) ([]*APIKey, error) {
	return cachedFetch(ctx, s.client, apiKeyListKey, func(ctx context.Context) ([]*APIKey, error) {
		var keys []*APIKey
		if err := s.client.do(ctx, http.MethodGet, "/api-keys", nil, nil, &keys); err != nil {
			return nil, errors.Wrap(err, "failed to list API keys")
		}
		return keys, nil
	})
}

// Create creates a key. The returned plaintext secret is shown exactly once;
// the server stores only a hash.
func (s *apiKeyService) Create(ctx context.Context, name string) (*APIKeyWithSecret, error) {
	if name == "" {
		return nil, errors.New("key name is required")
	}

	body := map[string]string{"name": name}

	var key APIKeyWithSecret
	if err := s.client.do(ctx, http.MethodPost, "/api-keys", nil, body, &key); err != nil {
		return nil, errors.Wrap(err, "failed to create API key")
	}

	s.client.cache.invalidate(apiKeyListKey)
	return &key, nil
}

// Revoke revokes a key.
func (s *apiKeyService) Revoke(ctx context.Context, keyID string) error {
	if err := s.client.do(ctx, http.MethodDelete, "/api-keys/"+keyID, nil, nil, nil); err != nil {
		return errors.Wrapf(err, "failed to revoke API key %s", keyID)
	}

	s.client.cache.invalidate(apiKeyListKey)
	return nil
}
