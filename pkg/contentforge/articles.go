package contentforge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// articleService implements the ArticleService interface
type articleService struct {
	client *Client
}

func articleListKey(limit int) string {
	return fmt.Sprintf("articles?limit=%d", limit)
}

func articleKey(id string) string {
	return "article/" + id
}

func listQuery(limit int) url.Values {
	return url.Values{"limit": []string{strconv.Itoa(limit)}}
}

// List retrieves article summaries, newest first.
func (s *articleService) List(ctx context.Context, limit int) ([]*Article, error) {
	if limit <= 0 {
		limit = 50
	}

	return cachedFetch(ctx, s.client, articleListKey(limit), func(ctx context.Context) ([]*Article, error) {
		var articles []*Article
		if err := s.client.do(ctx, http.MethodGet, "/articles", listQuery(limit), nil, &articles); err != nil {
			return nil, errors.Wrap(err, "failed to list articles")
		}
		return articles, nil
	})
}

// Get retrieves a full article including sources and brief.
func (s *articleService) Get(ctx context.Context, articleID string) (*Article, error) {
	return cachedFetch(ctx, s.client, articleKey(articleID), func(ctx context.Context) (*Article, error) {
		return s.fetch(ctx, articleID)
	})
}

// fetch bypasses the staleness check; the watcher uses it directly so every
// poll cycle observes the server's latest state.
func (s *articleService) fetch(ctx context.Context, articleID string) (*Article, error) {
	var article Article
	if err := s.client.do(ctx, http.MethodGet, "/articles/"+articleID, nil, nil, &article); err != nil {
		return nil, errors.Wrapf(err, "failed to get article %s", articleID)
	}
	return &article, nil
}

// UpdateContent replaces the article body and invalidates its detail cache.
func (s *articleService) UpdateContent(ctx context.Context, articleID, content string) (*Article, error) {
	body := map[string]string{"content": content}

	var article Article
	if err := s.client.do(ctx, http.MethodPatch, "/articles/"+articleID, nil, body, &article); err != nil {
		return nil, errors.Wrapf(err, "failed to update article %s", articleID)
	}

	s.client.cache.invalidate(articleKey(articleID))
	s.client.cache.invalidatePrefix("articles?")

	return &article, nil
}

// Generate enqueues a one-off article generation and invalidates the list
// caches so the new processing article shows up on the next read.
func (s *articleService) Generate(ctx context.Context, params *GenerateParams) error {
	if params == nil {
		return errors.New("generate params are required")
	}
	if params.QueryExplanation == "" {
		return errors.New("query explanation is required")
	}
	if params.Timezone == "" {
		params.Timezone = "UTC"
	}

	if err := s.client.do(ctx, http.MethodPost, "/generate", nil, params, nil); err != nil {
		return errors.Wrap(err, "failed to enqueue generation")
	}

	s.client.cache.invalidatePrefix("articles?")
	return nil
}

// Watch polls the article until it reaches a terminal status.
func (s *articleService) Watch(ctx context.Context, articleID string, interval time.Duration) (*ArticleWatch, error) {
	if articleID == "" {
		return nil, errors.New("article id is required")
	}
	if interval <= 0 {
		interval = DefaultArticlePollInterval
	}
	return newArticleWatch(ctx, s, articleID, interval), nil
}

// WaitForTerminal polls until the article reaches a terminal status or the
// timeout elapses.
func (s *articleService) WaitForTerminal(ctx context.Context, articleID string, timeout time.Duration) (*Article, error) {
	watch, err := s.Watch(ctx, articleID, DefaultArticlePollInterval)
	if err != nil {
		return nil, err
	}
	defer watch.Stop()

	return watch.Wait(ctx, timeout)
}

// WatchList polls the article list until stopped. List views poll for as
// long as they are mounted; the caller's Stop is the unmount.
func (s *articleService) WatchList(ctx context.Context, limit int, interval time.Duration) (*ArticleListWatch, error) {
	if limit <= 0 {
		limit = 50
	}
	if interval <= 0 {
		interval = DefaultListPollInterval
	}
	return newArticleListWatch(ctx, s, limit, interval), nil
}
