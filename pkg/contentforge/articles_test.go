package contentforge

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestArticles_List(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	mockTransport.On("Do", mock.Anything, http.MethodGet, "/articles",
		url.Values{"limit": []string{"50"}}, nil, mock.Anything).
		Return(`[
			{"id":"a-1","topic":"go generics","category":"Tech","status":"completed","scheduled_at":null},
			{"id":"a-2","topic":"sqlite wal","category":"Tech","status":"processing","scheduled_at":null}
		]`, nil).Once()

	articles, err := client.Articles.List(context.Background(), 0)

	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "a-1", articles[0].ID)
	assert.Equal(t, ArticleStatusProcessing, articles[1].Status)
	mockTransport.AssertExpectations(t)
}

func TestArticles_ListServedFromCacheWhileFresh(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	mockTransport.On("Do", mock.Anything, http.MethodGet, "/articles", mock.Anything, nil, mock.Anything).
		Return(`[{"id":"a-1","status":"completed","scheduled_at":null}]`, nil).Once()

	_, err := client.Articles.List(context.Background(), 50)
	require.NoError(t, err)
	_, err = client.Articles.List(context.Background(), 50)
	require.NoError(t, err)

	mockTransport.AssertNumberOfCalls(t, "Do", 1)
}

func TestArticles_ListDifferentLimitsAreDifferentQueries(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	mockTransport.On("Do", mock.Anything, http.MethodGet, "/articles",
		url.Values{"limit": []string{"10"}}, nil, mock.Anything).
		Return(`[]`, nil).Once()
	mockTransport.On("Do", mock.Anything, http.MethodGet, "/articles",
		url.Values{"limit": []string{"50"}}, nil, mock.Anything).
		Return(`[]`, nil).Once()

	_, err := client.Articles.List(context.Background(), 10)
	require.NoError(t, err)
	_, err = client.Articles.List(context.Background(), 50)
	require.NoError(t, err)

	mockTransport.AssertExpectations(t)
}

func TestArticles_Get(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	mockTransport.On("Do", mock.Anything, http.MethodGet, "/articles/a-1", mock.Anything, nil, mock.Anything).
		Return(`{
			"id":"a-1","topic":"go generics","category":"Tech","status":"completed","scheduled_at":null,
			"content":"body",
			"sources":[{"id":"s-1","url":"https://example.com","title":"ref"}],
			"brief":{"keywords":["go"],"outline":["intro"]}
		}`, nil).Once()

	article, err := client.Articles.Get(context.Background(), "a-1")

	require.NoError(t, err)
	assert.Equal(t, "body", article.Content)
	require.Len(t, article.Sources, 1)
	assert.Equal(t, "https://example.com", article.Sources[0].URL)
	require.NotNil(t, article.Brief)
	assert.Equal(t, []string{"go"}, article.Brief.Keywords)
}

func TestArticles_GetNotFound(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	mockTransport.On("Do", mock.Anything, http.MethodGet, "/articles/missing", mock.Anything, nil, mock.Anything).
		Return(nil, ErrNotFound).Once()

	_, err := client.Articles.Get(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestArticles_UpdateContentInvalidatesCaches(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	mockTransport.On("Do", mock.Anything, http.MethodGet, "/articles/a-1", mock.Anything, nil, mock.Anything).
		Return(`{"id":"a-1","status":"completed","scheduled_at":null,"content":"old"}`, nil).Once()
	mockTransport.On("Do", mock.Anything, http.MethodPatch, "/articles/a-1", mock.Anything,
		map[string]string{"content": "new"}, mock.Anything).
		Return(`{"id":"a-1","status":"completed","scheduled_at":null,"content":"new"}`, nil).Once()
	mockTransport.On("Do", mock.Anything, http.MethodGet, "/articles/a-1", mock.Anything, nil, mock.Anything).
		Return(`{"id":"a-1","status":"completed","scheduled_at":null,"content":"new"}`, nil).Once()

	_, err := client.Articles.Get(context.Background(), "a-1")
	require.NoError(t, err)

	updated, err := client.Articles.UpdateContent(context.Background(), "a-1", "new")
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Content)

	// The mutation dropped the detail cache: this read goes to the server.
	article, err := client.Articles.Get(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, "new", article.Content)
	mockTransport.AssertExpectations(t)
}

func TestArticles_GenerateDefaultsAndValidation(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	mockTransport.On("Do", mock.Anything, http.MethodGet, "/articles", mock.Anything, nil, mock.Anything).
		Return(`[]`, nil)
	mockTransport.On("Do", mock.Anything, http.MethodPost, "/generate", mock.Anything,
		mock.MatchedBy(func(body interface{}) bool {
			params, ok := body.(*GenerateParams)
			return ok && params.Timezone == "UTC" && params.QueryExplanation == "write about go"
		}), nil).
		Return(nil, nil).Once()

	_, err := client.Articles.List(context.Background(), 50)
	require.NoError(t, err)

	err = client.Articles.Generate(context.Background(), &GenerateParams{
		QueryExplanation: "write about go",
		Category:         "Tech",
	})
	require.NoError(t, err)

	// List caches were invalidated, so this refetches.
	_, err = client.Articles.List(context.Background(), 50)
	require.NoError(t, err)
	mockTransport.AssertNumberOfCalls(t, "Do", 3)
}

func TestArticles_GenerateRequiresExplanation(t *testing.T) {
	client := newTestClient(new(MockTransport))

	err := client.Articles.Generate(context.Background(), &GenerateParams{Category: "Tech"})
	require.Error(t, err)

	err = client.Articles.Generate(context.Background(), nil)
	require.Error(t, err)
}

func TestArticles_WatchRequiresID(t *testing.T) {
	client := newTestClient(new(MockTransport))

	_, err := client.Articles.Watch(context.Background(), "", 0)
	assert.Error(t, err)
}
