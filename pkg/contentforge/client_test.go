package contentforge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kashif-saeed1122/contentforge-go/internal/session"
	internalTypes "github.com/kashif-saeed1122/contentforge-go/internal/types"
)

// MockTransport is a mock implementation of the Transport interface
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Do(ctx context.Context, method, path string, query url.Values, body, result interface{}) error {
	args := m.Called(ctx, method, path, query, body, result)

	// If mock provides result data, unmarshal it
	if args.Get(0) != nil {
		resultJSON := args.Get(0).(string)
		if result != nil {
			if err := json.Unmarshal([]byte(resultJSON), result); err != nil {
				return err
			}
		}
	}

	return args.Error(1)
}

func (m *MockTransport) RefreshSession(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// newTestClient builds a client around a mock transport
func newTestClient(transport Transport) *Client {
	c := &Client{
		baseURL:   "http://api.test",
		transport: transport,
		store:     session.New(),
		cache:     newQueryCache(),
		staleTime: time.Minute,
		options:   &ClientOptions{},
	}
	c.initServices(nil)
	return c
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(nil)

	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
	assert.NotNil(t, client.httpClient.Jar, "a cookie jar is mandatory for the refresh credential")
	require.NotNil(t, client.options.RetryConfig)
	assert.Equal(t, 1, client.options.RetryConfig.MaxRetries)
	assert.NotNil(t, client.Auth)
	assert.NotNil(t, client.Articles)
	assert.NotNil(t, client.Campaigns)
	assert.NotNil(t, client.Credits)
	assert.NotNil(t, client.APIKeys)
	assert.NotNil(t, client.Integrations)
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := ConfigFromEnv()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestConfigFromEnv_Override(t *testing.T) {
	t.Setenv("CONTENTFORGE_API_URL", "https://api.example.com")
	t.Setenv("CONTENTFORGE_TIMEOUT", "5s")

	cfg, err := ConfigFromEnv()

	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

// Login followed by an authenticated list call, end to end over HTTP.
func TestClient_LoginThenAuthenticatedRequest(t *testing.T) {
	var articlesAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var creds map[string]string
			json.NewDecoder(r.Body).Decode(&creds)
			require.Equal(t, "a@b.com", creds["email"])
			require.Equal(t, "secret1", creds["password"])
			http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: "opaque", HttpOnly: true, Path: "/"})
			w.Write([]byte(`{"user":{"id":"user-1","email":"a@b.com","username":"alice"},"access_token":"tok1"}`))
		case "/articles":
			articlesAuth = r.Header.Get("Authorization")
			w.Write([]byte(`[{"id":"a-1","topic":"go","category":"Tech","status":"completed","scheduled_at":null,"created_at":"2026-08-01T10:00:00Z"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client, err := NewClient(&ClientOptions{BaseURL: server.URL})
	require.NoError(t, err)

	ctx := context.Background()

	sess, err := client.Auth.Login(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
	assert.True(t, sess.Authenticated)
	assert.Equal(t, "tok1", sess.AccessToken)
	assert.Equal(t, "alice", sess.User.Username)

	articles, err := client.Articles.List(ctx, 50)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "a-1", articles[0].ID)
	assert.Equal(t, "Bearer tok1", articlesAuth)
}

// A 401 mid-session is recovered transparently and the store ends up holding
// the refreshed token.
func TestClient_TransparentRefreshMidSession(t *testing.T) {
	var refreshCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: "opaque", HttpOnly: true, Path: "/"})
			w.Write([]byte(`{"user":{"id":"user-1","email":"a@b.com","username":"alice"},"access_token":"tok1"}`))
		case "/auth/refresh":
			atomic.AddInt32(&refreshCalls, 1)
			if _, err := r.Cookie("refresh_token"); err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"user":{"id":"user-1","email":"a@b.com","username":"alice"},"access_token":"tok2"}`))
		case "/articles/123":
			if r.Header.Get("Authorization") != "Bearer tok2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"id":"123","topic":"go","category":"Tech","status":"completed","scheduled_at":null,"created_at":"2026-08-01T10:00:00Z"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client, err := NewClient(&ClientOptions{BaseURL: server.URL})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = client.Auth.Login(ctx, "a@b.com", "secret1")
	require.NoError(t, err)

	article, err := client.Articles.Get(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, "123", article.ID)

	assert.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, "tok2", client.Session().AccessToken)
}

// A default-configured client retries a transient upstream failure once
// rather than surfacing it to the caller.
func TestClient_DefaultRetriesTransientFailureOnce(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"id":"a-1","topic":"go","category":"Tech","status":"completed","scheduled_at":null}]`))
	}))
	defer server.Close()

	client, err := NewClient(&ClientOptions{BaseURL: server.URL})
	require.NoError(t, err)

	articles, err := client.Articles.List(context.Background(), 50)

	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.EqualValues(t, 2, atomic.LoadInt32(&requests), "the transient 502 was retried, not surfaced")
}

// A failed silent restore marks the session logged out so later restores
// short-circuit without network traffic.
func TestClient_FailedRestoreDoesNotRepeat(t *testing.T) {
	var refreshCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			atomic.AddInt32(&refreshCalls, 1)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, err := NewClient(&ClientOptions{BaseURL: server.URL})
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, client.Auth.RestoreSession(ctx), "a failed restore is not a user-visible error")
	assert.False(t, client.Session().Authenticated)
	assert.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls))

	// Remount: local state already shows logged out, so no network call.
	require.NoError(t, client.Auth.RestoreSession(ctx))
	require.NoError(t, client.Auth.RestoreSession(ctx))
	assert.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls), "restore must not hammer the refresh endpoint")
}

func TestClient_SuccessfulRestorePopulatesSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			w.Write([]byte(`{"user":{"id":"user-1","email":"a@b.com","username":"alice"},"access_token":"tok1"}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, err := NewClient(&ClientOptions{BaseURL: server.URL})
	require.NoError(t, err)

	require.NoError(t, client.Auth.RestoreSession(context.Background()))

	sess := client.Session()
	assert.True(t, sess.Authenticated)
	assert.Equal(t, "tok1", sess.AccessToken)
	assert.Equal(t, "alice", sess.User.Username)
}

func TestAuth_LogoutClearsSessionAndCache(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)
	client.store.SetAuth(clientTestUser(), "tok1")

	mockTransport.On("Do", mock.Anything, http.MethodGet, "/campaigns", mock.Anything, mock.Anything, mock.Anything).
		Return(`[{"id":"c-1","status":"active"}]`, nil).Once()

	_, err := client.Campaigns.List(context.Background())
	require.NoError(t, err)

	client.Auth.Logout()
	assert.False(t, client.Session().Authenticated)

	// Cache was dropped with the session: the next list refetches.
	mockTransport.On("Do", mock.Anything, http.MethodGet, "/campaigns", mock.Anything, mock.Anything, mock.Anything).
		Return(`[]`, nil).Once()

	campaigns, err := client.Campaigns.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, campaigns)
	mockTransport.AssertExpectations(t)

	// Idempotent.
	client.Auth.Logout()
	assert.False(t, client.Session().Authenticated)
}

func TestAuth_UpdatesNotifiesSubscribers(t *testing.T) {
	client := newTestClient(new(MockTransport))

	updates, cancel := client.Auth.Updates()
	defer cancel()

	client.store.SetAuth(clientTestUser(), "tok1")

	select {
	case sess := <-updates:
		assert.True(t, sess.Authenticated)
		assert.Equal(t, "tok1", sess.AccessToken)
	case <-time.After(time.Second):
		t.Fatal("expected a session update")
	}
}

func clientTestUser() *internalTypes.User {
	return &internalTypes.User{ID: "user-1", Email: "a@b.com", Username: "alice"}
}
