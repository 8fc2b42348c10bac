// Package transport is the single place bearer-token attachment and the
// 401 refresh-and-retry cycle live. Every authenticated call flows through
// REST.Do; duplicating this logic elsewhere is a correctness hazard.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/kashif-saeed1122/contentforge-go/internal/session"
	"github.com/kashif-saeed1122/contentforge-go/internal/types"
)

const (
	authHeaderKey = "Authorization"
	contentType   = "application/json"
)

// Refresher mints a new session from the browser-held refresh credential.
// Implemented by internal/auth.Service.
type Refresher interface {
	Refresh(ctx context.Context) (*types.Session, error)
}

// Options for the REST transport
type Options struct {
	BaseURL     string
	HTTPClient  *http.Client
	Headers     map[string]string
	RetryConfig *types.RetryConfig
	Logger      types.Logger
	Hooks       *types.Hooks
	Store       *session.Store
	Refresher   Refresher

	// OnSessionExpired fires when a 401-triggered refresh fails terminally,
	// after the store has been cleared. The application's "navigate to
	// login" hook.
	OnSessionExpired func()
}

// REST executes JSON requests against the backend API.
type REST struct {
	baseURL     string
	httpClient  *http.Client
	retryClient *retryablehttp.Client
	headers     map[string]string
	store       *session.Store
	refresher   Refresher
	logger      types.Logger
	hooks       *types.Hooks

	// refreshGroup coalesces concurrent refresh attempts: at most one
	// refresh call is in flight at a time, and every 401 handler that
	// arrives while it is pending awaits its result.
	refreshGroup singleflight.Group

	onSessionExpired func()
}

// NewREST creates a new REST transport
func NewREST(opts *Options) *REST {
	if opts == nil {
		opts = &Options{}
	}

	if opts.BaseURL == "" {
		opts.BaseURL = types.DefaultBaseURL
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: types.DefaultTimeout,
		}
	}

	if opts.Store == nil {
		opts.Store = session.New()
	}

	var retryClient *retryablehttp.Client
	if opts.RetryConfig != nil {
		retryClient = retryablehttp.NewClient()
		retryClient.HTTPClient = opts.HTTPClient
		retryClient.RetryMax = opts.RetryConfig.MaxRetries
		retryClient.RetryWaitMin = opts.RetryConfig.RetryWait
		retryClient.RetryWaitMax = opts.RetryConfig.MaxWait

		if opts.Logger != nil {
			retryClient.Logger = &retryLogger{logger: opts.Logger}
		} else {
			retryClient.Logger = nil
		}
	}

	headers := map[string]string{
		"Accept":       contentType,
		"Content-Type": contentType,
		"User-Agent":   types.UserAgent,
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &REST{
		baseURL:          opts.BaseURL,
		httpClient:       opts.HTTPClient,
		retryClient:      retryClient,
		headers:          headers,
		store:            opts.Store,
		refresher:        opts.Refresher,
		logger:           opts.Logger,
		hooks:            opts.Hooks,
		onSessionExpired: opts.OnSessionExpired,
	}
}

// Store returns the session store backing this transport.
func (t *REST) Store() *session.Store {
	return t.store
}

// Do executes one logical API request. The current access token, if any, is
// attached as a bearer header. A 401 response triggers exactly one
// refresh-and-retry cycle; a request that has been retried is never retried
// again even if the retry also fails with 401.
func (t *REST) Do(ctx context.Context, method, path string, query url.Values, body, result interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request")
		}
	}

	token := t.store.Snapshot().AccessToken

	status, respBody, err := t.roundTrip(ctx, method, path, query, payload, token)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		// Another request may have refreshed while this one was in
		// flight. Retry with the superseding token before paying for a
		// redundant refresh call.
		retryToken := t.store.Snapshot().AccessToken
		if retryToken == "" || retryToken == token {
			retryToken, err = t.RefreshSession(ctx)
			if err != nil {
				t.store.Logout()
				if t.onSessionExpired != nil {
					t.onSessionExpired()
				}
				// The caller gets the refresh failure, not the
				// original 401: any rejection here means "not
				// authenticated".
				return err
			}
		}

		status, respBody, err = t.roundTrip(ctx, method, path, query, payload, retryToken)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return types.ErrNotAuthenticated
		}
	}

	if status < 200 || status > 299 {
		return t.handleHTTPError(status, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return errors.Wrap(err, "failed to unmarshal result")
		}
	}

	return nil
}

// RefreshSession performs a coalesced refresh and commits the new session to
// the store. Returns the new access token.
func (t *REST) RefreshSession(ctx context.Context) (string, error) {
	if t.refresher == nil {
		return "", types.ErrNotAuthenticated
	}

	v, err, _ := t.refreshGroup.Do("refresh", func() (interface{}, error) {
		sess, err := t.refresher.Refresh(ctx)
		if err != nil {
			return nil, err
		}
		t.store.SetAuth(sess.User, sess.AccessToken)

		if t.logger != nil {
			t.logger.Info("Session refreshed", "user", sess.User.Email)
		}
		return sess.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// roundTrip sends a single HTTP request and returns the status and body.
// The response body is fully read and closed before returning.
func (t *REST) roundTrip(ctx context.Context, method, path string, query url.Values, payload []byte, token string) (int, []byte, error) {
	u := t.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to create request")
	}

	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	if token != "" {
		req.Header.Set(authHeaderKey, "Bearer "+token)
	}

	if t.hooks != nil && t.hooks.OnRequest != nil {
		t.hooks.OnRequest(ctx, req)
	}

	if t.logger != nil {
		t.logger.Debug("API request", "method", method, "path", path)
	}

	start := time.Now()
	resp, err := t.send(req)
	duration := time.Since(start)

	if err != nil {
		if t.hooks != nil && t.hooks.OnError != nil {
			t.hooks.OnError(ctx, err)
		}
		return 0, nil, errors.Wrapf(err, "%s %s failed", method, path)
	}
	defer resp.Body.Close()

	if t.hooks != nil && t.hooks.OnResponse != nil {
		t.hooks.OnResponse(ctx, resp, duration)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to read response")
	}

	if t.logger != nil {
		t.logger.Debug("API response", "method", method, "path", path, "status", resp.StatusCode, "duration", duration)
	}

	return resp.StatusCode, respBody, nil
}

// send executes the HTTP request with transient-failure retry if configured.
func (t *REST) send(req *http.Request) (*http.Response, error) {
	if t.retryClient != nil {
		retryReq, err := retryablehttp.FromRequest(req)
		if err != nil {
			return nil, err
		}
		return t.retryClient.Do(retryReq)
	}
	return t.httpClient.Do(req)
}

// handleHTTPError maps a non-2xx response to the error taxonomy. Validation
// errors keep the server's message verbatim so it can be shown inline.
func (t *REST) handleHTTPError(statusCode int, body []byte) error {
	var errResp struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(body, &errResp)

	msg := errResp.Detail
	if msg == "" {
		msg = errResp.Message
	}
	if msg == "" {
		msg = errResp.Error
	}

	switch {
	case statusCode == http.StatusForbidden:
		return types.ErrNotAuthenticated
	case statusCode == http.StatusNotFound:
		return types.ErrNotFound
	case statusCode == http.StatusTooManyRequests:
		return types.ErrRateLimited
	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusGatewayTimeout:
		return types.ErrTimeout
	case statusCode >= 500:
		base := fmt.Sprintf("server error: %d", statusCode)
		if desc := http.StatusText(statusCode); desc != "" {
			base = fmt.Sprintf("server error: %d (%s)", statusCode, desc)
		}
		if msg != "" {
			base = fmt.Sprintf("%s: %s", base, msg)
		}
		return &types.Error{
			Code:       "SERVER_ERROR",
			Message:    base,
			StatusCode: statusCode,
			Err:        types.ErrServerError,
		}
	case statusCode >= 400:
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", statusCode)
		}
		return &types.Error{
			Code:       "BAD_REQUEST",
			Message:    msg,
			StatusCode: statusCode,
		}
	default:
		return &types.Error{
			Code:       "HTTP_ERROR",
			Message:    fmt.Sprintf("unexpected status %d", statusCode),
			StatusCode: statusCode,
		}
	}
}

// retryLogger adapts our logger to retryablehttp
type retryLogger struct {
	logger types.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}
