// Package auth performs the raw authentication endpoint calls. Login, signup
// and refresh all share the client's cookie jar: the backend sets the
// HttpOnly refresh cookie on login/signup and consumes it on refresh. None of
// these requests carry a bearer token.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kashif-saeed1122/contentforge-go/internal/types"
	"github.com/pkg/errors"
)

const (
	loginEndpoint   = "/auth/login"
	signupEndpoint  = "/auth/signup"
	refreshEndpoint = "/auth/refresh"
)

// Service handles authentication operations
type Service struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
	logger     types.Logger
}

// NewService creates a new auth service. The http.Client must be the same one
// the transport uses so the refresh cookie lands in a shared jar.
func NewService(baseURL string, httpClient *http.Client, logger types.Logger) *Service {
	headers := map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
		"User-Agent":   types.UserAgent,
	}

	return &Service{
		baseURL:    baseURL,
		httpClient: httpClient,
		headers:    headers,
		logger:     logger,
	}
}

// Login exchanges credentials for a session.
func (s *Service) Login(ctx context.Context, email, password string) (*types.Session, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	if s.logger != nil {
		s.logger.Debug("Login request", "email", email)
	}

	return s.post(ctx, loginEndpoint, body)
}

// Signup registers a new account and returns its first session.
func (s *Service) Signup(ctx context.Context, username, email, password string) (*types.Session, error) {
	body := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}

	if s.logger != nil {
		s.logger.Debug("Signup request", "email", email, "username", username)
	}

	return s.post(ctx, signupEndpoint, body)
}

// Refresh mints a new access token from the refresh cookie. The request body
// is empty; the cookie jar proves the session is legitimate. A 401 here means
// the refresh credential is missing, expired or revoked.
func (s *Service) Refresh(ctx context.Context) (*types.Session, error) {
	if s.logger != nil {
		s.logger.Debug("Session refresh request")
	}

	return s.post(ctx, refreshEndpoint, struct{}{})
}

// post executes an unauthenticated JSON POST and parses the session response.
func (s *Service) post(ctx context.Context, endpoint string, reqBody interface{}) (*types.Session, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal auth request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create auth request")
	}

	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "auth request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read auth response")
	}

	if s.logger != nil {
		s.logger.Debug("Auth response", "endpoint", endpoint, "status", resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, authError(endpoint, resp.StatusCode, respBody)
	}

	var session types.Session
	if err := json.Unmarshal(respBody, &session); err != nil {
		return nil, errors.Wrap(err, "failed to parse auth response")
	}

	if session.AccessToken == "" {
		return nil, errors.New("no access token in auth response")
	}
	if session.User == nil {
		return nil, errors.New("no user in auth response")
	}

	return &session, nil
}

// authError maps an auth endpoint failure to a typed error. Structured error
// bodies are surfaced verbatim so callers can show them inline.
func authError(endpoint string, statusCode int, body []byte) error {
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

	if statusCode == http.StatusUnauthorized {
		if endpoint == refreshEndpoint {
			return types.ErrSessionExpired
		}
		if msg != "" {
			return &types.Error{
				Code:       "LOGIN_FAILED",
				Message:    msg,
				StatusCode: statusCode,
				Err:        types.ErrLoginFailed,
			}
		}
		return types.ErrLoginFailed
	}

	if msg == "" {
		msg = fmt.Sprintf("auth request failed with status %d", statusCode)
	}

	return &types.Error{
		Code:       "AUTH_FAILED",
		Message:    msg,
		StatusCode: statusCode,
	}
}
