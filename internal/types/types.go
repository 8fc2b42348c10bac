package types

import (
	"context"
	"net/http"
	"time"
)

// User is the authenticated user identity as returned by the auth endpoints.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Credits  int    `json:"credits,omitempty"`
	Plan     string `json:"plan,omitempty"`
}

// Session pairs a user identity with the bearer token that authenticates it.
// The refresh credential never appears here: it lives in the HTTP client's
// cookie jar and is opaque to this code.
type Session struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
}

// Logger interface for logging
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// RetryConfig configures transient-failure retry behavior
type RetryConfig struct {
	MaxRetries int           `json:"maxRetries"`
	RetryWait  time.Duration `json:"retryWait"`
	MaxWait    time.Duration `json:"maxWait"`
}

// DefaultRetryConfig retries a transient failure once. A request that fails
// twice in a row surfaces the error to the caller.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 1,
		RetryWait:  250 * time.Millisecond,
		MaxWait:    time.Second,
	}
}

// Hooks provides lifecycle hooks for requests
type Hooks struct {
	OnRequest  func(ctx context.Context, req *http.Request)
	OnResponse func(ctx context.Context, resp *http.Response, duration time.Duration)
	OnError    func(ctx context.Context, err error)
}
