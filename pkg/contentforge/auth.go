package contentforge

import (
	"context"

	"github.com/kashif-saeed1122/contentforge-go/internal/auth"
	internalTypes "github.com/kashif-saeed1122/contentforge-go/internal/types"
)

// authService implements the AuthService interface
type authService struct {
	client *Client
	raw    *auth.Service
}

// Login exchanges credentials for a session and stores it.
func (a *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	sess, err := a.raw.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	a.commit(sess)
	return a.Session(), nil
}

// Signup registers a new account and stores its first session.
func (a *authService) Signup(ctx context.Context, username, email, password string) (*Session, error) {
	sess, err := a.raw.Signup(ctx, username, email, password)
	if err != nil {
		return nil, err
	}
	a.commit(sess)
	return a.Session(), nil
}

// RestoreSession attempts one silent refresh at startup. If the store already
// knows the user is logged out, no network call is made: a failed restore
// must not be re-attempted on every mount. A refresh failure is an expected
// outcome for an anonymous visitor and is swallowed after marking the store
// logged out.
func (a *authService) RestoreSession(ctx context.Context) error {
	snap := a.client.store.Snapshot()
	if snap.LoggedOut {
		return nil
	}

	// Same coalescing gate as the 401 path, so a strict-mode style double
	// invoke shares one refresh call.
	if _, err := a.client.transport.RefreshSession(ctx); err != nil {
		a.client.store.Logout()
		if a.client.options.Logger != nil {
			a.client.options.Logger.Debug("Silent session restore failed", "error", err)
		}
		return nil
	}
	return nil
}

// Logout clears the session and every cached query result.
func (a *authService) Logout() {
	a.client.store.Logout()
	a.client.cache.invalidateAll()
}

// Session returns the current session state.
func (a *authService) Session() *Session {
	return sessionFromSnapshot(a.client.store.Snapshot())
}

// Updates subscribes to session state changes.
func (a *authService) Updates() (<-chan *Session, func()) {
	snaps, cancel := a.client.store.Subscribe()
	out := make(chan *Session, 4)

	go func() {
		defer close(out)
		for snap := range snaps {
			select {
			case out <- sessionFromSnapshot(snap):
			default:
			}
		}
	}()

	done := func() {
		cancel()
	}
	return out, done
}

func (a *authService) commit(sess *internalTypes.Session) {
	a.client.store.SetAuth(sess.User, sess.AccessToken)
}
