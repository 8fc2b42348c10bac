// Package session holds the in-memory authentication state shared by every
// request flow: the current user and the bearer access token. It is the single
// source of truth; SetAuth and Logout are the only mutation entry points.
package session

import (
	"sync"

	"github.com/kashif-saeed1122/contentforge-go/internal/types"
)

// Snapshot is a point-in-time copy of the session state. The transport reads
// snapshots synchronously so it always sees the token current at call time
// rather than one captured at subscription time.
type Snapshot struct {
	User          *types.User
	AccessToken   string
	Authenticated bool

	// LoggedOut is set once a logout (explicit or via a failed silent
	// refresh) has happened. Startup session recovery checks it to avoid
	// hammering the refresh endpoint for a visitor who is known to be
	// anonymous.
	LoggedOut bool
}

// Store is the session state container. All fields are guarded by one mutex
// so no reader can observe a half-updated session.
type Store struct {
	mu          sync.RWMutex
	user        *types.User
	accessToken string
	loggedOut   bool

	subs    map[int]chan Snapshot
	nextSub int
}

// New creates an empty store: no user, no token, not yet logged out.
func New() *Store {
	return &Store{
		subs: make(map[int]chan Snapshot),
	}
}

// SetAuth replaces the user and token atomically. It clears the logged-out
// marker: a successful login or refresh always re-enables silent recovery.
func (s *Store) SetAuth(user *types.User, token string) {
	s.mu.Lock()
	s.user = user
	s.accessToken = token
	s.loggedOut = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Logout clears the session. Safe to call when already logged out.
func (s *Store) Logout() {
	s.mu.Lock()
	s.user = nil
	s.accessToken = ""
	s.loggedOut = true
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Snapshot returns the current session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Session returns the current session, or nil when unauthenticated.
func (s *Store) Session() *types.Session {
	snap := s.Snapshot()
	if !snap.Authenticated {
		return nil
	}
	return &types.Session{User: snap.User, AccessToken: snap.AccessToken}
}

// Subscribe registers for change notifications. The returned cancel func must
// be called when the consumer goes away. Slow consumers miss intermediate
// snapshots rather than blocking mutations.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 4)
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Store) snapshotLocked() Snapshot {
	var user *types.User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return Snapshot{
		User:          user,
		AccessToken:   s.accessToken,
		Authenticated: user != nil && s.accessToken != "",
		LoggedOut:     s.loggedOut,
	}
}

// notify delivers the snapshot to every subscriber without blocking. Sends
// happen under the read lock so a concurrent cancel cannot close a channel
// mid-send.
func (s *Store) notify(snap Snapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}
