package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultIdleTimeout logs a session out after this long without activity.
const DefaultIdleTimeout = 30 * time.Minute

// SessionConfig configures a Session. Zero values use the defaults.
type SessionConfig struct {
	IdleTimeout time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Session holds the token and user of the signed-in account. It is safe
// for concurrent use.
//
// A session is valid while it has a token, the token's own exp has not
// passed, and the last activity is within the idle timeout. Logging out is
// purely local: the server keeps no session state to revoke.
type Session struct {
	mu           sync.Mutex
	token        string
	user         User
	expiresAt    time.Time
	lastActivity time.Time
	idleTimeout  time.Duration
	now          func() time.Time
}

// NewSession returns an empty session.
func NewSession(cfg SessionConfig) *Session {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Session{idleTimeout: cfg.IdleTimeout, now: cfg.Now}
}

// Set stores a freshly issued token and its user and marks the session
// active. The token's exp claim is read without verifying the signature;
// the server remains the authority on whether the token is accepted.
func (s *Session) Set(token string, user User) error {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return fmt.Errorf("client.Session.Set: parse token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
	s.expiresAt = time.Time{}
	if claims.ExpiresAt != nil {
		s.expiresAt = claims.ExpiresAt.Time
	}
	s.lastActivity = s.now()
	return nil
}

// Token returns the bearer token if the session is still valid.
func (s *Session) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validLocked() {
		return "", false
	}
	return s.token, true
}

// User returns the signed-in user if the session is still valid.
func (s *Session) User() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validLocked() {
		return User{}, false
	}
	return s.user, true
}

// Valid reports whether the session can be used for an authenticated call.
func (s *Session) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validLocked()
}

func (s *Session) validLocked() bool {
	if s.token == "" {
		return false
	}
	now := s.now()
	if !s.expiresAt.IsZero() && !now.Before(s.expiresAt) {
		return false
	}
	return now.Sub(s.lastActivity) < s.idleTimeout
}

// Touch records user activity, resetting the idle timer.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		s.lastActivity = s.now()
	}
}

// Clear forgets the token and user.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = User{}
	s.expiresAt = time.Time{}
	s.lastActivity = time.Time{}
}

// expire clears a session that holds a token but is no longer valid and
// reports whether it did so.
func (s *Session) expire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" || s.validLocked() {
		return false
	}
	s.token = ""
	s.user = User{}
	s.expiresAt = time.Time{}
	s.lastActivity = time.Time{}
	return true
}

// Watch checks the session every interval until ctx is done. When a held
// session has gone idle or its token has expired, Watch clears it and calls
// onExpire (which may be nil). Pending requests are unaffected; only the
// next authenticated call sees the cleared session.
func (s *Session) Watch(ctx context.Context, interval time.Duration, onExpire func()) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.expire() && onExpire != nil {
				onExpire()
			}
		}
	}
}
