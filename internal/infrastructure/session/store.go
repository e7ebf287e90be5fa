// Package session owns the access token's lifecycle: one token slot per
// store, an expiry-based validity check, and invalidation broadcast so the
// UI can drop to a login flow when the backend rejects the credential.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Store holds the single access-token slot for one logical session. It is
// constructed and injected rather than ambient, so tests can run independent
// sessions side by side. There is no multi-session support: setting a token
// replaces the previous one.
type Store struct {
	mu        sync.RWMutex
	token     string
	listeners []func()
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{}
}

// Set stores the access token. It becomes the default bearer credential for
// all subsequent calls made through a gateway holding this store.
func (s *Store) Set(accessToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = accessToken
}

// Get returns the current token, or false when no token is stored.
func (s *Store) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Clear removes the stored token without notifying listeners. Used for
// explicit logout and for dropping a token found expired at send time.
// Clearing an already-empty store is a safe no-op.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

// Invalidate clears the token and notifies every registered listener that
// authentication is no longer valid. Called when the backend answers 401.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.token = ""
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, notify := range listeners {
		notify()
	}
}

// OnInvalidated registers a listener invoked whenever the session is
// invalidated by an authentication failure.
func (s *Store) OnInvalidated(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// IsValid reports whether the token's embedded expiry is strictly in the
// future. It never returns an error: an absent, malformed, or claim-less
// token is simply invalid. The signature is not verified; the client holds
// no signing secret and only needs the expiry claim.
func IsValid(token string) bool {
	expiry, ok := expiryOf(token)
	if !ok {
		return false
	}
	return expiry.After(time.Now())
}

// expiryOf extracts the exp claim from a token without verifying it.
func expiryOf(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
