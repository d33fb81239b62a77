package session

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lenscap/internal/api"
	"lenscap/internal/storage"
)

const (
	keyAccessToken  = "session.access_token"
	keyRefreshToken = "session.refresh_token"
	keyExpiresAt    = "session.expires_at"
	keyUser         = "session.user"

	// expiryBuffer keeps a request from starting with a token that dies
	// mid-flight.
	expiryBuffer = 5 * time.Minute
)

// sessionKeys is everything Clear removes; the tokens and the cached profile
// are one logical unit.
var sessionKeys = []string{keyAccessToken, keyRefreshToken, keyExpiresAt, keyUser}

// TokenStore persists session state in an injected storage.Store. It holds
// no token material in memory; every operation reads or writes the store so
// independent surfaces always observe the latest session.
type TokenStore struct {
	store storage.Store
	now   func() time.Time
}

// TokenStoreOption customises TokenStore construction.
type TokenStoreOption func(*TokenStore)

// WithClock overrides the time source (used in expiry tests).
func WithClock(now func() time.Time) TokenStoreOption {
	return func(s *TokenStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenStore builds a TokenStore over the provided backend.
func NewTokenStore(store storage.Store, opts ...TokenStoreOption) *TokenStore {
	s := &TokenStore{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetSession replaces the persisted session. The access token is written
// unconditionally; the refresh token and expiry are written when provided
// and removed otherwise, so a second login never merges with leftovers from
// the first.
func (s *TokenStore) SetSession(access, refresh string, expiresIn time.Duration) error {
	access = strings.TrimSpace(access)
	if access == "" {
		return fmt.Errorf("%w: access token is empty", api.ErrValidation)
	}
	if err := s.store.Set(keyAccessToken, access); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}

	if refresh = strings.TrimSpace(refresh); refresh != "" {
		if err := s.store.Set(keyRefreshToken, refresh); err != nil {
			return fmt.Errorf("store refresh token: %w", err)
		}
	} else if err := s.store.Delete(keyRefreshToken); err != nil {
		return fmt.Errorf("drop stale refresh token: %w", err)
	}

	if expiresIn > 0 {
		expiresAt := s.now().Add(expiresIn).Unix()
		if err := s.store.Set(keyExpiresAt, strconv.FormatInt(expiresAt, 10)); err != nil {
			return fmt.Errorf("store expiry: %w", err)
		}
	} else if err := s.store.Delete(keyExpiresAt); err != nil {
		return fmt.Errorf("drop stale expiry: %w", err)
	}
	return nil
}

// AccessToken returns the persisted access token, if any.
func (s *TokenStore) AccessToken() (string, bool) {
	token, ok, err := s.store.Get(keyAccessToken)
	if err != nil || token == "" {
		return "", false
	}
	return token, ok
}

// RefreshToken returns the persisted refresh token, if any.
func (s *TokenStore) RefreshToken() (string, bool) {
	token, ok, err := s.store.Get(keyRefreshToken)
	if err != nil || token == "" {
		return "", false
	}
	return token, ok
}

// IsExpired reports whether the stored token is inside the expiry buffer.
// A session without a stored expiry never expires locally.
func (s *TokenStore) IsExpired() bool {
	raw, ok, err := s.store.Get(keyExpiresAt)
	if err != nil || !ok {
		return false
	}
	expiresAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false
	}
	return !s.now().Before(time.Unix(expiresAt, 0).Add(-expiryBuffer))
}

// Clear removes the tokens, expiry, and cached profile in one call.
// A partial clear is a defect, so this never removes a subset.
func (s *TokenStore) Clear() error {
	if err := s.store.Delete(sessionKeys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// SetUser caches the profile alongside the session for fast rehydration.
func (s *TokenStore) SetUser(user *api.User) error {
	if user == nil {
		return s.store.Delete(keyUser)
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode cached user: %w", err)
	}
	if err := s.store.Set(keyUser, string(data)); err != nil {
		return fmt.Errorf("store cached user: %w", err)
	}
	return nil
}

// User returns the cached profile, if any. A corrupt cache entry reads as
// absent rather than failing the caller.
func (s *TokenStore) User() (*api.User, bool) {
	raw, ok, err := s.store.Get(keyUser)
	if err != nil || !ok || raw == "" {
		return nil, false
	}
	var user api.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false
	}
	return &user, true
}

// BearerToken satisfies api.TokenSource. It refuses to hand out a token that
// is absent or past the expiry buffer, so an invalid session never becomes
// an Authorization header.
func (s *TokenStore) BearerToken() (string, error) {
	token, ok := s.AccessToken()
	if !ok {
		return "", fmt.Errorf("%w: not logged in", api.ErrAuth)
	}
	if s.IsExpired() {
		return "", fmt.Errorf("%w: log in again", api.ErrExpiredSession)
	}
	return token, nil
}
