package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"lenscap/internal/api"
	"lenscap/internal/logging"
)

// AuthAPI is the slice of the backend client the guard needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*api.Credentials, error)
	Signup(ctx context.Context, email, password string) (*api.Credentials, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context) (*api.User, error)
}

// Guard decides, for every authenticated response, whether the session
// survives, and derives the authenticated state UI surfaces render from.
type Guard struct {
	tokens *TokenStore
	client AuthAPI
	logger *slog.Logger

	mu            sync.RWMutex
	currentUser   *api.User
	authenticated bool
}

// NewGuard builds a Guard over the token store and backend client.
func NewGuard(tokens *TokenStore, client AuthAPI, logger *slog.Logger) *Guard {
	return &Guard{
		tokens: tokens,
		client: client,
		logger: logging.NewComponentLogger(logger, "session"),
	}
}

// IsAuthenticated reports the current derived state.
func (g *Guard) IsAuthenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.authenticated
}

// CurrentUser returns the in-memory profile, which may be a cached copy that
// has not been verified this run.
func (g *Guard) CurrentUser() (*api.User, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.currentUser == nil {
		return nil, false
	}
	user := *g.currentUser
	return &user, true
}

// Resume rehydrates the session on cold start. With both a token and a
// cached profile present the user is authenticated immediately from cache;
// the follow-up verification self-heals profile drift but a transient
// failure never logs the user out.
func (g *Guard) Resume(ctx context.Context) bool {
	token, ok := g.tokens.AccessToken()
	if !ok || token == "" {
		return false
	}

	if user, ok := g.tokens.User(); ok {
		g.setAuthenticated(user)
	}

	if err := g.Verify(ctx); err != nil {
		if errors.Is(err, api.ErrAuth) {
			return false
		}
		g.logger.Debug("verification deferred", logging.Error(err))
	}
	return g.IsAuthenticated()
}

// Verify confirms the cached session against the backend. A success
// overwrites the cached profile; a 401/403 tears the session down; any other
// failure keeps the possibly-stale session so a backend outage does not log
// the user out.
func (g *Guard) Verify(ctx context.Context) error {
	user, err := g.client.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, api.ErrAuth) {
			g.teardown()
			return err
		}
		return err
	}

	if err := g.tokens.SetUser(user); err != nil {
		g.logger.Warn("cache profile failed", logging.Error(err))
	}
	g.setAuthenticated(user)
	return nil
}

// Login exchanges credentials for a session and persists it.
func (g *Guard) Login(ctx context.Context, email, password string) (*api.User, error) {
	creds, err := g.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := g.storeCredentials(creds); err != nil {
		return nil, err
	}
	return &creds.User, nil
}

// Signup creates an account. When the backend withholds a session pending
// email confirmation, pending is true and nothing is persisted.
func (g *Guard) Signup(ctx context.Context, email, password string) (user *api.User, pending bool, err error) {
	creds, err := g.client.Signup(ctx, email, password)
	if err != nil {
		return nil, false, err
	}
	if creds.Session.Empty() {
		return &creds.User, true, nil
	}
	if err := g.storeCredentials(creds); err != nil {
		return nil, false, err
	}
	return &creds.User, false, nil
}

// Logout clears local credentials unconditionally, then notifies the backend
// on a best-effort basis. The token is snapshotted before the clear so the
// revocation call still carries it; a failed call never rolls the local
// clear back.
func (g *Guard) Logout(ctx context.Context) error {
	token, _ := g.tokens.AccessToken()

	if err := g.tokens.Clear(); err != nil {
		return err
	}
	g.mu.Lock()
	g.currentUser = nil
	g.authenticated = false
	g.mu.Unlock()

	if token != "" {
		if err := g.client.Logout(ctx, token); err != nil {
			g.logger.Debug("remote logout skipped", logging.Error(err))
		}
	}
	return nil
}

func (g *Guard) storeCredentials(creds *api.Credentials) error {
	expiresIn := time.Duration(creds.Session.ExpiresIn) * time.Second
	if err := g.tokens.SetSession(creds.Session.AccessToken, creds.Session.RefreshToken, expiresIn); err != nil {
		return err
	}
	if err := g.tokens.SetUser(&creds.User); err != nil {
		g.logger.Warn("cache profile failed", logging.Error(err))
	}
	g.setAuthenticated(&creds.User)
	return nil
}

func (g *Guard) setAuthenticated(user *api.User) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.currentUser = user
	g.authenticated = true
}

func (g *Guard) teardown() {
	if err := g.tokens.Clear(); err != nil {
		g.logger.Warn("clear session failed", logging.Error(err))
	}
	g.mu.Lock()
	g.currentUser = nil
	g.authenticated = false
	g.mu.Unlock()
}
