package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"lenscap/internal/api"
	"lenscap/internal/logging"
	"lenscap/internal/storage"
)

type fakeAPI struct {
	loginFunc       func(ctx context.Context, email, password string) (*api.Credentials, error)
	signupFunc      func(ctx context.Context, email, password string) (*api.Credentials, error)
	logoutFunc      func(ctx context.Context, token string) error
	currentUserFunc func(ctx context.Context) (*api.User, error)
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (*api.Credentials, error) {
	return f.loginFunc(ctx, email, password)
}

func (f *fakeAPI) Signup(ctx context.Context, email, password string) (*api.Credentials, error) {
	return f.signupFunc(ctx, email, password)
}

func (f *fakeAPI) Logout(ctx context.Context, token string) error {
	if f.logoutFunc == nil {
		return nil
	}
	return f.logoutFunc(ctx, token)
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (*api.User, error) {
	return f.currentUserFunc(ctx)
}

func newTestGuard(client AuthAPI) (*Guard, *TokenStore) {
	tokens := NewTokenStore(storage.NewMemoryStore())
	return NewGuard(tokens, client, logging.NewNop()), tokens
}

func TestLoginStoresSessionAndAuthenticates(t *testing.T) {
	client := &fakeAPI{
		loginFunc: func(_ context.Context, email, password string) (*api.Credentials, error) {
			if email != "a@b.com" || password != "secret1" {
				return nil, fmt.Errorf("unexpected credentials %s/%s", email, password)
			}
			return &api.Credentials{
				User:    api.User{ID: "1", Email: "a@b.com"},
				Session: api.Session{AccessToken: "T1", ExpiresIn: 3600},
			}, nil
		},
	}
	guard, tokens := newTestGuard(client)

	user, err := guard.Login(context.Background(), "a@b.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != "1" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if token, ok := tokens.AccessToken(); !ok || token != "T1" {
		t.Fatalf("expected stored token T1, got %q ok=%v", token, ok)
	}
	if !guard.IsAuthenticated() {
		t.Fatal("expected authenticated after login")
	}
	if cached, ok := tokens.User(); !ok || cached.Email != "a@b.com" {
		t.Fatalf("expected cached profile, got %+v ok=%v", cached, ok)
	}
}

func TestVerifyTransientFailureKeepsCachedUser(t *testing.T) {
	client := &fakeAPI{
		currentUserFunc: func(context.Context) (*api.User, error) {
			return nil, fmt.Errorf("%w: current user returned 500", api.ErrTransient)
		},
	}
	guard, tokens := newTestGuard(client)
	seedSession(t, tokens)

	if !guard.Resume(context.Background()) {
		t.Fatal("expected optimistic resume to keep user authenticated")
	}
	if _, ok := tokens.AccessToken(); !ok {
		t.Fatal("transient verification failure must not clear the session")
	}
	if user, ok := guard.CurrentUser(); !ok || user.Email != "a@b.com" {
		t.Fatalf("expected cached user retained, got %+v ok=%v", user, ok)
	}
}

func TestVerifyAuthFailureTearsSessionDown(t *testing.T) {
	client := &fakeAPI{
		currentUserFunc: func(context.Context) (*api.User, error) {
			return nil, fmt.Errorf("%w: current user returned 401", api.ErrAuth)
		},
	}
	guard, tokens := newTestGuard(client)
	seedSession(t, tokens)

	if guard.Resume(context.Background()) {
		t.Fatal("expected resume to fail after 401")
	}
	if _, ok := tokens.AccessToken(); ok {
		t.Fatal("session must be cleared on 401")
	}
	if _, ok := tokens.User(); ok {
		t.Fatal("cached user must be cleared on 401")
	}
	if guard.IsAuthenticated() {
		t.Fatal("guard still reports authenticated")
	}
}

func TestVerifySuccessOverwritesCachedProfile(t *testing.T) {
	client := &fakeAPI{
		currentUserFunc: func(context.Context) (*api.User, error) {
			return &api.User{ID: "1", Email: "a@b.com", Username: "renamed"}, nil
		},
	}
	guard, tokens := newTestGuard(client)
	seedSession(t, tokens)

	if !guard.Resume(context.Background()) {
		t.Fatal("expected resume to succeed")
	}
	cached, ok := tokens.User()
	if !ok || cached.Username != "renamed" {
		t.Fatalf("expected self-healed profile, got %+v ok=%v", cached, ok)
	}
}

func TestLogoutClearsLocallyEvenWhenBackendTimesOut(t *testing.T) {
	client := &fakeAPI{
		logoutFunc: func(context.Context, string) error {
			return fmt.Errorf("%w: logout: context deadline exceeded", api.ErrTransient)
		},
	}
	guard, tokens := newTestGuard(client)
	seedSession(t, tokens)

	if err := guard.Logout(context.Background()); err != nil {
		t.Fatalf("logout must be best-effort, got %v", err)
	}
	if _, ok := tokens.AccessToken(); ok {
		t.Fatal("access token survived logout")
	}
	if guard.IsAuthenticated() {
		t.Fatal("guard still authenticated after logout")
	}
}

func TestLogoutRevokesWithSnapshottedToken(t *testing.T) {
	var revoked string
	var tokens *TokenStore
	client := &fakeAPI{
		logoutFunc: func(_ context.Context, token string) error {
			revoked = token
			// Local state is already gone by the time revocation runs.
			if _, ok := tokens.AccessToken(); ok {
				t.Error("revocation ran before the local clear")
			}
			return nil
		},
	}
	var guard *Guard
	guard, tokens = newTestGuard(client)
	seedSession(t, tokens)

	if err := guard.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if revoked != "T1" {
		t.Fatalf("expected revocation to carry the old token, got %q", revoked)
	}
}

func TestLogoutWithoutTokenSkipsRevocation(t *testing.T) {
	client := &fakeAPI{
		logoutFunc: func(context.Context, string) error {
			t.Error("revocation must not run without a token")
			return nil
		},
	}
	guard, _ := newTestGuard(client)

	if err := guard.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
}

func TestSignupConfirmationPendingStoresNothing(t *testing.T) {
	client := &fakeAPI{
		signupFunc: func(context.Context, string, string) (*api.Credentials, error) {
			return &api.Credentials{User: api.User{ID: "9", Email: "new@b.com"}}, nil
		},
	}
	guard, tokens := newTestGuard(client)

	user, pending, err := guard.Signup(context.Background(), "new@b.com", "secret1")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if !pending {
		t.Fatal("expected confirmation-pending signup")
	}
	if user.Email != "new@b.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if _, ok := tokens.AccessToken(); ok {
		t.Fatal("pending signup must not persist a session")
	}
	if guard.IsAuthenticated() {
		t.Fatal("pending signup must not authenticate")
	}
}

func TestResumeWithoutTokenStaysUnauthenticated(t *testing.T) {
	client := &fakeAPI{
		currentUserFunc: func(context.Context) (*api.User, error) {
			t.Fatal("verification must not run without a token")
			return nil, errors.New("unreachable")
		},
	}
	guard, _ := newTestGuard(client)

	if guard.Resume(context.Background()) {
		t.Fatal("expected unauthenticated cold start")
	}
}

func seedSession(t *testing.T, tokens *TokenStore) {
	t.Helper()
	if err := tokens.SetSession("T1", "R1", time.Hour); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if err := tokens.SetUser(&api.User{ID: "1", Email: "a@b.com"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}
