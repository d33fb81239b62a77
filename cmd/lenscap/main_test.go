package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoginWhoamiLogoutFlow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, []string{"login", "photos@example.com", "--password", "correct-horse"}, "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	requireContains(t, out, "Logged in as photos@example.com")

	out, _, err = runCLI(t, env, []string{"whoami"}, "")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	requireContains(t, out, "photos@example.com")

	out, _, err = runCLI(t, env, []string{"logout"}, "")
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	requireContains(t, out, "Logged out")

	env.backend.mu.Lock()
	revoked := env.backend.loggedOut
	env.backend.mu.Unlock()
	if !revoked {
		t.Fatal("backend never saw the revocation request")
	}

	if _, _, err = runCLI(t, env, []string{"whoami"}, ""); err == nil {
		t.Fatal("expected whoami to fail after logout")
	} else if !errors.Is(err, errNotLoggedIn) {
		t.Fatalf("expected not-logged-in error, got %v", err)
	}
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, []string{"login", "photos@example.com"}, "correct-horse\n")
	if err != nil {
		t.Fatalf("login via stdin: %v", err)
	}
	requireContains(t, out, "Logged in as photos@example.com")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, []string{"login", "photos@example.com", "--password", "wrong-password"}, "")
	if err == nil {
		t.Fatal("expected login failure")
	}
	if !strings.Contains(err.Error(), "invalid credentials") {
		t.Fatalf("expected backend error detail, got %v", err)
	}
}

func TestLoginValidatesInputBeforeNetwork(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env, []string{"login", "not-an-email", "--password", "correct-horse"}, ""); err == nil {
		t.Fatal("expected rejection of invalid email")
	}
	if _, _, err := runCLI(t, env, []string{"login", "photos@example.com", "--password", "short"}, ""); err == nil {
		t.Fatal("expected rejection of short password")
	}
}

func TestSignupPendingConfirmation(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, []string{"signup", "pending@example.com", "--password", "correct-horse"}, "")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	requireContains(t, out, "Check your email to confirm the account")

	// A pending signup must not leave a usable session behind.
	if _, _, err := runCLI(t, env, []string{"whoami"}, ""); err == nil {
		t.Fatal("expected whoami to fail after pending signup")
	}
}

func TestSignupWithImmediateSession(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, []string{"signup", "new@example.com", "--password", "correct-horse"}, "")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	requireContains(t, out, "logged in as new@example.com")
}

func TestUploadNoWait(t *testing.T) {
	env := setupCLITestEnv(t)
	loginTestUser(t, env)

	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "one.jpg"),
		filepath.Join(dir, "two.png"),
	}
	for _, path := range paths {
		if err := os.WriteFile(path, []byte("fake image data"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}

	out, _, err := runCLI(t, env, append([]string{"upload", "--no-wait"}, paths...), "")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	requireContains(t, out, "Uploaded 2 files")
	requireContains(t, out, "lenscap sync")
}

func TestUploadRejectsInvalidBatch(t *testing.T) {
	env := setupCLITestEnv(t)
	loginTestUser(t, env)

	dir := t.TempDir()
	good := filepath.Join(dir, "good.jpg")
	bad := filepath.Join(dir, "notes.txt")
	for _, path := range []string{good, bad} {
		if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}

	_, _, err := runCLI(t, env, []string{"upload", "--no-wait", good, bad}, "")
	if err == nil {
		t.Fatal("expected batch rejection")
	}
	if !strings.Contains(err.Error(), "notes.txt") {
		t.Fatalf("expected the invalid file to be named, got %v", err)
	}
}

func TestUploadRequiresLogin(t *testing.T) {
	env := setupCLITestEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, _, err := runCLI(t, env, []string{"upload", "--no-wait", path}, ""); !errors.Is(err, errNotLoggedIn) {
		t.Fatalf("expected not-logged-in error, got %v", err)
	}
}

func TestVersionRunsWithoutConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	// Point --config at a file that would fail validation if loaded.
	env.configPath = filepath.Join(t.TempDir(), "missing.toml")

	out, _, err := runCLI(t, env, []string{"version"}, "")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, "lenscap")
}
