package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lenscap/internal/config"
)

func TestLoadDefaultsUsesEnvBaseURLAndExpandsPaths(t *testing.T) {
	t.Setenv("LENSCAP_API_URL", "https://api.example.com/")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "lenscap")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.API.BaseURL != "https://api.example.com" {
		t.Fatalf("expected trimmed base url from env, got %q", cfg.API.BaseURL)
	}
	if cfg.API.RequestTimeout != 30 {
		t.Fatalf("unexpected request timeout: %d", cfg.API.RequestTimeout)
	}
	if cfg.Upload.PollInterval != 2 || cfg.Upload.PollInitialDelay != 3 || cfg.Upload.PollMaxAttempts != 30 {
		t.Fatalf("unexpected polling defaults: %+v", cfg.Upload)
	}
	if cfg.Gallery.SortOrder != "newest" {
		t.Fatalf("unexpected sort order: %q", cfg.Gallery.SortOrder)
	}
	if cfg.SessionStatePath() != filepath.Join(wantData, "session.json") {
		t.Fatalf("unexpected session path: %q", cfg.SessionStatePath())
	}
}

func TestLoadParsesFileOverrides(t *testing.T) {
	t.Setenv("LENSCAP_API_URL", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[api]",
		`base_url = "http://localhost:9090"`,
		"[upload]",
		"poll_max_attempts = 5",
		`allowed_extensions = ["jpg", ".PNG"]`,
		"[gallery]",
		`sort_order = "name"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.API.BaseURL != "http://localhost:9090" {
		t.Fatalf("unexpected base url: %q", cfg.API.BaseURL)
	}
	if cfg.Upload.PollMaxAttempts != 5 {
		t.Fatalf("unexpected poll attempts: %d", cfg.Upload.PollMaxAttempts)
	}
	want := []string{".jpg", ".png"}
	if len(cfg.Upload.AllowedExtensions) != len(want) {
		t.Fatalf("unexpected extensions: %v", cfg.Upload.AllowedExtensions)
	}
	for i, ext := range want {
		if cfg.Upload.AllowedExtensions[i] != ext {
			t.Fatalf("unexpected extension at %d: got %q want %q", i, cfg.Upload.AllowedExtensions[i], ext)
		}
	}
	if cfg.Gallery.SortOrder != "name" {
		t.Fatalf("unexpected sort order: %q", cfg.Gallery.SortOrder)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"missing base url", func(c *config.Config) { c.API.BaseURL = "" }},
		{"relative base url", func(c *config.Config) { c.API.BaseURL = "api.example.com" }},
		{"bad scheme", func(c *config.Config) { c.API.BaseURL = "ftp://api.example.com" }},
		{"bad sort order", func(c *config.Config) { c.Gallery.SortOrder = "shuffled" }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
		{"zero poll interval", func(c *config.Config) { c.Upload.PollInterval = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.API.BaseURL = "https://api.example.com"
			cfg.Gallery.SortOrder = "newest"
			cfg.Logging.Format = "console"
			cfg.Logging.Level = "info"
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
