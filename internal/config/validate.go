package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateGallery(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/lenscap/config.toml"
		}
		return fmt.Errorf("api.base_url is required. Set LENSCAP_API_URL env var or edit %s (create with 'lenscap config init')", defaultPath)
	}
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api.base_url %q must be an absolute http(s) URL", c.API.BaseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("api.base_url scheme %q is not supported", parsed.Scheme)
	}
	return nil
}

func (c *Config) validateUpload() error {
	if err := ensurePositiveMap(map[string]int{
		"api.request_timeout":           c.API.RequestTimeout,
		"upload.max_file_size_mib":      c.Upload.MaxFileSizeMiB,
		"upload.poll_interval":          c.Upload.PollInterval,
		"upload.poll_max_attempts":      c.Upload.PollMaxAttempts,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Upload.PollInitialDelay < 0 {
		return errors.New("upload.poll_initial_delay must not be negative")
	}
	for _, ext := range c.Upload.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("upload.allowed_extensions entry %q must be a file extension like \".jpg\"", ext)
		}
	}
	return nil
}

func (c *Config) validateGallery() error {
	switch c.Gallery.SortOrder {
	case "newest", "oldest", "name":
		return nil
	default:
		return fmt.Errorf("gallery.sort_order %q must be one of newest, oldest, name", c.Gallery.SortOrder)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
