package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeUpload()
	c.normalizeGallery()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		c.Paths.DownloadDir = defaultDownloadDir
	}
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	if c.API.BaseURL == "" {
		if value, ok := os.LookupEnv("LENSCAP_API_URL"); ok {
			c.API.BaseURL = value
		}
	}
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.RequestTimeout <= 0 {
		c.API.RequestTimeout = defaultRequestTimeout
	}
	c.API.UserAgent = strings.TrimSpace(c.API.UserAgent)
	if c.API.UserAgent == "" {
		c.API.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeUpload() {
	if c.Upload.MaxFileSizeMiB <= 0 {
		c.Upload.MaxFileSizeMiB = defaultMaxFileSizeMiB
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		c.Upload.AllowedExtensions = defaultAllowedExtensions()
	}
	normalized := make([]string, 0, len(c.Upload.AllowedExtensions))
	for _, ext := range c.Upload.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	c.Upload.AllowedExtensions = normalized
	if c.Upload.PollInterval <= 0 {
		c.Upload.PollInterval = defaultPollInterval
	}
	if c.Upload.PollInitialDelay < 0 {
		c.Upload.PollInitialDelay = defaultPollInitialDelay
	}
	if c.Upload.PollMaxAttempts <= 0 {
		c.Upload.PollMaxAttempts = defaultPollMaxAttempts
	}
}

func (c *Config) normalizeGallery() {
	if c.Gallery.PageSize <= 0 {
		c.Gallery.PageSize = defaultGalleryPageSize
	}
	c.Gallery.SortOrder = strings.ToLower(strings.TrimSpace(c.Gallery.SortOrder))
	if c.Gallery.SortOrder == "" {
		c.Gallery.SortOrder = defaultGallerySortOrder
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
