package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"lenscap/internal/api"
	"lenscap/internal/config"
	"lenscap/internal/logging"
	"lenscap/internal/notifications"
	"lenscap/internal/session"
	"lenscap/internal/storage"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// appSession bundles the wired client stack for one command invocation.
type appSession struct {
	cfg      *config.Config
	logger   *slog.Logger
	tokens   *session.TokenStore
	client   *api.Client
	guard    *session.Guard
	notifier notifications.Service
}

// openSession wires the session state file, token store, backend client, and
// guard together. Every authenticated command goes through this path so they
// all observe the same persisted session.
func (c *commandContext) openSession() (*appSession, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	tokens := session.NewTokenStore(storage.NewFileStore(cfg.SessionStatePath()))
	client, err := api.NewClient(cfg.API.BaseURL, tokens,
		api.WithTimeout(time.Duration(cfg.API.RequestTimeout)*time.Second),
		api.WithUserAgent(cfg.API.UserAgent),
	)
	if err != nil {
		return nil, err
	}

	return &appSession{
		cfg:      cfg,
		logger:   logger,
		tokens:   tokens,
		client:   client,
		guard:    session.NewGuard(tokens, client, logger),
		notifier: notifications.NewService(cfg),
	}, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
