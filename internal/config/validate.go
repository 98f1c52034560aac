package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDelivery(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.MinidumpDir == "" {
		return errors.New("paths.minidump_dir must be set")
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	if c.Paths.MinidumpDir == c.Paths.StateDir {
		return errors.New("paths.state_dir must differ from paths.minidump_dir")
	}
	return nil
}

func (c *Config) validateDelivery() error {
	parsed, err := url.Parse(c.Delivery.Endpoint)
	if err != nil {
		return fmt.Errorf("delivery.endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("delivery.endpoint must be an http(s) URL, got %q", c.Delivery.Endpoint)
	}
	if parsed.Host == "" {
		return fmt.Errorf("delivery.endpoint is missing a host: %q", c.Delivery.Endpoint)
	}
	if c.Delivery.MaxMinidumpMiB < 0 {
		return errors.New("delivery.max_minidump_mib must be zero (unlimited) or positive")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be zero (keep forever) or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

// RequireAPIKey reports a descriptive error when delivery credentials are missing.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.Delivery.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/crashqueue/config.toml"
	}
	return fmt.Errorf("delivery.api_key is required. Set CRASHQUEUE_API_KEY env var or edit %s (create with 'crashqueue config init')", defaultPath)
}
