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
	c.normalizeDelivery()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.MinidumpDir) == "" {
		c.Paths.MinidumpDir = defaultMinidumpDir
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	var err error
	if c.Paths.MinidumpDir, err = expandPath(c.Paths.MinidumpDir); err != nil {
		return fmt.Errorf("paths.minidump_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDelivery() {
	if c.Delivery.APIKey == "" {
		if value, ok := os.LookupEnv("CRASHQUEUE_API_KEY"); ok {
			c.Delivery.APIKey = value
		}
	}
	c.Delivery.APIKey = strings.TrimSpace(c.Delivery.APIKey)
	if value, ok := os.LookupEnv("CRASHQUEUE_ENDPOINT"); ok && strings.TrimSpace(value) != "" {
		c.Delivery.Endpoint = value
	}
	c.Delivery.Endpoint = strings.TrimSpace(c.Delivery.Endpoint)
	if c.Delivery.Endpoint == "" {
		c.Delivery.Endpoint = defaultEndpoint
	}
	if c.Delivery.RequestTimeout <= 0 {
		c.Delivery.RequestTimeout = defaultRequestTimeout
	}
	if c.Delivery.PollInterval <= 0 {
		c.Delivery.PollInterval = defaultPollInterval
	}
	c.Delivery.PayloadVersion = strings.TrimSpace(c.Delivery.PayloadVersion)
	if c.Delivery.PayloadVersion == "" {
		c.Delivery.PayloadVersion = defaultPayloadVersion
	}
	c.Delivery.UserAgent = strings.TrimSpace(c.Delivery.UserAgent)
	if c.Delivery.UserAgent == "" {
		c.Delivery.UserAgent = defaultDeliveryUserAgent
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text", "pretty":
		format = "console"
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	if level == "warning" {
		level = "warn"
	}
	c.Logging.Level = level
}
