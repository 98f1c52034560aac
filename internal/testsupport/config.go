package testsupport

import (
	"path/filepath"
	"testing"

	"crashqueue/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.MinidumpDir = filepath.Join(base, "minidumps")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Delivery.APIKey = "test"
	cfgVal.Delivery.Endpoint = "http://127.0.0.1:0/minidump"
	cfgVal.Delivery.PollInterval = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithEndpoint points delivery at the given collector URL.
func WithEndpoint(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Delivery.Endpoint = endpoint
	}
}

// WithMaxMinidumpMiB overrides the upload size ceiling.
func WithMaxMinidumpMiB(mib int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Delivery.MaxMinidumpMiB = mib
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
