package preflight

import (
	"context"

	"crashqueue/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := DirectoryChecks(cfg)
	results = append(results, CheckAPIKey(cfg.Delivery.APIKey))
	results = append(results, CheckCollector(ctx, cfg.Delivery.Endpoint))
	return results
}

// DirectoryChecks verifies the spool and state directories.
func DirectoryChecks(cfg *config.Config) []Result {
	return []Result{
		CheckDirectoryAccess("Minidump directory", cfg.Paths.MinidumpDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
