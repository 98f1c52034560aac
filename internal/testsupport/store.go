package testsupport

import (
	"testing"

	"crashqueue/internal/config"
	"crashqueue/internal/filestore"
	"crashqueue/internal/history"
	"crashqueue/internal/logging"
)

// MustOpenHistory opens the delivery ledger for tests and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenFileStore opens the minidump spool configured in cfg.
func MustOpenFileStore(t testing.TB, cfg *config.Config) *filestore.Store {
	t.Helper()

	store, err := filestore.Open(cfg.Paths.MinidumpDir, logging.NewNop())
	if err != nil {
		t.Fatalf("filestore.Open: %v", err)
	}
	return store
}
