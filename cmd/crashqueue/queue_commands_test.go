package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crashqueue/internal/config"
)

func TestCaptureListPeekDrop(t *testing.T) {
	env := setupCLITestEnv(t)
	src := t.TempDir()
	dump, event := writeCrashFiles(t, src, "first")

	out, _, err := runCLI(t, env.configPath, "capture", "--minidump", dump, "--event", event)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	requireContains(t, out, "Stored ")

	out, _, err = runCLI(t, env.configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "1 queued")

	out, _, err = runCLI(t, env.configPath, "queue", "peek", "--event")
	if err != nil {
		t.Fatalf("queue peek: %v", err)
	}
	requireContains(t, out, "Minidump:")
	requireContains(t, out, `{"app":"first"}`)

	out, _, err = runCLI(t, env.configPath, "queue", "drop")
	if err != nil {
		t.Fatalf("queue drop: %v", err)
	}
	requireContains(t, out, "Dropped ")

	out, _, err = runCLI(t, env.configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Queue is empty")

	out, _, err = runCLI(t, env.configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Dropped")
}

func TestQueueOnEmptySpool(t *testing.T) {
	env := setupCLITestEnv(t)
	for _, sub := range []string{"list", "peek", "drop"} {
		out, _, err := runCLI(t, env.configPath, "queue", sub)
		if err != nil {
			t.Fatalf("queue %s: %v", sub, err)
		}
		requireContains(t, out, "Queue is empty")
	}
}

func TestCaptureRejectsInvalidEvent(t *testing.T) {
	env := setupCLITestEnv(t)
	src := t.TempDir()
	dump, _ := writeCrashFiles(t, src, "bad")
	event := filepath.Join(src, "bad.txt")
	if err := os.WriteFile(event, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := runCLI(t, env.configPath, "capture", "--minidump", dump, "--event", event)
	if err == nil || !strings.Contains(err.Error(), "JSON") {
		t.Fatalf("expected invalid event error, got %v", err)
	}
}

func TestCaptureRequiresFlags(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env.configPath, "capture"); err == nil {
		t.Fatal("expected missing flag error")
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := setupCLITestEnv(t, func(cfg *config.Config) { cfg.History.Enabled = false })
	_, _, err := runCLI(t, env.configPath, "history")
	if err == nil || !strings.Contains(err.Error(), "history is disabled") {
		t.Fatalf("expected disabled error, got %v", err)
	}
}
