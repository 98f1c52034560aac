package main

import (
	"bytes"
	"strings"
	"testing"

	"crashqueue/internal/history"
)

func TestRenderStatusLine(t *testing.T) {
	plain := renderStatusLine("Queued", statusOK, "3", false)
	if !strings.Contains(plain, "Queued:") || !strings.Contains(plain, "[OK] 3") {
		t.Fatalf("unexpected line %q", plain)
	}
	if strings.Contains(plain, "\x1b[") {
		t.Fatalf("unexpected color codes in %q", plain)
	}
	colored := renderStatusLine("Queued", statusError, "", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red line, got %q", colored)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never terminals")
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatCount(1234567); got != "1,234,567" {
		t.Fatalf("formatCount = %q", got)
	}
	if got := formatBytes(512); got != "512 B" {
		t.Fatalf("formatBytes(512) = %q", got)
	}
	if got := formatBytes(3 << 20); got != "3.0 MiB" {
		t.Fatalf("formatBytes(3MiB) = %q", got)
	}
	if got := outcomeLabel(history.OutcomeDeleteFailed); got != "Delete Failed" {
		t.Fatalf("outcomeLabel = %q", got)
	}
}

func TestRenderTableFitsRows(t *testing.T) {
	columns := []tableColumn{
		{header: "Name"},
		{header: "Size", align: alignRight},
		{header: "Detail", maxWidth: 8},
	}
	rows := [][]string{
		{"short"},
		{"long", "10 B", "collector says no thanks", "extra"},
	}

	out := renderTable(columns, rows, "2 queued")
	requireContains(t, out, "2 queued")
	requireContains(t, out, "collecto")
	if strings.Contains(out, "collector says") || strings.Contains(out, "extra") {
		t.Fatalf("expected trimmed detail and dropped extra cell:\n%s", out)
	}
	if renderTable(nil, rows, "") != "" {
		t.Fatal("expected empty output without columns")
	}
}
