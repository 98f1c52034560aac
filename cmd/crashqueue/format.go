package main

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"crashqueue/internal/history"
)

func formatCount(n int) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// outcomeLabel renders "delete_failed" as "Delete Failed".
func outcomeLabel(outcome history.Outcome) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(string(outcome), "_", " "))
}

func baseName(path string) string {
	if path == "" {
		return "-"
	}
	return filepath.Base(path)
}
