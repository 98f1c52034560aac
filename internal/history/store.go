package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages the delivery ledger backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	// Fixed width so recorded_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the ledger database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history: database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends entry to the ledger and returns its row ID. A zero
// RecordedAt is replaced with the current time.
func (s *Store) Record(ctx context.Context, entry Entry) (int64, error) {
	if entry.Outcome == "" {
		return 0, errors.New("history: outcome is required")
	}
	recordedAt := entry.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO deliveries (attempt_id, minidump_path, event_path, outcome, detail, bytes, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.AttemptID, entry.MinidumpPath, entry.EventPath, string(entry.Outcome),
		entry.Detail, entry.Bytes, recordedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("record delivery: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first. A non-positive limit returns all rows.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, attempt_id, minidump_path, event_path, outcome, detail, bytes, recorded_at
		FROM deliveries ORDER BY recorded_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry   Entry
			outcome string
			stamp   string
		)
		if err := rows.Scan(&entry.ID, &entry.AttemptID, &entry.MinidumpPath, &entry.EventPath,
			&outcome, &entry.Detail, &entry.Bytes, &stamp); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		entry.Outcome = Outcome(outcome)
		if entry.RecordedAt, err = time.Parse(timeLayout, stamp); err != nil {
			return nil, fmt.Errorf("parse recorded_at %q: %w", stamp, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Summary counts ledger rows by outcome.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT outcome, COUNT(1), MAX(recorded_at) FROM deliveries GROUP BY outcome`)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize deliveries: %w", err)
	}
	defer rows.Close()

	summary := Summary{ByOutcome: make(map[Outcome]int)}
	for rows.Next() {
		var (
			outcome string
			count   int
			latest  string
		)
		if err := rows.Scan(&outcome, &count, &latest); err != nil {
			return Summary{}, fmt.Errorf("scan summary: %w", err)
		}
		summary.ByOutcome[Outcome(outcome)] = count
		summary.Total += count
		if stamp, parseErr := time.Parse(timeLayout, latest); parseErr == nil && stamp.After(summary.LastRecord) {
			summary.LastRecord = stamp
		}
	}
	return summary, rows.Err()
}

// Prune deletes entries recorded before cutoff and returns the number removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM deliveries WHERE recorded_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune deliveries: %w", err)
	}
	return res.RowsAffected()
}
