package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"crashqueue/internal/logging"
	"crashqueue/internal/minidump"
)

const (
	// MinidumpExt is the suffix of crash dump files.
	MinidumpExt = ".dmp"
	// EventExt is the suffix of event metadata files.
	EventExt = ".json"

	lockFileName   = ".crashqueue.lock"
	tempPrefix     = "."
	lockRetryDelay = 25 * time.Millisecond
)

// ErrInvalidEvent is returned by Save when the event payload is not JSON.
var ErrInvalidEvent = errors.New("event metadata is not valid JSON")

// Store is a directory of minidump/event pairs.
type Store struct {
	dir    string
	lock   *flock.Flock
	logger *slog.Logger
}

var _ minidump.FileStore = (*Store)(nil)

// Open prepares dir for use as a spool directory.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("filestore: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create minidump directory: %w", err)
	}
	return &Store{
		dir:    dir,
		lock:   flock.New(filepath.Join(dir, lockFileName)),
		logger: logging.NewComponentLogger(logger, "filestore"),
	}, nil
}

// Dir returns the spool directory.
func (s *Store) Dir() string {
	return s.dir
}

type listed struct {
	record  minidump.Record
	name    string
	modTime time.Time
}

// ListMinidumps returns complete pairs ordered by minidump modification time,
// oldest first, with the file name as a tie breaker.
func (s *Store) ListMinidumps(ctx context.Context) ([]minidump.Record, error) {
	ok, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire shared lock: %w", err)
	}
	if !ok {
		return nil, errors.New("acquire shared lock: not acquired")
	}
	defer s.unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read minidump directory: %w", err)
	}

	events := make(map[string]struct{}, len(entries)/2)
	for _, entry := range entries {
		name := entry.Name()
		if entry.Type().IsRegular() && strings.HasSuffix(name, EventExt) && !strings.HasPrefix(name, tempPrefix) {
			events[strings.TrimSuffix(name, EventExt)] = struct{}{}
		}
	}

	found := make([]listed, 0, len(events))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, tempPrefix) || !strings.HasSuffix(name, MinidumpExt) {
			continue
		}
		id := strings.TrimSuffix(name, MinidumpExt)
		if _, ok := events[id]; !ok {
			s.logger.Debug("minidump without event file skipped", logging.String(logging.FieldMinidump, name))
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		found = append(found, listed{
			record:  s.recordFor(id),
			name:    name,
			modTime: info.ModTime(),
		})
	}

	sort.SliceStable(found, func(i, j int) bool {
		if !found[i].modTime.Equal(found[j].modTime) {
			return found[i].modTime.Before(found[j].modTime)
		}
		return found[i].name < found[j].name
	})

	records := make([]minidump.Record, len(found))
	for i, item := range found {
		records[i] = item.record
	}
	return records, nil
}

// DeleteMinidump removes both files of the pair. Both removals are attempted;
// any failure, including an already missing file, is reported.
func (s *Store) DeleteMinidump(_ context.Context, record minidump.Record) error {
	var errs []error
	for _, path := range []string{record.MinidumpPath, record.EventPath} {
		if strings.TrimSpace(path) == "" {
			errs = append(errs, errors.New("empty path"))
			continue
		}
		if err := os.Remove(path); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("delete minidump pair: %w", err)
	}
	return nil
}

// Save publishes a new pair. The minidump is streamed from r; event must be a
// JSON document. Both files become visible to listings atomically.
func (s *Store) Save(ctx context.Context, r io.Reader, event []byte) (minidump.Record, error) {
	if !json.Valid(event) {
		return minidump.Record{}, ErrInvalidEvent
	}

	id := uuid.NewString()
	record := s.recordFor(id)
	dumpTemp := filepath.Join(s.dir, tempPrefix+id+MinidumpExt+".tmp")
	eventTemp := filepath.Join(s.dir, tempPrefix+id+EventExt+".tmp")
	defer os.Remove(dumpTemp)
	defer os.Remove(eventTemp)

	if err := writeFile(dumpTemp, r); err != nil {
		return minidump.Record{}, fmt.Errorf("write minidump: %w", err)
	}
	if err := os.WriteFile(eventTemp, event, 0o644); err != nil {
		return minidump.Record{}, fmt.Errorf("write event: %w", err)
	}

	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return minidump.Record{}, fmt.Errorf("acquire exclusive lock: %w", err)
	}
	if !ok {
		return minidump.Record{}, errors.New("acquire exclusive lock: not acquired")
	}
	defer s.unlock()

	if err := os.Rename(dumpTemp, record.MinidumpPath); err != nil {
		return minidump.Record{}, fmt.Errorf("publish minidump: %w", err)
	}
	if err := os.Rename(eventTemp, record.EventPath); err != nil {
		_ = os.Remove(record.MinidumpPath)
		return minidump.Record{}, fmt.Errorf("publish event: %w", err)
	}

	s.logger.Info("minidump stored",
		logging.String(logging.FieldEventType, "minidump_stored"),
		logging.String(logging.FieldMinidump, record.MinidumpPath),
	)
	return record, nil
}

// Count returns the number of complete pairs currently queued.
func (s *Store) Count(ctx context.Context) (int, error) {
	records, err := s.ListMinidumps(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// ReadEvent loads the event metadata of record.
func (s *Store) ReadEvent(record minidump.Record) ([]byte, error) {
	data, err := os.ReadFile(record.EventPath)
	if err != nil {
		return nil, fmt.Errorf("read event: %w", err)
	}
	return data, nil
}

func (s *Store) recordFor(id string) minidump.Record {
	return minidump.Record{
		MinidumpPath: filepath.Join(s.dir, id+MinidumpExt),
		EventPath:    filepath.Join(s.dir, id+EventExt),
	}
}

func (s *Store) unlock() {
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release spool lock", logging.Error(err))
	}
}

func writeFile(path string, r io.Reader) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, r); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
