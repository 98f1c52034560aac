package minidump

import (
	"context"
	"fmt"
	"log/slog"

	"crashqueue/internal/logging"
)

// State describes whether the queue holds a known head.
type State int

const (
	// StateEmpty means the next Peek must list the store.
	StateEmpty State = iota
	// StateHeadReady means Peek returns the cached head without touching the store.
	StateHeadReady
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateHeadReady:
		return "head_ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Queue is an ordered view over a FileStore listing.
type Queue struct {
	store  FileStore
	logger *slog.Logger
	cache  []Record
}

// Option customizes a Queue.
type Option func(*Queue)

// WithLogger attaches a logger for head transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = logging.NewComponentLogger(logger, "queue")
	}
}

// NewQueue returns an empty queue over store.
func NewQueue(store FileStore, opts ...Option) *Queue {
	q := &Queue{store: store, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Peek returns the current head without consuming it. ok is false when the
// store has nothing queued. The store is listed only when the cache is empty.
func (q *Queue) Peek(ctx context.Context) (Record, bool, error) {
	if len(q.cache) == 0 {
		records, err := q.store.ListMinidumps(ctx)
		if err != nil {
			return Record{}, false, &Error{Op: "list minidumps", kind: ErrStoreUnavailable, Err: err}
		}
		q.cache = append(q.cache[:0], records...)
		if len(q.cache) > 0 {
			q.logger.Debug("queue refreshed",
				logging.Int("count", len(q.cache)),
				logging.String(logging.FieldMinidump, q.cache[0].MinidumpPath),
			)
		}
	}
	if len(q.cache) == 0 {
		return Record{}, false, nil
	}
	return q.cache[0], true, nil
}

// Remove deletes record's pair from the store. A nil record is a no-op. When
// record is the current head the queue advances even if the delete fails;
// any other record is deleted without moving the head and is dropped from
// the cached listing. A failed delete matches ErrDeleteFailed.
func (q *Queue) Remove(ctx context.Context, record *Record) error {
	if record == nil {
		return nil
	}
	target := *record

	err := q.store.DeleteMinidump(ctx, target)
	if len(q.cache) > 0 && q.cache[0].Equal(target) {
		q.advance()
	} else {
		q.forget(target)
	}
	if err != nil {
		q.logger.Debug("queue skipped undeletable record",
			logging.String(logging.FieldMinidump, target.MinidumpPath),
			logging.Error(err),
		)
		return &Error{Op: "delete minidump", Record: target, kind: ErrDeleteFailed, Err: err}
	}
	return nil
}

// State reports whether a head is cached.
func (q *Queue) State() State {
	if len(q.cache) == 0 {
		return StateEmpty
	}
	return StateHeadReady
}

// Len returns the number of records cached from the last listing.
func (q *Queue) Len() int {
	return len(q.cache)
}

func (q *Queue) advance() {
	q.cache[0] = Record{}
	q.cache = q.cache[1:]
	if len(q.cache) == 0 {
		q.cache = nil
	}
}

// forget drops cached entries equal to record without touching the head.
func (q *Queue) forget(record Record) {
	if len(q.cache) < 2 {
		return
	}
	kept := q.cache[:1]
	for _, cached := range q.cache[1:] {
		if !cached.Equal(record) {
			kept = append(kept, cached)
		}
	}
	clear(q.cache[len(kept):])
	q.cache = kept
}
