package deliver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"crashqueue/internal/history"
	"crashqueue/internal/logging"
	"crashqueue/internal/minidump"
)

// Ledger records delivery outcomes.
type Ledger interface {
	Record(ctx context.Context, entry history.Entry) (int64, error)
}

// Result describes what one Step did.
type Result int

const (
	// ResultIdle means the queue had nothing to deliver.
	ResultIdle Result = iota
	// ResultUnavailable means the store could not be listed.
	ResultUnavailable
	// ResultRetry means the upload failed transiently and the head stays queued.
	ResultRetry
	// ResultDelivered means the report was uploaded and removed.
	ResultDelivered
	// ResultRejected means the report failed permanently and was removed undelivered.
	ResultRejected
	// ResultDeleteFailed means the report was handled but its files could not be deleted; the queue skipped it.
	ResultDeleteFailed
	// ResultSkipped means a previously skipped pair came back in a listing and was not uploaded again.
	ResultSkipped
)

func (r Result) String() string {
	switch r {
	case ResultIdle:
		return "idle"
	case ResultUnavailable:
		return "unavailable"
	case ResultRetry:
		return "retry"
	case ResultDelivered:
		return "delivered"
	case ResultRejected:
		return "rejected"
	case ResultDeleteFailed:
		return "delete_failed"
	case ResultSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// Stats counts Step results.
type Stats struct {
	Delivered    int
	Rejected     int
	DeleteFailed int
	Skipped      int
	Retries      int
}

func (s *Stats) add(result Result) {
	switch result {
	case ResultDelivered:
		s.Delivered++
	case ResultRejected:
		s.Rejected++
	case ResultDeleteFailed:
		s.DeleteFailed++
	case ResultSkipped:
		s.Skipped++
	case ResultRetry:
		s.Retries++
	}
}

// Runner drives a minidump.Queue through an Uploader.
type Runner struct {
	queue        *minidump.Queue
	uploader     Uploader
	ledger       Ledger
	logger       *slog.Logger
	pollInterval time.Duration
	skipped      map[minidump.Record]struct{}
	stats        Stats
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithLedger records every outcome in ledger.
func WithLedger(ledger Ledger) RunnerOption {
	return func(r *Runner) {
		r.ledger = ledger
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logging.NewComponentLogger(logger, "deliver")
	}
}

// WithPollInterval sets the wait after an idle queue or a failed attempt.
func WithPollInterval(interval time.Duration) RunnerOption {
	return func(r *Runner) {
		if interval > 0 {
			r.pollInterval = interval
		}
	}
}

// NewRunner returns a runner over queue and uploader.
func NewRunner(queue *minidump.Queue, uploader Uploader, opts ...RunnerOption) *Runner {
	r := &Runner{
		queue:        queue,
		uploader:     uploader,
		logger:       logging.NewNop(),
		pollInterval: 10 * time.Second,
		skipped:      make(map[minidump.Record]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stats returns counters accumulated since the runner was created.
func (r *Runner) Stats() Stats {
	return r.stats
}

// Step performs one peek, upload, remove cycle. The error is non-nil for
// ResultUnavailable, ResultRetry, and ResultDeleteFailed.
func (r *Runner) Step(ctx context.Context) (Result, error) {
	result, err := r.step(ctx)
	r.stats.add(result)
	return result, err
}

func (r *Runner) step(ctx context.Context) (Result, error) {
	head, ok, err := r.queue.Peek(ctx)
	if err != nil {
		return ResultUnavailable, err
	}
	if !ok {
		return ResultIdle, nil
	}

	logger := r.logger.With(
		logging.String(logging.FieldMinidump, head.MinidumpPath),
		logging.String(logging.FieldEvent, head.EventPath),
	)

	if _, seen := r.skipped[head]; seen {
		if err := r.queue.Remove(ctx, &head); err != nil {
			logger.Debug("previously skipped minidump still undeletable", logging.Error(err))
			return ResultSkipped, nil
		}
		delete(r.skipped, head)
		logger.Info("previously skipped minidump deleted",
			logging.String(logging.FieldEventType, "minidump_cleanup"),
		)
		return ResultSkipped, nil
	}

	attemptID := uuid.NewString()
	logger = logger.With(logging.String(logging.FieldAttemptID, attemptID))
	size := fileSize(head.MinidumpPath)

	started := time.Now()
	uploadErr := r.uploader.Upload(ctx, head)
	if uploadErr != nil && !IsPermanent(uploadErr) {
		if errors.Is(uploadErr, context.Canceled) && ctx.Err() != nil {
			return ResultRetry, uploadErr
		}
		logging.WarnWithContext(logger, "minidump upload failed; will retry",
			"minidump_upload_retry",
			logging.Error(uploadErr),
			logging.String(logging.FieldErrorHint, "check network access and delivery.endpoint"),
			logging.String(logging.FieldImpact, "report stays queued"),
		)
		return ResultRetry, uploadErr
	}

	result, outcome := ResultDelivered, history.OutcomeDelivered
	detail := ""
	if uploadErr != nil {
		result, outcome = ResultRejected, history.OutcomeRejected
		detail = uploadErr.Error()
		logging.WarnWithContext(logger, "minidump rejected; removing without delivery",
			"minidump_rejected",
			logging.Error(uploadErr),
			logging.String(logging.FieldErrorHint, "inspect the artifact or collector response"),
			logging.String(logging.FieldImpact, "crash report dropped"),
		)
	} else {
		logger.Info("minidump delivered",
			logging.String(logging.FieldEventType, "minidump_delivered"),
			logging.Duration("duration", time.Since(started)),
			logging.Int64("bytes", size),
		)
	}

	removeErr := r.queue.Remove(ctx, &head)
	if removeErr != nil {
		r.skipped[head] = struct{}{}
		result, outcome = ResultDeleteFailed, history.OutcomeDeleteFailed
		detail = joinDetail(detail, removeErr.Error())
		logging.WarnWithContext(logger, "minidump could not be deleted; skipping",
			"minidump_delete_failed",
			logging.Error(removeErr),
			logging.String(logging.FieldErrorHint, "check permissions on the minidump directory"),
			logging.String(logging.FieldImpact, "files remain on disk but will not be uploaded again"),
		)
	}

	r.record(ctx, history.Entry{
		AttemptID:    attemptID,
		MinidumpPath: head.MinidumpPath,
		EventPath:    head.EventPath,
		Outcome:      outcome,
		Detail:       detail,
		Bytes:        size,
	}, logger)

	return result, removeErr
}

// Drain steps until the queue is empty and returns the counts of this call.
// It stops early on a transient upload failure or a retryable queue error,
// returning that error, and when only previously skipped pairs remain.
func (r *Runner) Drain(ctx context.Context) (Stats, error) {
	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		result, err := r.Step(ctx)
		stats.add(result)
		switch {
		case result == ResultIdle:
			return stats, nil
		case result == ResultRetry, minidump.Retryable(err):
			return stats, err
		case result == ResultSkipped && r.queue.State() == minidump.StateEmpty:
			return stats, nil
		}
	}
}

// Run steps until ctx is cancelled, waiting the poll interval whenever there
// is nothing to do or an attempt failed.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("delivery loop started",
		logging.String(logging.FieldEventType, "delivery_started"),
		logging.Duration("poll_interval", r.pollInterval),
	)
	defer func() {
		r.logger.Info("delivery loop stopped",
			logging.String(logging.FieldEventType, "delivery_stopped"),
			logging.Int("delivered", r.stats.Delivered),
			logging.Int("rejected", r.stats.Rejected),
			logging.Int("delete_failed", r.stats.DeleteFailed),
		)
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}
		result, err := r.Step(ctx)
		wait := result == ResultIdle || result == ResultRetry || minidump.Retryable(err)
		switch result {
		case ResultUnavailable:
			logging.ErrorWithContext(r.logger, "minidump store unavailable",
				"minidump_store_unavailable",
				logging.Error(err),
				logging.String(logging.FieldErrorKind, minidump.KindOf(err)),
				logging.String(logging.FieldErrorHint, "check that paths.minidump_dir exists and is readable"),
			)
		case ResultSkipped:
			wait = r.queue.State() == minidump.StateEmpty
		}
		if !wait {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.pollInterval):
		}
	}
}

func (r *Runner) record(ctx context.Context, entry history.Entry, logger *slog.Logger) {
	if r.ledger == nil {
		return
	}
	if _, err := r.ledger.Record(ctx, entry); err != nil {
		logging.WarnWithContext(logger, "failed to record delivery outcome",
			"history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "delivery history incomplete"),
		)
	}
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func joinDetail(parts ...string) string {
	out := ""
	for _, part := range parts {
		if part == "" {
			continue
		}
		if out != "" {
			out += "; "
		}
		out += part
	}
	return out
}
