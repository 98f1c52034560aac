package minidump

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable reports that the store could not be listed. The queue
	// state is unchanged and the call can be retried.
	ErrStoreUnavailable = errors.New("minidump store unavailable")
	// ErrDeleteFailed reports that a pair could not be deleted. The queue has
	// already moved past it; the report is dropped from delivery.
	ErrDeleteFailed = errors.New("minidump delete failed")
)

// ErrorKind values returned by Error.ErrorKind.
const (
	KindUnavailable  = "unavailable"
	KindDeleteFailed = "delete_failed"
)

// Error wraps a store failure with the record it concerns.
type Error struct {
	Op     string
	Record Record
	kind   error
	Err    error
}

func (e *Error) Error() string {
	if e.Record == (Record{}) {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Record.MinidumpPath, e.kind, e.Err)
}

// Unwrap exposes both the sentinel and the store's underlying error.
func (e *Error) Unwrap() []error {
	return []error{e.kind, e.Err}
}

// ErrorKind classifies the failure for callers that map errors to outcomes.
func (e *Error) ErrorKind() string {
	if e.kind == ErrStoreUnavailable {
		return KindUnavailable
	}
	return KindDeleteFailed
}

// KindOf returns the ErrorKind of the first queue error in err's chain, or
// an empty string when err did not come from a Queue.
func KindOf(err error) string {
	var qerr *Error
	if errors.As(err, &qerr) {
		return qerr.ErrorKind()
	}
	return ""
}

// Retryable reports whether err leaves the queue in a state where repeating the
// same call may succeed. A failed delete is not retryable because the queue has
// already moved on.
func Retryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
