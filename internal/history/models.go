package history

import "time"

// Outcome is what happened to one report.
type Outcome string

const (
	// OutcomeDelivered means the collector accepted the report and the pair was deleted.
	OutcomeDelivered Outcome = "delivered"
	// OutcomeRejected means the collector permanently refused the report; the pair was removed undelivered.
	OutcomeRejected Outcome = "rejected"
	// OutcomeDeleteFailed means the queue skipped a pair it could not delete; the files may remain on disk.
	OutcomeDeleteFailed Outcome = "delete_failed"
	// OutcomeDropped means the pair was removed by an operator without delivery.
	OutcomeDropped Outcome = "dropped"
)

// Entry is one ledger row.
type Entry struct {
	ID           int64
	AttemptID    string
	MinidumpPath string
	EventPath    string
	Outcome      Outcome
	Detail       string
	Bytes        int64
	RecordedAt   time.Time
}

// Summary aggregates ledger rows by outcome.
type Summary struct {
	Total      int
	ByOutcome  map[Outcome]int
	LastRecord time.Time
}
