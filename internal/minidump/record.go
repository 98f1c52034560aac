package minidump

import "context"

// Record identifies one crash artifact pair on disk.
type Record struct {
	MinidumpPath string `json:"minidumpPath"`
	EventPath    string `json:"eventPath"`
}

// Equal reports whether both records reference the same pair of files.
func (r Record) Equal(other Record) bool {
	return r.MinidumpPath == other.MinidumpPath && r.EventPath == other.EventPath
}

// FileStore owns the physical directory of crash artifacts.
type FileStore interface {
	// ListMinidumps enumerates the pairs currently present, in delivery order.
	// It must not mutate the directory.
	ListMinidumps(ctx context.Context) ([]Record, error)
	// DeleteMinidump removes both files of the pair.
	DeleteMinidump(ctx context.Context, record Record) error
}
