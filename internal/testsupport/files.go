package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"crashqueue/internal/minidump"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteMinidump creates <id>.dmp and <id>.json in dir with the minidump
// modification time set to modTime, and returns the matching record.
func WriteMinidump(t testing.TB, dir, id string, modTime time.Time) minidump.Record {
	t.Helper()

	record := minidump.Record{
		MinidumpPath: filepath.Join(dir, id+".dmp"),
		EventPath:    filepath.Join(dir, id+".json"),
	}
	WriteFile(t, record.MinidumpPath, 128)
	event := fmt.Sprintf(`{"events":[{"context":%q}]}`, id)
	if err := os.WriteFile(record.EventPath, []byte(event), 0o644); err != nil {
		t.Fatalf("write event %s: %v", record.EventPath, err)
	}
	if err := os.Chtimes(record.MinidumpPath, modTime, modTime); err != nil {
		t.Fatalf("chtimes %s: %v", record.MinidumpPath, err)
	}
	return record
}
