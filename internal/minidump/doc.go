// Package minidump exposes the ordered delivery queue over a directory of
// crash artifacts.
//
// A Record pairs a minidump file with its event metadata file. Queue presents a
// stable view over a FileStore listing: Peek hands out the current head until
// Remove advances past it. The directory listing is the only source of truth;
// the queue caches one listing at a time and re-reads the store only once that
// cache has drained.
//
// Remove always advances, even when the store fails to delete the pair, so a
// single undeletable artifact cannot wedge delivery of everything behind it.
// Errors distinguish a dropped report (ErrDeleteFailed) from a store that is
// temporarily unreadable (ErrStoreUnavailable).
//
// Queue is not safe for concurrent use; drive it from a single consumer loop.
package minidump
