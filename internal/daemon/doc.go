// Package daemon owns the delivery process lifecycle.
//
// It wraps a deliver.Runner with flock-based locking so only one process
// uploads from a spool at a time, prunes the delivery ledger on startup, and
// reports whether another instance currently holds the lock. Upload policy
// lives in the deliver package; this package handles startup, shutdown, and
// exclusivity.
package daemon
