// Package preflight provides readiness checks for the filesystem paths and
// collector that crashqueue depends on.
//
// The "crashqueue doctor" command runs RunAll and prints each Result. The
// deliver command runs the directory checks before taking the delivery lock
// so a misconfigured spool fails fast instead of looping on list errors.
package preflight
