// Package filestore implements minidump.FileStore over a spool directory.
//
// Each crash is stored as <id>.dmp plus <id>.json. Writers hold an exclusive
// flock on the directory lock file while a pair is being published and
// listings hold a shared lock, so a listing never observes half of a pair.
// Dumps without an event file are left alone by listings; they are usually a
// crash handler that has not finished writing yet.
package filestore
