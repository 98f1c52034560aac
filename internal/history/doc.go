// Package history persists delivery outcomes in SQLite.
//
// The minidump spool only knows what is still waiting; once a pair is deleted
// nothing on disk records whether it reached the collector or was dropped.
// The Store keeps a ledger of delivered, dropped, and delete-failed reports so
// operators can see what happened to crashes after the fact.
//
// The ledger is advisory. Schema changes bump schemaVersion; users delete the
// database to adopt the new schema.
package history
