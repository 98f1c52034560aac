// Package main hosts the crashqueue CLI entrypoint and command graph.
//
// The Cobra-based command tree exposes spool inspection, crash capture, the
// delivery loop, ledger history, and configuration scaffolding. It centralizes
// configuration resolution and logging setup so subcommands can focus on
// output instead of wiring.
//
// Keep this package lean: queue and delivery behavior lives in the internal
// packages and is surfaced here through dedicated commands or flags.
package main
