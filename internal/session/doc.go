// Package session persists Maya reference scan state between pmtm invocations.
//
// A CLI has no long-lived process to hold the scene map and remap table the
// way an interactive tool would, so `pmtm refs scan` writes them to SQLite and
// later commands (remap, reset, rewrite, export) load them back. Only the most
// recent scan is kept; rewrite history survives rescans.
//
// Mutating commands serialize through Lock, an exclusive file lock beside the
// database, so two terminals cannot scan and rewrite the same state at once.
package session
