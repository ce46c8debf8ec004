// Package store keeps player statistics and finished runs in a SQLite file.
//
// Three tables hold the data: statistics (a single row of cross-run
// progress), runs (seed, selection, starting snapshot and summary of each
// run) and run_ticks (the id-only tick records of a run in emission order).
//
// # Ordering and identity
//
// Runs are ordered by the store-assigned seq and never by time. Run ids are
// UUIDv7 strings used only for lookup. Writing a run id twice keeps the
// first copy, and CommitRun stores a run together with the statistics it
// produced in one transaction.
//
// # Queries
//
// Every run query orders by seq and every tick query by idx. FindRuns takes
// a RunFilter compiled from a run condition; the parts the runs table can
// answer become bound SQL parameters, and the caller evaluates the whole
// condition on what comes back.
//
// # Schema
//
// The embedded schema.sql creates the tables. Later changes are numbered
// migrations tracked in PRAGMA user_version. Connections run in WAL mode
// with foreign keys on and a five second busy timeout.
//
// Stored JSON is canonical (ir.MarshalCanonical), so equal records produce
// byte-identical rows.
package store
