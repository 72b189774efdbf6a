// Package aggregates implements the progress store over the table repos in
// internal/data/repos.
//
// Every write runs in its own transaction and is version guarded: inserts use
// ON CONFLICT DO NOTHING, updates are conditional on the stored version, and
// a write that touches no row is reported as a conflict so the caller can
// re-read and merge again.
package aggregates
