// Package aggregates declares the persistence boundary of the progress
// engine: the ProgressStore contract, its coded errors, and the version
// protocol callers rely on for optimistic merges. Implementations live in
// internal/data/aggregates.
package aggregates
