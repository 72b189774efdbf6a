// Package reconcile folds client progress snapshots into canonical records.
//
// Everything here is pure: callers supply the existing record, the incoming
// snapshot and the clock, and persist the result themselves.
package reconcile
