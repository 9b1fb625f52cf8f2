// Package alerts implements the budget alert state machine.
//
// # Overview
//
// Per (project, alert type) the logical state is none, unacknowledged, or
// acknowledged. The Engine evaluates a project's budget snapshot against
// its warning threshold, maps the consumed percentage to an alert type,
// and inserts an alert record unless an unacknowledged alert of the same
// type already exists within the dedup window.
//
// Alert records are append-only: inserting a new alert never edits alerts
// of other types, and acknowledging an alert is a one-way transition. A
// fresh threshold crossing after an acknowledgement creates a new alert
// rather than reopening the old one.
//
// # Concurrency
//
// Concurrent evaluators may race on the same crossing; the Store contract
// requires the dedup check to be re-run inside the insert transaction, so
// at most one unacknowledged alert of a given (project, type) exists
// within the window regardless of evaluator count.
package alerts
