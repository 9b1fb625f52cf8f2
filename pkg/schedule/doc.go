// Package schedule implements the recurring-task scheduler.
//
// # Overview
//
// A Schedule describes periodic work (invoice generation, report
// dispatch, webhook retry sweeps) with a cadence of daily, weekly,
// monthly, or a custom cron expression. The Scheduler polls for due
// schedules on a fixed tick, claims each one atomically, generates the
// occurrence's artifact exactly once, advances the schedule, and hands
// the artifact to the delivery worker.
//
// # Cadence Anchoring
//
// Next-run times advance from the schedule's own due time, not from the
// wall clock at execution. A delayed tick therefore catches up one missed
// period per tick, with distinct period keys, rather than skipping or
// duplicating periods.
//
// # Idempotence
//
// Artifacts are keyed by (schedule ID, period key) with a unique
// constraint in the store. Retries and concurrent scheduler instances
// can re-attempt an occurrence freely; only one artifact is ever
// produced for it. The claim is a compare-and-set on the observed
// next-run time with a short lease, so a crashed instance's claim
// expires and the occurrence is retried on a later tick.
package schedule
