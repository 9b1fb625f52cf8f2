// Package dashboard assembles the JSON payloads served to budget
// dashboards: burn rate, completion estimate, per-user resource
// allocation, cost trends, budget status, and the cross-project
// summary.
//
// The package holds no state of its own; every payload is computed on
// demand from the activity source, the budget calculators, and the
// alert engine.
package dashboard
