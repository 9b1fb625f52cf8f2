// Package budget implements budget consumption analysis for projects.
//
// # Overview
//
// The package provides the pure computation layer of Meridian:
//
//   - Aggregator: sums billable cost activity over a date range
//   - Calculator: derives daily/weekly/monthly burn rates
//   - Forecaster: projects budget exhaustion with variance-based confidence
//   - Analyzer: buckets costs into periods and classifies spending trends
//   - Snapshot: point-in-time budget status for a project
//
// All computations are read-only and side-effect free; they can run
// concurrently across projects without coordination. Monetary values use
// fixed-point arithmetic throughout (see package money); rounding happens
// only at presentation.
//
// # Usage
//
//	agg := budget.NewAggregator(source)
//	calc := budget.NewCalculator(agg)
//	rate, err := calc.Rate(ctx, projectID, 30)
//
//	fc := budget.NewForecaster(source, agg)
//	est, err := fc.Estimate(ctx, projectID, 30)
//	if !est.Applicable {
//	    // no budget configured; distinct from a zero-valued forecast
//	}
package budget
