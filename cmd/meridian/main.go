// Meridian is a project budget forecasting and alerting engine with a
// recurring-task scheduler.
//
// It reads cost activity (time entries and direct costs) from a
// tracking database, derives burn rates, completion forecasts, and
// budget status on demand, raises threshold alerts, and produces
// recurring invoices and reports on schedule.
//
// Usage:
//
//	# Start the engine with default configuration
//	meridian run
//
//	# Start with a custom configuration file
//	meridian run --config /path/to/config.yaml
//
//	# Check one project's budget right now
//	meridian check --project proj-1
//
//	# Validate a configuration file
//	meridian validate --config /path/to/config.yaml
//
//	# Show version information
//	meridian version
package main

func main() {
	Execute()
}
