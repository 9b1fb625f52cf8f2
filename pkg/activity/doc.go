// Package activity provides read-only access to the cost activity that
// budget computations consume.
//
// # Overview
//
// Meridian does not own project or time-entry CRUD; those live with
// external collaborators. This package defines the records the core reads
// (projects, billable time entries, billable direct costs) and the Source
// interface through which every computation obtains them.
//
// Two implementations are provided:
//
//   - MemorySource: in-memory source for tests and embedding
//   - SQLiteSource: read-only source over the application database
//
// # Thread Safety
//
// Both sources are safe for concurrent use. MemorySource guards its maps
// with a read-write mutex; SQLiteSource relies on database/sql connection
// pooling.
package activity
