// Package storage provides the persistence backends for alerts,
// schedules, and schedule artifacts.
//
// Two backends are available:
//
//   - MemoryStore: a mutex-protected in-memory store for tests and
//     ephemeral single-process deployments. State is lost on restart.
//
//   - SQLiteStore: durable single-file persistence via modernc.org/sqlite
//     with WAL journaling and periodic checkpoints. Suitable for
//     single-instance deployments that must survive restarts.
//
// Both backends implement alerts.Store and schedule.Store and share
// their transactional semantics: alert inserts deduplicate inside the
// write, schedule claims are compare-and-swap with an expiring lease,
// and Complete advances the schedule and records the artifact in one
// transaction.
package storage
