// Package report captures snapshots of the world and of the plan being
// executed, and stores them.
//
// Store implementations (in-memory here, SQLite in report/sqlite) are
// interchangeable. Callers should depend on the Store interface so they can
// swap backends in tests or production.
package report
