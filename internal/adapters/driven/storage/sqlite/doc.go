// Package sqlite provides the SQLite-backed record manager.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. A single Store holds the ledger for every
// namespace; RecordManager returns a view scoped to one of them.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Clock
//
// Timestamps come from the database clock, not the caller's, so every process
// writing a namespace agrees on ordering. They are stored as unix microseconds.
//
// # Data Location
//
// By default, the database is stored at ~/.docsync/data/ledger.db
package sqlite
