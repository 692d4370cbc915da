// Package sqlite provides SQLite-backed implementations of driven ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It provides two stores:
//
//   - Store: a long-lived database holding chat sessions (SessionStore)
//   - IndexStore: an IndexStore where every index is its own database file
//
// # Schema
//
// Each database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the session database is stored at ~/.rockybot/data/sessions.db.
// Index files live wherever index.path points when index.backend is "sqlite".
//
// # Thread Safety
//
// All operations are thread-safe. The session store uses database-level locking
// provided by SQLite in WAL mode. Index files are written to a temporary file and
// renamed into place, so readers never observe a partial index.
package sqlite
