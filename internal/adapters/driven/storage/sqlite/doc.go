// Package sqlite provides the SQLite-based implementations of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It holds two databases:
//
//   - Store (metadata.db): PageCounter, label page range allocation
//   - IndexStore (index/index.db): the full-text index, an FTS5 table over
//     the label and content fields with an fts5vocab table for spelling
//     correction
//
// # Schema
//
// The metadata schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// The index schema is not migrated: its signature is stored in the index
// itself and any mismatch causes the index to be deleted and rebuilt
// from the documents on disk.
//
// # Thread Safety
//
// All operations are thread-safe. Both databases run in WAL mode, so a
// searcher keeps reading its snapshot while the single writer commits.
package sqlite
